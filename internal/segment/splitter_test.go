package segment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// fakeRunner simulates command execution order and outcomes.
type fakeRunner struct {
	run func(ctx context.Context, name string, args ...string) (commandResult, error)
}

// Run delegates to injected behavior.
func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	if f.run == nil {
		return commandResult{}, nil
	}
	return f.run(ctx, name, args...)
}

// TestSplitProducesOrderedSegments checks the happy path and ordering.
func TestSplitProducesOrderedSegments(t *testing.T) {
	workDir := t.TempDir()
	pattern := filepath.Join(workDir, "chunk_abc_%03d.mp3")
	mediaPath := filepath.Join(workDir, "src_abc.m4a")
	mustWriteFile(t, mediaPath, "media")

	var gotArgs []string
	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
			if name != "ffmpeg-custom" {
				t.Fatalf("command name = %q, want ffmpeg-custom", name)
			}
			gotArgs = append([]string{}, args...)
			// Write chunks out of creation order; ordering must come
			// from the filename ordinal, not mtime.
			for _, i := range []int{2, 0, 1} {
				mustWriteFile(t, fmt.Sprintf(pattern, i), "chunk")
			}
			return commandResult{ExitCode: 0}, nil
		},
	}

	splitter := NewSplitterForTests("ffmpeg-custom", runner, os.ReadDir)
	segments, log, err := splitter.Split(context.Background(), mediaPath, pattern, 600)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	if len(segments) != 3 {
		t.Fatalf("segments = %d, want 3", len(segments))
	}
	for i, seg := range segments {
		if seg.Index != i {
			t.Fatalf("segment %d has index %d", i, seg.Index)
		}
		want := fmt.Sprintf(pattern, i)
		if seg.Path != want {
			t.Fatalf("segment %d path = %q, want %q", i, seg.Path, want)
		}
	}

	if log.ExitCode != 0 {
		t.Fatalf("log exit code = %d", log.ExitCode)
	}
	for _, want := range []string{"-segment_time", "600", "libmp3lame", "64k", "16000", "-ac"} {
		if !hasArg(gotArgs, want) {
			t.Fatalf("ffmpeg args missing %q: %v", want, gotArgs)
		}
	}
}

// TestSplitCommandFailureIsError checks the non-zero exit path.
func TestSplitCommandFailureIsError(t *testing.T) {
	workDir := t.TempDir()
	pattern := filepath.Join(workDir, "chunk_abc_%03d.mp3")

	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
			return commandResult{Stderr: "invalid data", ExitCode: 1}, errors.New("exit status 1")
		},
	}

	splitter := NewSplitterForTests("ffmpeg", runner, os.ReadDir)
	_, log, err := splitter.Split(context.Background(), "src.m4a", pattern, 600)
	if err == nil {
		t.Fatal("expected error")
	}
	if log.ExitCode != 1 {
		t.Fatalf("log exit code = %d, want 1", log.ExitCode)
	}
	if log.Stderr != "invalid data" {
		t.Fatalf("log stderr = %q", log.Stderr)
	}
}

// TestSplitZeroSegmentsIsError checks the empty-output failure mode.
func TestSplitZeroSegmentsIsError(t *testing.T) {
	workDir := t.TempDir()
	pattern := filepath.Join(workDir, "chunk_abc_%03d.mp3")

	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
			return commandResult{ExitCode: 0}, nil
		},
	}

	splitter := NewSplitterForTests("ffmpeg", runner, os.ReadDir)
	_, _, err := splitter.Split(context.Background(), "src.m4a", pattern, 600)
	if err == nil {
		t.Fatal("expected error for zero segments")
	}
}

// TestSplitIgnoresForeignFiles checks only pattern matches are collected.
func TestSplitIgnoresForeignFiles(t *testing.T) {
	workDir := t.TempDir()
	pattern := filepath.Join(workDir, "chunk_abc_%03d.mp3")
	mustWriteFile(t, filepath.Join(workDir, "chunk_other_000.mp3"), "foreign")
	mustWriteFile(t, filepath.Join(workDir, "notes.txt"), "text")

	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
			mustWriteFile(t, fmt.Sprintf(pattern, 0), "chunk")
			return commandResult{ExitCode: 0}, nil
		},
	}

	splitter := NewSplitterForTests("ffmpeg", runner, os.ReadDir)
	segments, _, err := splitter.Split(context.Background(), "src.m4a", pattern, 600)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(segments))
	}
}

// hasArg reports whether args contains the exact value.
func hasArg(args []string, value string) bool {
	for _, arg := range args {
		if arg == value {
			return true
		}
	}
	return false
}

// mustWriteFile writes a test fixture file or fails the test.
func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
