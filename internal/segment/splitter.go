package segment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"podcast-transcriber/internal/domain"
)

// CommandLog captures one external command invocation result.
type CommandLog struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
}

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}

	return result, nil
}

// Splitter invokes ffmpeg to cut source audio into fixed-duration,
// ordinal-named chunks re-encoded for ASR input.
type Splitter struct {
	ffmpegPath string
	runner     commandRunner
	readDir    func(string) ([]os.DirEntry, error)
}

// NewSplitter constructs the production splitter with OS dependencies.
func NewSplitter() *Splitter {
	return &Splitter{
		ffmpegPath: "ffmpeg",
		runner:     &execRunner{},
		readDir:    os.ReadDir,
	}
}

// Split runs ffmpeg over mediaPath, writing chunks that match
// outPattern (an ffmpeg %03d pattern), each at most seconds long.
// Returned segments are ordered by the ordinal in their filename; that
// order determines transcript order and is never re-sorted later.
// A failed invocation or an empty chunk set is terminal: the same
// malformed input would fail identically on retry.
func (s *Splitter) Split(ctx context.Context, mediaPath, outPattern string, seconds int) ([]domain.Segment, CommandLog, error) {
	args := buildSegmentArgs(mediaPath, outPattern, seconds)

	result, runErr := s.runner.Run(ctx, s.ffmpegPath, args...)
	log := CommandLog{
		Command:  s.ffmpegPath,
		Args:     args,
		ExitCode: result.ExitCode,
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
	}
	if runErr != nil {
		return nil, log, fmt.Errorf("ffmpeg segmentation failed: %w", runErr)
	}

	segments, err := s.collectSegments(outPattern)
	if err != nil {
		return nil, log, err
	}
	if len(segments) == 0 {
		return nil, log, fmt.Errorf("ffmpeg produced no segments")
	}

	return segments, log, nil
}

// collectSegments lists chunk files matching the output pattern and
// assigns indexes by sorted filename order.
func (s *Splitter) collectSegments(outPattern string) ([]domain.Segment, error) {
	dir := filepath.Dir(outPattern)
	prefix, suffix, err := splitPattern(filepath.Base(outPattern))
	if err != nil {
		return nil, err
	}

	entries, err := s.readDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list segment directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, suffix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	segments := make([]domain.Segment, 0, len(names))
	for i, name := range names {
		segments = append(segments, domain.Segment{
			Index: i,
			Path:  filepath.Join(dir, name),
		})
	}
	return segments, nil
}

// splitPattern divides an ffmpeg %03d filename pattern into the fixed
// prefix and suffix around the ordinal.
func splitPattern(pattern string) (prefix, suffix string, err error) {
	start := strings.Index(pattern, "%")
	if start < 0 {
		return "", "", fmt.Errorf("segment pattern %q has no ordinal placeholder", pattern)
	}
	end := strings.IndexByte(pattern[start:], 'd')
	if end < 0 {
		return "", "", fmt.Errorf("segment pattern %q has no ordinal placeholder", pattern)
	}
	return pattern[:start], pattern[start+end+1:], nil
}

// buildSegmentArgs builds ffmpeg CLI args for fixed-duration mono
// low-bitrate mp3 chunks suitable for ASR upload.
func buildSegmentArgs(mediaPath, outPattern string, seconds int) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", mediaPath,
		"-vn",
		"-f", "segment",
		"-segment_time", strconv.Itoa(seconds),
		"-c:a", "libmp3lame",
		"-ab", "64k",
		"-ar", "16000",
		"-ac", "1",
		outPattern,
	}
}

// NewSplitterForTests constructs a splitter with injectable dependencies.
func NewSplitterForTests(
	ffmpegPath string,
	runner commandRunner,
	readDir func(string) ([]os.DirEntry, error),
) *Splitter {
	return &Splitter{
		ffmpegPath: ffmpegPath,
		runner:     runner,
		readDir:    readDir,
	}
}
