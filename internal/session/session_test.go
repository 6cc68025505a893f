package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestManagerStartAllocatesUniqueIDs verifies session id uniqueness.
func TestManagerStartAllocatesUniqueIDs(t *testing.T) {
	manager := NewManager(t.TempDir())

	first, err := manager.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	second, err := manager.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if first.ID() == "" || second.ID() == "" {
		t.Fatal("expected non-empty session ids")
	}
	if first.ID() == second.ID() {
		t.Fatalf("session ids collide: %s", first.ID())
	}
	if strings.Contains(first.ID(), "-") {
		t.Fatalf("session id should have no separators: %s", first.ID())
	}
}

// TestSessionPathsAreNamespaced verifies artifact paths embed the id.
func TestSessionPathsAreNamespaced(t *testing.T) {
	manager := NewManager(t.TempDir())
	sess, err := manager.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if !strings.Contains(sess.SourcePath(), sess.ID()) {
		t.Fatalf("source path not namespaced: %s", sess.SourcePath())
	}
	if !strings.Contains(sess.SegmentPattern(), sess.ID()) {
		t.Fatalf("segment pattern not namespaced: %s", sess.SegmentPattern())
	}
	if !strings.Contains(sess.SegmentPattern(), "%03d") {
		t.Fatalf("segment pattern missing ordinal: %s", sess.SegmentPattern())
	}
}

// TestFinishRemovesTrackedArtifacts checks manifest-driven teardown.
func TestFinishRemovesTrackedArtifacts(t *testing.T) {
	workDir := t.TempDir()
	manager := NewManager(workDir)
	sess, err := manager.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	mustWriteFile(t, sess.SourcePath(), "media")
	sess.Track(sess.SourcePath())

	sess.Finish()

	if _, err := os.Stat(sess.SourcePath()); !os.IsNotExist(err) {
		t.Fatalf("expected media file removed, stat err = %v", err)
	}
}

// TestFinishSweepsUntrackedNamespacedFiles checks the defensive sweep.
func TestFinishSweepsUntrackedNamespacedFiles(t *testing.T) {
	workDir := t.TempDir()
	manager := NewManager(workDir)
	sess, err := manager.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	stray := filepath.Join(workDir, "chunk_"+sess.ID()+"_007.mp3")
	unrelated := filepath.Join(workDir, "keep.mp3")
	mustWriteFile(t, stray, "chunk")
	mustWriteFile(t, unrelated, "other")

	sess.Finish()

	if _, err := os.Stat(stray); !os.IsNotExist(err) {
		t.Fatalf("expected stray chunk swept, stat err = %v", err)
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Fatalf("unrelated file should survive: %v", err)
	}
}

// TestFinishIsIdempotent checks repeated teardown is safe.
func TestFinishIsIdempotent(t *testing.T) {
	workDir := t.TempDir()
	removed := 0
	manager := NewManagerForTests(
		workDir,
		func() string { return "fixedid" },
		os.MkdirAll,
		func(path string) error {
			removed++
			return os.Remove(path)
		},
		os.ReadDir,
	)

	sess, err := manager.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	mustWriteFile(t, sess.SourcePath(), "media")
	sess.Track(sess.SourcePath())

	sess.Finish()
	first := removed
	sess.Finish()

	if removed != first {
		t.Fatalf("second Finish removed files: %d -> %d", first, removed)
	}
}

// TestFinishSwallowsDeletionErrors checks one stuck file cannot block
// cleanup of the rest.
func TestFinishSwallowsDeletionErrors(t *testing.T) {
	workDir := t.TempDir()
	var attempts []string
	manager := NewManagerForTests(
		workDir,
		func() string { return "abc123" },
		os.MkdirAll,
		func(path string) error {
			attempts = append(attempts, path)
			if strings.HasSuffix(path, "src_abc123.m4a") {
				return os.ErrPermission
			}
			return os.Remove(path)
		},
		os.ReadDir,
	)

	sess, err := manager.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	chunk := filepath.Join(workDir, "chunk_abc123_000.mp3")
	mustWriteFile(t, sess.SourcePath(), "media")
	mustWriteFile(t, chunk, "chunk")
	sess.Track(sess.SourcePath())
	sess.Track(chunk)

	sess.Finish()

	if _, err := os.Stat(chunk); !os.IsNotExist(err) {
		t.Fatalf("chunk should be removed despite media failure, stat err = %v", err)
	}
	if len(attempts) < 2 {
		t.Fatalf("expected removal attempts for both artifacts, got %v", attempts)
	}
}

// TestReleaseDeletesOneArtifactEagerly checks per-segment cleanup.
func TestReleaseDeletesOneArtifactEagerly(t *testing.T) {
	workDir := t.TempDir()
	manager := NewManager(workDir)
	sess, err := manager.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	chunk := filepath.Join(workDir, "chunk_"+sess.ID()+"_000.mp3")
	mustWriteFile(t, chunk, "chunk")
	sess.Track(chunk)

	if err := sess.Release(chunk); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if _, err := os.Stat(chunk); !os.IsNotExist(err) {
		t.Fatalf("expected chunk removed, stat err = %v", err)
	}
	if err := sess.Release(chunk); err != nil {
		t.Fatalf("Release() of missing file should be nil, got %v", err)
	}
}

// mustWriteFile writes a test fixture file or fails the test.
func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
