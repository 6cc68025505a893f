package session

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Manager allocates per-run artifact namespaces under one working
// directory and guarantees their teardown.
type Manager struct {
	workDir  string
	newID    func() string
	mkdirAll func(string, os.FileMode) error
	remove   func(string) error
	readDir  func(string) ([]os.DirEntry, error)
}

// NewManager builds a manager using real OS dependencies.
func NewManager(workDir string) *Manager {
	return &Manager{
		workDir:  workDir,
		newID:    newSessionID,
		mkdirAll: os.MkdirAll,
		remove:   os.Remove,
		readDir:  os.ReadDir,
	}
}

// Start allocates a unique session and ensures its working directory
// exists. Session ids namespace every artifact path, so two concurrent
// runs can never collide on disk.
func (m *Manager) Start() (*Session, error) {
	if err := m.mkdirAll(m.workDir, 0o755); err != nil {
		return nil, err
	}

	return &Session{
		id:        m.newID(),
		workDir:   m.workDir,
		artifacts: make(map[string]struct{}),
		remove:    m.remove,
		readDir:   m.readDir,
	}, nil
}

// Session owns the artifact namespace of one pipeline run. Every file
// the pipeline writes is either tracked in the manifest or named with
// the session id, and Finish removes both.
type Session struct {
	id      string
	workDir string

	mu        sync.Mutex
	artifacts map[string]struct{}
	finished  bool

	remove  func(string) error
	readDir func(string) ([]os.DirEntry, error)
}

// ID returns the opaque unique session identifier.
func (s *Session) ID() string {
	return s.id
}

// WorkDir returns the directory holding this session's artifacts.
func (s *Session) WorkDir() string {
	return s.workDir
}

// SourcePath returns the namespaced path for the downloaded media file.
func (s *Session) SourcePath() string {
	return filepath.Join(s.workDir, "src_"+s.id+".m4a")
}

// SegmentPattern returns the ffmpeg output pattern for ordinal-named
// audio chunks. The zero-padded ordinal keeps filename order equal to
// playback order.
func (s *Session) SegmentPattern() string {
	return filepath.Join(s.workDir, "chunk_"+s.id+"_%03d.mp3")
}

// Track records an artifact path in the session manifest.
func (s *Session) Track(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[path] = struct{}{}
}

// Release deletes one tracked artifact eagerly. Segments are released
// right after their transcription attempt so peak disk usage stays at
// one in-flight segment.
func (s *Session) Release(path string) error {
	s.mu.Lock()
	delete(s.artifacts, path)
	s.mu.Unlock()

	err := s.remove(path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// Finish removes every remaining artifact. It is idempotent and safe
// under defer on every exit path. Individual deletion failures are
// swallowed so one stuck file cannot block cleanup of the rest; a
// defensive sweep by naming convention catches files that were written
// but never tracked.
func (s *Session) Finish() {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	tracked := make([]string, 0, len(s.artifacts))
	for path := range s.artifacts {
		tracked = append(tracked, path)
	}
	s.artifacts = make(map[string]struct{})
	s.mu.Unlock()

	for _, path := range tracked {
		_ = s.remove(path)
	}

	entries, err := s.readDir(s.workDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.Contains(entry.Name(), s.id) {
			continue
		}
		_ = s.remove(filepath.Join(s.workDir, entry.Name()))
	}
}

// newSessionID returns a random hex identifier without separators.
func newSessionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewManagerForTests creates a manager with injectable dependencies.
func NewManagerForTests(
	workDir string,
	newID func() string,
	mkdirAll func(string, os.FileMode) error,
	remove func(string) error,
	readDir func(string) ([]os.DirEntry, error),
) *Manager {
	return &Manager{
		workDir:  workDir,
		newID:    newID,
		mkdirAll: mkdirAll,
		remove:   remove,
		readDir:  readDir,
	}
}
