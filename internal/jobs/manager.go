package jobs

import (
	"errors"
	"fmt"
	"sync"

	"podcast-transcriber/internal/domain"
)

// ErrRunAlreadyActive is returned when starting a second active run.
var ErrRunAlreadyActive = errors.New("run already active")

// ErrNoActiveRun is returned when cancel is requested for idle state.
var ErrNoActiveRun = errors.New("no active run")

// Manager tracks the single allowed active run and its transitions.
type Manager struct {
	mu      sync.RWMutex
	current domain.Run
}

// NewManager creates a manager in idle state.
func NewManager() *Manager {
	return &Manager{
		current: domain.Run{
			Status: domain.RunStatusIdle,
		},
	}
}

// Start creates a new run and moves it to the resolving state.
func (m *Manager) Start(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if isActive(m.current.Status) {
		return ErrRunAlreadyActive
	}

	m.current = domain.Run{
		ID:     runID,
		Status: domain.RunStatusResolving,
	}
	return nil
}

// Transition validates and applies state transitions for current run.
func (m *Manager) Transition(status domain.RunStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.ID == "" && status != domain.RunStatusIdle {
		return fmt.Errorf("cannot transition without an active run")
	}
	if status == m.current.Status {
		return nil
	}
	if !isValidTransition(m.current.Status, status) {
		return fmt.Errorf("invalid transition: %s -> %s", m.current.Status, status)
	}

	m.current.Status = status
	return nil
}

// Current returns a snapshot of the current run.
func (m *Manager) Current() domain.Run {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Reset clears run metadata and returns manager to idle.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = domain.Run{Status: domain.RunStatusIdle}
}

// IsActive reports whether the current state is a pipeline stage.
func (m *Manager) IsActive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return isActive(m.current.Status)
}

// Cancel moves an active run to cancelled state.
func (m *Manager) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !isActive(m.current.Status) {
		return ErrNoActiveRun
	}
	m.current.Status = domain.RunStatusCancelled
	return nil
}

// isActive checks if a status represents active pipeline execution.
func isActive(status domain.RunStatus) bool {
	switch status {
	case domain.RunStatusResolving,
		domain.RunStatusDownloading,
		domain.RunStatusSegmenting,
		domain.RunStatusTranscribing,
		domain.RunStatusSummarizing:
		return true
	default:
		return false
	}
}

// isValidTransition enforces the allowed run state machine edges.
func isValidTransition(from, to domain.RunStatus) bool {
	if to == domain.RunStatusFailed || to == domain.RunStatusCancelled {
		return isActive(from)
	}

	switch from {
	case domain.RunStatusIdle:
		return to == domain.RunStatusResolving
	case domain.RunStatusResolving:
		return to == domain.RunStatusDownloading
	case domain.RunStatusDownloading:
		return to == domain.RunStatusSegmenting
	case domain.RunStatusSegmenting:
		return to == domain.RunStatusTranscribing
	case domain.RunStatusTranscribing:
		return to == domain.RunStatusSummarizing
	case domain.RunStatusSummarizing:
		return to == domain.RunStatusDone
	case domain.RunStatusDone, domain.RunStatusFailed, domain.RunStatusCancelled:
		return to == domain.RunStatusResolving || to == domain.RunStatusIdle
	default:
		return false
	}
}
