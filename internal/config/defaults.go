package config

import (
	"os"
	"path/filepath"

	"podcast-transcriber/internal/domain"
)

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return domain.Settings{
		ASRModel:       "whisper-large-v3-turbo",
		SummaryModel:   "llama-3.1-8b-instant",
		Language:       "zh",
		SegmentSeconds: 600,
		WorkDir:        filepath.Join(homeDir, ".podcast-transcriber", "work"),
		OutputDir:      filepath.Join(homeDir, "Documents", "Transcripts"),
	}
}
