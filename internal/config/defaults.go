package config

import (
	"os"
	"path/filepath"

	"github.com/D-Fate/AudioToTextConverter/internal/domain"
)

// DefaultSettings returns baseline local configuration for first launch:
// the medium multilingual model with Russian as the transcription language.
func DefaultSettings() domain.Settings {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return domain.Settings{
		ModelPath: filepath.Join(homeDir, ".audio-to-text-converter", "models"),
		ModelID:   "medium",
		Language:  "ru",
	}
}
