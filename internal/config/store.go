package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/D-Fate/AudioToTextConverter/internal/domain"
)

// Store defines persistence operations for app settings.
type Store interface {
	Load() (domain.Settings, error)
	Save(domain.Settings) error
}

// JSONStore persists settings in a single JSON file on disk.
type JSONStore struct {
	path string
}

// NewJSONStore creates a JSON-backed settings store.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// DefaultStorePath returns the settings file location under the user home.
func DefaultStorePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".audio-to-text-converter", "settings.json")
}

// Load reads settings from disk or returns defaults when missing.
// Fields left empty by older settings files fall back to defaults.
func (s *JSONStore) Load() (domain.Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), nil
		}

		return domain.Settings{}, err
	}

	var cfg domain.Settings
	if err := json.Unmarshal(data, &cfg); err != nil {
		return domain.Settings{}, err
	}

	defaults := DefaultSettings()
	if cfg.ModelPath == "" {
		cfg.ModelPath = defaults.ModelPath
	}
	if cfg.ModelID == "" {
		cfg.ModelID = defaults.ModelID
	}
	if cfg.Language == "" {
		cfg.Language = defaults.Language
	}

	return cfg, nil
}

// Save writes settings as indented JSON and creates parent directories.
func (s *JSONStore) Save(cfg domain.Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0o644)
}
