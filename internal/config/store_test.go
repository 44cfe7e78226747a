package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/D-Fate/AudioToTextConverter/internal/domain"
)

// TestLoadMissingFileReturnsDefaults checks first launch behavior.
func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "settings.json"))

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ModelID != "medium" {
		t.Fatalf("default model id = %q, want medium", cfg.ModelID)
	}
	if cfg.Language != "ru" {
		t.Fatalf("default language = %q, want ru", cfg.Language)
	}
	if cfg.ModelPath == "" {
		t.Fatal("default model path should not be empty")
	}
}

// TestSaveThenLoadRoundtrip checks persisted settings survive a restart.
func TestSaveThenLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	store := NewJSONStore(path)

	want := domain.Settings{
		ModelPath: "/models/ggml-small.bin",
		ModelID:   "small",
		Language:  "en",
	}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Fatalf("Load() = %+v, want %+v", got, want)
	}
}

// TestLoadInvalidJSONFails checks corrupt files surface an error instead
// of silently resetting the user's settings.
func TestLoadInvalidJSONFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := NewJSONStore(path).Load(); err == nil {
		t.Fatal("expected an error for invalid JSON")
	}
}

// TestLoadFillsMissingFields checks older settings files pick up
// defaults for fields they never had.
func TestLoadFillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"modelPath":"/models"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := NewJSONStore(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ModelPath != "/models" {
		t.Fatalf("model path = %q, want /models", cfg.ModelPath)
	}
	if cfg.ModelID != "medium" || cfg.Language != "ru" {
		t.Fatalf("missing fields not defaulted: %+v", cfg)
	}
}

// TestDefaultStorePath checks the settings file lives under the app's
// home directory.
func TestDefaultStorePath(t *testing.T) {
	path := DefaultStorePath()
	if !strings.Contains(path, ".audio-to-text-converter") {
		t.Fatalf("store path = %q, want app config directory", path)
	}
	if filepath.Base(path) != "settings.json" {
		t.Fatalf("store file = %q, want settings.json", filepath.Base(path))
	}
}
