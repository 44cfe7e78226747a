package diagnostics

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/D-Fate/AudioToTextConverter/internal/domain"
)

// Status indicates whether a single startup check passed.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// Item is one startup check result with an optional hint.
type Item struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// Report aggregates startup checks for UI and CLI output.
type Report struct {
	GeneratedAt time.Time `json:"generatedAt"`
	HasFailures bool      `json:"hasFailures"`
	Items       []Item    `json:"items"`
}

// Checker validates external tools and required filesystem paths.
type Checker struct {
	lookPath func(string) (string, error)
	stat     func(string) (os.FileInfo, error)
	readDir  func(string) ([]os.DirEntry, error)
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath: exec.LookPath,
		stat:     os.Stat,
		readDir:  os.ReadDir,
	}
}

// NewCheckerForTests builds a checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	stat func(string) (os.FileInfo, error),
	readDir func(string) ([]os.DirEntry, error),
) *Checker {
	return &Checker{lookPath: lookPath, stat: stat, readDir: readDir}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) Report {
	items := []Item{
		c.checkTool("ffmpeg"),
		c.checkTool("whisper.cpp"),
		c.checkModelPath(settings.ModelPath),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == StatusFail {
			hasFailures = true
			break
		}
	}

	return Report{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkTool verifies a required CLI executable is on PATH.
func (c *Checker) checkTool(name string) Item {
	path, err := c.lookPath(name)
	if err != nil {
		return Item{
			ID:      "tool_" + name,
			Name:    name,
			Status:  StatusFail,
			Message: fmt.Sprintf("Tool not found in PATH: %s", name),
			Hint:    "Install it and make sure the binary is on PATH before transcribing.",
		}
	}

	return Item{
		ID:      "tool_" + name,
		Name:    name,
		Status:  StatusPass,
		Message: fmt.Sprintf("Found at %s", path),
	}
}

// checkModelPath verifies the configured model file or directory.
func (c *Checker) checkModelPath(modelPath string) Item {
	const id = "model_path"
	path := strings.TrimSpace(modelPath)
	if path == "" {
		return Item{
			ID:      id,
			Name:    "Whisper model",
			Status:  StatusFail,
			Message: "Model path is not configured",
			Hint:    "Set a model file or directory in settings.",
		}
	}

	info, err := c.stat(path)
	if err != nil {
		return Item{
			ID:      id,
			Name:    "Whisper model",
			Status:  StatusFail,
			Message: fmt.Sprintf("Model path does not exist yet: %s", path),
			Hint:    "The selected model preset will be downloaded on first start.",
		}
	}
	if !info.IsDir() {
		return Item{
			ID:      id,
			Name:    "Whisper model",
			Status:  StatusPass,
			Message: fmt.Sprintf("Model file: %s", path),
		}
	}

	entries, err := c.readDir(path)
	if err != nil {
		return Item{
			ID:      id,
			Name:    "Whisper model",
			Status:  StatusFail,
			Message: fmt.Sprintf("Cannot read model directory: %s", path),
		}
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".bin" || ext == ".gguf" {
			return Item{
				ID:      id,
				Name:    "Whisper model",
				Status:  StatusPass,
				Message: fmt.Sprintf("Model directory: %s", path),
			}
		}
	}

	return Item{
		ID:      id,
		Name:    "Whisper model",
		Status:  StatusFail,
		Message: fmt.Sprintf("No .bin or .gguf model files in: %s", path),
		Hint:    "The selected model preset will be downloaded on first start.",
	}
}
