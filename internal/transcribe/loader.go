package transcribe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/D-Fate/AudioToTextConverter/internal/domain"
)

// ModelLoader prepares the whisper model before any job may run. It
// resolves the configured model path and, when the selected catalog preset
// is missing from the model directory, downloads it over HTTP. Loading is
// expected to run once, asynchronously, at startup.
type ModelLoader struct {
	client   *http.Client
	stat     func(name string) (os.FileInfo, error)
	readDir  func(name string) ([]os.DirEntry, error)
	mkdirAll func(path string, perm os.FileMode) error
	create   func(name string) (*os.File, error)
	rename   func(oldpath, newpath string) error
}

// NewModelLoader constructs the production loader with OS dependencies.
func NewModelLoader() *ModelLoader {
	return &ModelLoader{
		client:   http.DefaultClient,
		stat:     os.Stat,
		readDir:  os.ReadDir,
		mkdirAll: os.MkdirAll,
		create:   os.Create,
		rename:   os.Rename,
	}
}

// NewModelLoaderForTests constructs a loader with an injectable HTTP client.
func NewModelLoaderForTests(client *http.Client) *ModelLoader {
	loader := NewModelLoader()
	if client != nil {
		loader.client = client
	}
	return loader
}

// Load resolves the model file for the given settings and returns its
// path. Settings.ModelPath may point at a model file directly or at a
// directory of models; an empty directory triggers a download of the
// preset selected by Settings.ModelID.
func (l *ModelLoader) Load(ctx context.Context, settings domain.Settings) (string, error) {
	modelPath := strings.TrimSpace(settings.ModelPath)
	if modelPath == "" {
		return "", fmt.Errorf("model path is not configured")
	}

	info, err := l.stat(modelPath)
	if err == nil && !info.IsDir() {
		return modelPath, nil
	}
	if err != nil {
		// Treat a missing path as a model directory to create on first run.
		if err := l.mkdirAll(modelPath, 0o755); err != nil {
			return "", fmt.Errorf("create model directory %s: %w", modelPath, err)
		}
	}

	if found, ok := l.findLocalModel(modelPath, settings.ModelID); ok {
		return found, nil
	}

	preset, ok := findWhisperModel(strings.TrimSpace(settings.ModelID))
	if !ok {
		return "", fmt.Errorf("no model files in %s and unknown model id %q", modelPath, settings.ModelID)
	}

	target := filepath.Join(modelPath, preset.FileName)
	if err := l.download(ctx, preset.URL, target); err != nil {
		return "", fmt.Errorf("download model %s: %w", preset.ID, err)
	}
	return target, nil
}

// findLocalModel picks a model file from dir, preferring the file name of
// the configured preset and otherwise the first .bin/.gguf alphabetically.
func (l *ModelLoader) findLocalModel(dir, modelID string) (string, bool) {
	entries, err := l.readDir(dir)
	if err != nil {
		return "", false
	}

	preferred := ""
	if preset, ok := findWhisperModel(strings.TrimSpace(modelID)); ok {
		preferred = preset.FileName
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if entry.Name() == preferred {
			return filepath.Join(dir, entry.Name()), true
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".bin" || ext == ".gguf" {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return "", false
	}

	sort.Strings(names)
	return filepath.Join(dir, names[0]), true
}

// download fetches url into target via a temporary file so an interrupted
// transfer never leaves a truncated model behind.
func (l *ModelLoader) download(ctx context.Context, url, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	tmpPath := target + ".partial"
	out, err := l.create(tmpPath)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	return l.rename(tmpPath, target)
}
