package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/D-Fate/AudioToTextConverter/internal/config"
	"github.com/D-Fate/AudioToTextConverter/internal/diagnostics"
	"github.com/D-Fate/AudioToTextConverter/internal/domain"
	"github.com/D-Fate/AudioToTextConverter/internal/jobs"
	"github.com/D-Fate/AudioToTextConverter/internal/progress"
	"github.com/D-Fate/AudioToTextConverter/internal/readiness"
	"github.com/D-Fate/AudioToTextConverter/internal/transcribe"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

var audioDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Audio files",
		Pattern:     "*.wav;*.mp3",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// QueueSnapshot is the queue state rendered by the UI.
type QueueSnapshot struct {
	Ready   bool         `json:"ready"`
	Current *domain.Job  `json:"current,omitempty"`
	Pending []domain.Job `json:"pending"`
}

// App wires the queue, gate, runner, monitor, and UI runtime callbacks.
// It also implements the runner's observer surface, republishing job
// notifications as UI events.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Queue       *jobs.Queue
	Gate        *readiness.Gate
	Engine      *transcribe.Engine
	Loader      *transcribe.ModelLoader
	Runner      *jobs.Runner
	Monitor     *progress.Monitor
	Diagnostics diagnostics.Report

	checker *diagnostics.Checker
	events  *jobs.EventBus

	mu         sync.Mutex
	runtimeCtx context.Context
}

// New builds the application with persisted settings and startup
// diagnostics. The worker, monitor, and model loading start in Startup.
func New() (*App, error) {
	store := config.NewJSONStore(config.DefaultStorePath())
	settings, err := store.Load()
	if err != nil {
		return nil, err
	}

	checker := diagnostics.NewChecker()

	app := &App{
		Settings:    settings,
		Store:       store,
		Queue:       jobs.NewQueue(),
		Gate:        readiness.NewGate(),
		Engine:      transcribe.NewEngine(settings.Language),
		Loader:      transcribe.NewModelLoader(),
		Diagnostics: checker.Run(settings),
		checker:     checker,
		events:      jobs.NewEventBus(1000),
	}
	app.Monitor = progress.NewMonitor(0, app.publishProgress)
	app.Runner = jobs.NewRunner(app.Queue, app.Gate, app.Engine, transcribe.FileSink{}, app, app.Monitor)
	return app, nil
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	return wails.Run(&options.App{
		Title:  "Audio to Text Converter",
		Width:  800,
		Height: 600,
		AssetServer: &assetserver.Options{
			Handler: http.FileServer(http.Dir("./frontend")),
		},
		DragAndDrop: &options.DragAndDrop{
			EnableFileDrop: true,
		},
		OnStartup:  a.Startup,
		OnShutdown: a.Shutdown,
		Bind:       []interface{}{a},
	})
}

// Startup stores the runtime context, registers drag-and-drop, and starts
// the pipeline: progress monitor, job worker, and background model load.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	a.runtimeCtx = ctx
	a.mu.Unlock()

	wailsruntime.OnFileDrop(ctx, func(x, y int, paths []string) {
		a.EnqueueFiles(paths)
	})

	a.Monitor.Start()
	a.Runner.Start()
	go a.loadModel(ctx)
}

// Shutdown stops the pipeline. Queued jobs are dropped and no new job can
// start; an in-flight transcription is not interrupted.
func (a *App) Shutdown(ctx context.Context) {
	a.Gate.Reset()
	a.Runner.RequestStop()
	a.Monitor.Stop()

	a.mu.Lock()
	a.runtimeCtx = nil
	a.mu.Unlock()
}

// EnqueueFiles validates and enqueues raw path strings, typically from
// drag-and-drop. Rejected paths surface as error events; duplicates are
// silently skipped. Accepted jobs wake the worker.
func (a *App) EnqueueFiles(paths []string) []domain.Job {
	accepted := make([]domain.Job, 0, len(paths))
	for _, raw := range paths {
		job, added, err := a.Queue.Enqueue(raw)
		if err != nil {
			a.publishEvent(jobs.Event{
				Type:    jobs.EventTypeError,
				Message: err.Error(),
			})
			continue
		}
		if !added {
			continue
		}

		accepted = append(accepted, job)
		a.publishEvent(jobs.Event{
			JobID:   job.ID,
			Path:    job.Path,
			Type:    jobs.EventTypeStatus,
			Status:  job.Status,
			Message: "Queued",
		})
	}

	if len(accepted) > 0 {
		a.Runner.Kick()
	}
	return accepted
}

// PickAudioFiles opens a native multi-select dialog and enqueues the
// chosen files.
func (a *App) PickAudioFiles() ([]domain.Job, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return nil, err
	}

	paths, err := wailsruntime.OpenMultipleFilesDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select audio files",
		Filters: audioDialogFilter,
	})
	if err != nil {
		return nil, err
	}

	return a.EnqueueFiles(paths), nil
}

// Snapshot returns readiness plus current and pending jobs for the UI.
func (a *App) Snapshot() QueueSnapshot {
	snapshot := QueueSnapshot{
		Ready:   a.Gate.IsSet(),
		Pending: a.Queue.Pending(),
	}
	if current, ok := a.Queue.Current(); ok {
		snapshot.Current = &current
	}
	return snapshot
}

// JobEvents returns all events with sequence greater than sinceSeq.
func (a *App) JobEvents(sinceSeq int64) []jobs.Event {
	return a.events.Since(sinceSeq)
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, err
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings, then refreshes
// diagnostics. A changed model takes effect on next launch.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := normalizeSettings(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, err
	}

	a.mu.Lock()
	a.Settings = normalized
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(normalized)
	}
	a.mu.Unlock()

	return normalized, nil
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() diagnostics.Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// GetWhisperModels returns the built-in whisper.cpp model presets.
func (a *App) GetWhisperModels() []domain.WhisperModelOption {
	return transcribe.WhisperModels()
}

// OnStatus republishes a job status notification as a UI event.
func (a *App) OnStatus(job domain.Job, text string) {
	a.publishEvent(jobs.Event{
		JobID:   job.ID,
		Path:    job.Path,
		Type:    jobs.EventTypeStatus,
		Status:  job.Status,
		Message: text,
	})
}

// OnError republishes a job failure as a UI event.
func (a *App) OnError(job domain.Job, message string) {
	a.publishEvent(jobs.Event{
		JobID:   job.ID,
		Path:    job.Path,
		Type:    jobs.EventTypeError,
		Status:  domain.JobStatusFailed,
		Message: message,
	})
}

// loadModel performs the one-shot background initialization and opens the
// gate on success. On failure the gate stays closed forever and the
// failure is surfaced as a terminal error event: queued jobs remain
// pending and never run.
func (a *App) loadModel(ctx context.Context) {
	a.publishEvent(jobs.Event{
		Type:    jobs.EventTypeStatus,
		Message: "Loading model...",
	})

	modelPath, err := a.Loader.Load(ctx, a.Settings)
	if err != nil {
		a.publishEvent(jobs.Event{
			Type:    jobs.EventTypeError,
			Message: "model initialization failed: " + err.Error(),
		})
		return
	}

	a.Engine.SetModelPath(modelPath)
	a.Gate.Signal()
	a.publishEvent(jobs.Event{
		Type:    jobs.EventTypeStatus,
		Message: "Ready",
	})
	a.Runner.Kick()
}

// publishProgress forwards monitor samples to the UI at the monitor's
// bounded cadence.
func (a *App) publishProgress(fraction float64) {
	event := jobs.Event{
		Type:     jobs.EventTypeProgress,
		Fraction: fraction,
	}
	if current, ok := a.Queue.Current(); ok {
		event.JobID = current.ID
		event.Path = current.Path
	}
	a.publishEvent(event)
}

// publishEvent stores event history and emits runtime push notifications.
func (a *App) publishEvent(event jobs.Event) {
	published := a.events.Publish(event)

	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, "job:event", published)
	}
}

// runtimeContext returns the Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// normalizeSettings trims user inputs and applies defaults when empty.
func normalizeSettings(settings domain.Settings) domain.Settings {
	defaults := config.DefaultSettings()

	settings.ModelPath = strings.TrimSpace(settings.ModelPath)
	settings.ModelID = strings.TrimSpace(settings.ModelID)
	settings.Language = strings.TrimSpace(settings.Language)
	if settings.ModelPath == "" {
		settings.ModelPath = defaults.ModelPath
	}
	if settings.ModelID == "" {
		settings.ModelID = defaults.ModelID
	}
	if settings.Language == "" {
		settings.Language = defaults.Language
	}
	return settings
}
