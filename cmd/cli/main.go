package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/D-Fate/AudioToTextConverter/internal/config"
	"github.com/D-Fate/AudioToTextConverter/internal/diagnostics"
	"github.com/D-Fate/AudioToTextConverter/internal/domain"
	"github.com/D-Fate/AudioToTextConverter/internal/jobs"
	"github.com/D-Fate/AudioToTextConverter/internal/log"
	"github.com/D-Fate/AudioToTextConverter/internal/progress"
	"github.com/D-Fate/AudioToTextConverter/internal/readiness"
	"github.com/D-Fate/AudioToTextConverter/internal/transcribe"
)

var (
	flagVerbose  bool
	flagLanguage string
	flagModel    string
)

var rootCmd = &cobra.Command{
	Use:          "audiototext",
	Short:        "Batch audio-to-text conversion without the desktop UI",
	SilenceUsage: true,
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [files...]",
	Short: "Queue the given audio files and transcribe them one by one",
	Args:  cobra.MinimumNArgs(1),
	RunE:  doTranscribe,
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check external tools and model configuration",
	RunE:  doDoctor,
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "verbose logging")
	transcribeCmd.Flags().StringVar(&flagLanguage, "language", "", "override transcription language")
	transcribeCmd.Flags().StringVar(&flagModel, "model", "", "override model file or directory")

	rootCmd.SilenceErrors = true
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(doctorCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("audiototext failed", "err", err)
		os.Exit(1)
	}
}

// cliObserver forwards job notifications to structured logs.
type cliObserver struct {
	logger *slog.Logger
	failed bool
}

// OnStatus logs job progress messages.
func (o *cliObserver) OnStatus(job domain.Job, text string) {
	o.logger.Info(text, "job_id", job.ID, "path", job.Path)
}

// OnError logs job failures and records that one occurred.
func (o *cliObserver) OnError(job domain.Job, message string) {
	o.failed = true
	o.logger.Error(message, "job_id", job.ID, "path", job.Path)
}

// doTranscribe runs the full pipeline headless: load the model in the
// background, enqueue every argument, and drain the queue.
func doTranscribe(cmd *cobra.Command, args []string) error {
	logger := log.New(flagVerbose)
	slog.SetDefault(logger)

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if flagLanguage != "" {
		settings.Language = flagLanguage
	}
	if flagModel != "" {
		settings.ModelPath = flagModel
	}

	gate := readiness.NewGate()
	queue := jobs.NewQueue()
	engine := transcribe.NewEngine(settings.Language)
	engine.SetLogCallback(func(cl transcribe.CommandLog) {
		logger.Debug("command finished", "command", cl.Command, "exit_code", cl.ExitCode)
	})

	observer := &cliObserver{logger: logger}
	monitor := progress.NewMonitor(0, func(fraction float64) {
		logger.Debug("progress", "fraction", fraction)
	})
	runner := jobs.NewRunner(queue, gate, engine, transcribe.FileSink{}, observer, monitor)

	enqueued := 0
	for _, raw := range args {
		_, added, err := queue.Enqueue(raw)
		if err != nil {
			var validationErr *jobs.ValidationError
			if errors.As(err, &validationErr) {
				observer.failed = true
				logger.Error(validationErr.Error())
				continue
			}
			return err
		}
		if added {
			enqueued++
		}
	}
	if enqueued == 0 {
		return fmt.Errorf("no valid audio files to transcribe")
	}

	monitor.Start()
	runner.Start()
	runner.Kick()

	loadCtx, cancelLoad := context.WithCancel(cmd.Context())
	defer cancelLoad()
	loadFailed := make(chan struct{})
	go func() {
		logger.Info("loading model", "model_path", settings.ModelPath, "model_id", settings.ModelID)
		modelPath, err := transcribe.NewModelLoader().Load(loadCtx, settings)
		if err != nil {
			logger.Error("model initialization failed", "err", err)
			gate.Reset()
			close(loadFailed)
			return
		}
		engine.SetModelPath(modelPath)
		gate.Signal()
		logger.Info("model ready", "model_path", modelPath)
	}()

	initFailed := waitForDrain(queue, gate, loadFailed)
	gate.Reset()
	runner.Stop()
	monitor.Stop()

	if initFailed {
		return fmt.Errorf("model never became ready")
	}
	if observer.failed {
		return fmt.Errorf("one or more files failed")
	}
	return nil
}

// waitForDrain polls until no job is pending or running. It returns true
// when initialization failed, in which case queued jobs will never run
// and waiting longer is pointless.
func waitForDrain(queue *jobs.Queue, gate *readiness.Gate, loadFailed <-chan struct{}) bool {
	for {
		_, running := queue.Current()
		if gate.IsSet() && queue.Len() == 0 && !running {
			return false
		}

		select {
		case <-loadFailed:
			return true
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// doDoctor prints the diagnostics report.
func doDoctor(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	report := diagnostics.NewChecker().Run(settings)
	for _, item := range report.Items {
		status := "ok"
		if item.Status == diagnostics.StatusFail {
			status = "FAIL"
		}
		fmt.Printf("%-6s %-16s %s\n", status, item.Name, item.Message)
		if item.Hint != "" {
			fmt.Printf("       hint: %s\n", item.Hint)
		}
	}
	if report.HasFailures {
		return fmt.Errorf("diagnostics reported failures")
	}
	return nil
}

// loadSettings reads persisted settings from the default store location.
func loadSettings() (domain.Settings, error) {
	settings, err := config.NewJSONStore(config.DefaultStorePath()).Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}
