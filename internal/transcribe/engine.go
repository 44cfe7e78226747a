package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// CommandLog captures one external command invocation result.
type CommandLog struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
}

// EngineError is a stage-aware error with optional command context.
type EngineError struct {
	Stage      string     `json:"stage"`
	Message    string     `json:"message"`
	CommandLog CommandLog `json:"commandLog"`
	Err        error      `json:"-"`
}

// Error formats engine failures for logs and UI.
func (e *EngineError) Error() string {
	if e == nil {
		return ""
	}
	if e.CommandLog.Command == "" {
		return fmt.Sprintf("%s: %s", e.Stage, e.Message)
	}

	return fmt.Sprintf(
		"%s: %s (cmd=%s exit=%d)",
		e.Stage,
		e.Message,
		e.CommandLog.Command,
		e.CommandLog.ExitCode,
	)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *EngineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// commandRunner abstracts process execution for testability. Output is
// streamed into stdout and stderr while the process runs, so progress
// lines reach their writers incrementally rather than at exit.
type commandRunner interface {
	Run(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) (exitCode int, err error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command with streamed output and returns its exit code.
func (r *execRunner) Run(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return exitCode, err
	}

	return 0, nil
}

// Engine shells out to ffmpeg and whisper.cpp to transcribe one audio
// file. The input is first converted to 16 kHz mono PCM WAV in a
// temporary workspace, then transcribed with progress printing enabled so
// the output stream carries percentage tokens for the extractor.
type Engine struct {
	ffmpegPath  string
	whisperPath string
	runner      commandRunner
	onLog       func(log CommandLog)
	mkdirTemp   func(dir, pattern string) (string, error)
	removeAll   func(path string) error
	stat        func(name string) (os.FileInfo, error)
	readFile    func(name string) ([]byte, error)

	mu        sync.Mutex
	modelPath string
	language  string
}

// NewEngine constructs the production engine with OS dependencies.
func NewEngine(language string) *Engine {
	return &Engine{
		ffmpegPath:  "ffmpeg",
		whisperPath: "whisper.cpp",
		runner:      &execRunner{},
		mkdirTemp:   os.MkdirTemp,
		removeAll:   os.RemoveAll,
		stat:        os.Stat,
		readFile:    os.ReadFile,
		language:    language,
	}
}

// SetModelPath records the prepared model file once loading completes.
func (e *Engine) SetModelPath(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.modelPath = path
}

// SetLogCallback registers a receiver for per-command execution logs.
func (e *Engine) SetLogCallback(cb func(log CommandLog)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onLog = cb
}

// Transcribe converts and transcribes inputPath, returning the transcript
// text. While whisper.cpp runs, its stdout and stderr are teed into
// output so progress percentages can be scraped live.
func (e *Engine) Transcribe(ctx context.Context, inputPath string, output io.Writer) (string, error) {
	e.mu.Lock()
	modelPath := e.modelPath
	language := e.language
	onLog := e.onLog
	e.mu.Unlock()

	if modelPath == "" {
		return "", &EngineError{
			Stage:   "transcribing",
			Message: "model is not loaded",
		}
	}
	if _, err := e.stat(inputPath); err != nil {
		return "", &EngineError{
			Stage:   "preprocessing",
			Message: fmt.Sprintf("cannot access input audio: %s", inputPath),
			Err:     err,
		}
	}

	tempDir, err := e.mkdirTemp("", "audio-to-text-*")
	if err != nil {
		return "", &EngineError{
			Stage:   "preprocessing",
			Message: "failed to create temporary workspace",
			Err:     err,
		}
	}
	defer func() {
		_ = e.removeAll(tempDir)
	}()

	wavPath := filepath.Join(tempDir, "input-16k-mono.wav")
	ffmpegArgs := buildFFmpegArgs(inputPath, wavPath)

	var ffmpegOut, ffmpegErr bytes.Buffer
	exitCode, runErr := e.runner.Run(ctx, &ffmpegOut, &ffmpegErr, e.ffmpegPath, ffmpegArgs...)
	ffmpegLog := CommandLog{
		Command:  e.ffmpegPath,
		Args:     ffmpegArgs,
		ExitCode: exitCode,
		Stdout:   ffmpegOut.String(),
		Stderr:   ffmpegErr.String(),
	}
	emitLog(onLog, ffmpegLog)
	if runErr != nil {
		return "", &EngineError{
			Stage:      "preprocessing",
			Message:    "ffmpeg audio conversion failed",
			CommandLog: ffmpegLog,
			Err:        runErr,
		}
	}
	if _, err := e.stat(wavPath); err != nil {
		return "", &EngineError{
			Stage:      "preprocessing",
			Message:    "ffmpeg completed but output file is missing",
			CommandLog: ffmpegLog,
			Err:        err,
		}
	}

	textBase := filepath.Join(tempDir, "transcript")
	whisperArgs := buildWhisperArgs(modelPath, wavPath, textBase, language)

	if output == nil {
		output = io.Discard
	}
	var whisperOut, whisperErr bytes.Buffer
	exitCode, runErr = e.runner.Run(
		ctx,
		io.MultiWriter(&whisperOut, output),
		io.MultiWriter(&whisperErr, output),
		e.whisperPath,
		whisperArgs...,
	)
	whisperLog := CommandLog{
		Command:  e.whisperPath,
		Args:     whisperArgs,
		ExitCode: exitCode,
		Stdout:   whisperOut.String(),
		Stderr:   whisperErr.String(),
	}
	emitLog(onLog, whisperLog)
	if runErr != nil {
		return "", &EngineError{
			Stage:      "transcribing",
			Message:    "whisper.cpp transcription failed",
			CommandLog: whisperLog,
			Err:        runErr,
		}
	}

	textPath := textBase + ".txt"
	content, err := e.readFile(textPath)
	if err != nil {
		return "", &EngineError{
			Stage:      "transcribing",
			Message:    "whisper.cpp completed but transcript .txt file is missing",
			CommandLog: whisperLog,
			Err:        err,
		}
	}

	return strings.TrimSpace(string(content)), nil
}

// emitLog forwards command logs when a callback is configured.
func emitLog(cb func(log CommandLog), log CommandLog) {
	if cb != nil {
		cb(log)
	}
}

// normalizeLanguage maps "auto" and empty language to no CLI override.
func normalizeLanguage(raw string) string {
	lang := strings.TrimSpace(raw)
	if lang == "" || strings.EqualFold(lang, "auto") {
		return ""
	}
	return lang
}

// buildFFmpegArgs builds preprocessing CLI args for mono 16k PCM WAV output.
func buildFFmpegArgs(inputPath, wavPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		wavPath,
	}
}

// buildWhisperArgs builds whisper.cpp args for txt export with progress
// percentages printed to the output stream.
func buildWhisperArgs(modelPath, audioPath, textBase, language string) []string {
	args := []string{
		"-m", modelPath,
		"-f", audioPath,
		"-of", textBase,
		"-otxt",
		"--print-progress",
	}

	if lang := normalizeLanguage(language); lang != "" {
		args = append(args, "-l", lang)
	}

	return args
}

// NewEngineForTests constructs an engine with injectable dependencies.
func NewEngineForTests(
	ffmpegPath string,
	whisperPath string,
	runner commandRunner,
	language string,
) *Engine {
	return &Engine{
		ffmpegPath:  ffmpegPath,
		whisperPath: whisperPath,
		runner:      runner,
		mkdirTemp:   os.MkdirTemp,
		removeAll:   os.RemoveAll,
		stat:        os.Stat,
		readFile:    os.ReadFile,
		language:    language,
	}
}
