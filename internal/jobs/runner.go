package jobs

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/D-Fate/AudioToTextConverter/internal/domain"
	"github.com/D-Fate/AudioToTextConverter/internal/progress"
)

// Engine is the opaque transcription collaborator. While Transcribe runs
// it writes free-form human-readable progress lines to output.
type Engine interface {
	Transcribe(ctx context.Context, path string, output io.Writer) (string, error)
}

// Sink persists one finished transcript and returns the written path.
type Sink interface {
	Write(sourcePath, transcript string) (string, error)
}

// Observer receives job lifecycle notifications. Callbacks must be cheap
// and non-blocking; UI-thread marshaling is the caller's concern.
type Observer interface {
	OnStatus(job domain.Job, text string)
	OnError(job domain.Job, message string)
}

// Gate gates job execution on completed model initialization.
type Gate interface {
	Wait(timeout time.Duration) bool
}

// Runner is the single sequential consumer of the queue. It waits for
// readiness, pops one job at a time, runs the engine under a job-scoped
// progress extractor, persists the result, and keeps draining until the
// queue is empty. Exactly one worker goroutine ever exists, which makes
// the at-most-one-running-job guarantee structural rather than an accident
// of how many goroutines happen to be started.
type Runner struct {
	queue    *Queue
	gate     Gate
	engine   Engine
	sink     Sink
	observer Observer
	monitor  *progress.Monitor

	gateTimeout time.Duration
	retryDelay  time.Duration

	kick     chan struct{}
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewRunner wires the pipeline collaborators. observer and monitor may be
// nil.
func NewRunner(queue *Queue, gate Gate, engine Engine, sink Sink, observer Observer, monitor *progress.Monitor) *Runner {
	return &Runner{
		queue:       queue,
		gate:        gate,
		engine:      engine,
		sink:        sink,
		observer:    observer,
		monitor:     monitor,
		gateTimeout: 100 * time.Millisecond,
		retryDelay:  25 * time.Millisecond,
		kick:        make(chan struct{}, 1),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start launches the worker goroutine.
func (r *Runner) Start() {
	go r.run()
}

// Kick wakes the worker after an enqueue. Wakeups are coalesced through a
// single-slot channel: a trigger arriving while one is already pending is
// dropped, so enqueue bursts can never fan out into parallel runners.
func (r *Runner) Kick() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// RequestStop prevents further jobs from starting without waiting for the
// worker to exit. An in-flight transcription is not interrupted.
func (r *Runner) RequestStop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// Stop requests shutdown and waits for the worker goroutine to exit.
func (r *Runner) Stop() {
	r.RequestStop()
	<-r.done
}

// run is the worker loop: sleep until kicked, then drain the queue.
func (r *Runner) run() {
	defer close(r.done)

	for {
		select {
		case <-r.stop:
			return
		case <-r.kick:
			if !r.drain() {
				return
			}
		}
	}
}

// drain processes pending jobs one at a time until the queue is empty.
// It returns false when shutdown was requested. A gate timeout is expected
// steady-state behavior during startup, never an error: the wait is simply
// re-armed after a short delay.
func (r *Runner) drain() bool {
	for {
		for !r.gate.Wait(r.gateTimeout) {
			select {
			case <-r.stop:
				return false
			case <-time.After(r.retryDelay):
			}
		}

		job, ok := r.queue.DequeueNext()
		if !ok {
			return true
		}
		r.runJob(job)

		select {
		case <-r.stop:
			return false
		default:
		}
	}
}

// runJob executes one dequeued job and reports its outcome. Failures are
// contained at the job boundary so the next pending job always runs, and
// every notification is delivered before the current slot is cleared.
func (r *Runner) runJob(job domain.Job) {
	extractor := progress.NewExtractor(nil)
	if r.monitor != nil {
		r.monitor.Attach(extractor)
	}
	defer func() {
		if r.monitor != nil {
			r.monitor.Detach()
		}
		extractor.Stop()
	}()

	r.status(job, "Processing: "+filepath.Base(job.Path))

	transcript, err := r.engine.Transcribe(context.Background(), job.Path, extractor)
	if err != nil {
		r.fail(job, fmt.Sprintf("transcription failed: %v", err))
		return
	}

	outPath, err := r.sink.Write(job.Path, transcript)
	if err != nil {
		r.fail(job, fmt.Sprintf("saving transcript failed: %v", err))
		return
	}

	r.status(job, "Saved: "+outPath)
	r.queue.CompleteCurrent(true)
}

// status forwards a progress message to the observer when configured.
func (r *Runner) status(job domain.Job, text string) {
	if r.observer != nil {
		r.observer.OnStatus(job, text)
	}
}

// fail reports a job failure and clears the current slot afterwards.
func (r *Runner) fail(job domain.Job, message string) {
	if r.observer != nil {
		r.observer.OnError(job, message)
	}
	r.queue.CompleteCurrent(false)
}
