package jobs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/D-Fate/AudioToTextConverter/internal/domain"
)

// supportedExtensions is the audio format allow-list for enqueue.
var supportedExtensions = map[string]bool{
	".wav": true,
	".mp3": true,
}

// ValidationError explains why a path was rejected at enqueue time.
// It is surfaced to the caller and never enters the queue.
type ValidationError struct {
	Path   string
	Reason string
}

// Error formats the rejection for logs and UI.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("cannot enqueue %q: %s", e.Path, e.Reason)
}

// Queue holds the FIFO of pending transcription jobs plus the single job
// currently being processed. A normalized path appears at most once across
// pending entries and the current slot; the duplicate check and the append
// happen under one lock, so near-simultaneous enqueues of the same path
// cannot both pass it.
type Queue struct {
	mu      sync.Mutex
	pending []domain.Job
	current domain.Job
	hasCur  bool

	stat func(string) (os.FileInfo, error)
}

// NewQueue creates an empty queue using real filesystem checks.
func NewQueue() *Queue {
	return &Queue{stat: os.Stat}
}

// NewQueueForTests creates a queue with an injectable stat function.
func NewQueueForTests(stat func(string) (os.FileInfo, error)) *Queue {
	return &Queue{stat: stat}
}

// Enqueue normalizes and validates raw, then appends a pending job and
// returns it with added true. A path already pending or currently running
// is a silent no-op (added false, nil error). Invalid paths return a
// *ValidationError and leave the queue unchanged.
func (q *Queue) Enqueue(raw string) (job domain.Job, added bool, err error) {
	path, err := q.normalize(raw)
	if err != nil {
		return domain.Job{}, false, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.hasCur && q.current.Path == path {
		return domain.Job{}, false, nil
	}
	for _, pending := range q.pending {
		if pending.Path == path {
			return domain.Job{}, false, nil
		}
	}

	job = domain.Job{
		ID:     uuid.NewString(),
		Path:   path,
		Status: domain.JobStatusPending,
	}
	q.pending = append(q.pending, job)
	return job, true, nil
}

// DequeueNext pops the head pending job, marks it running, and records it
// as current. ok is false when nothing is pending.
func (q *Queue) DequeueNext() (job domain.Job, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return domain.Job{}, false
	}

	job = q.pending[0]
	q.pending = append([]domain.Job(nil), q.pending[1:]...)
	job.Status = domain.JobStatusRunning
	q.current = job
	q.hasCur = true
	return job, true
}

// CompleteCurrent clears the current slot and returns the terminal job
// record. ok is false when no job was running.
func (q *Queue) CompleteCurrent(success bool) (job domain.Job, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.hasCur {
		return domain.Job{}, false
	}

	job = q.current
	job.Status = domain.JobStatusDone
	if !success {
		job.Status = domain.JobStatusFailed
	}
	q.current = domain.Job{}
	q.hasCur = false
	return job, true
}

// Current returns the running job, if any.
func (q *Queue) Current() (domain.Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current, q.hasCur
}

// Pending returns a snapshot of queued jobs in FIFO order.
func (q *Queue) Pending() []domain.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]domain.Job(nil), q.pending...)
}

// Len returns the number of pending jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// normalize strips drag-and-drop brace wrapping, resolves an absolute
// path, and validates existence and extension against the allow-list.
func (q *Queue) normalize(raw string) (string, error) {
	path := strings.Trim(strings.TrimSpace(raw), "{}")
	if path == "" {
		return "", &ValidationError{Path: raw, Reason: "empty path"}
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", &ValidationError{Path: path, Reason: "cannot resolve absolute path"}
	}
	if !supportedExtensions[strings.ToLower(filepath.Ext(abs))] {
		return "", &ValidationError{Path: abs, Reason: "unsupported format"}
	}
	if _, err := q.stat(abs); err != nil {
		return "", &ValidationError{Path: abs, Reason: "file does not exist"}
	}

	return abs, nil
}
