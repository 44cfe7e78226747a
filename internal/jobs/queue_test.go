package jobs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/D-Fate/AudioToTextConverter/internal/domain"
)

// statOK pretends every path exists.
func statOK(string) (os.FileInfo, error) {
	return nil, nil
}

// TestQueueEnqueueMissingFile checks nonexistent paths are rejected and
// leave the queue unchanged.
func TestQueueEnqueueMissingFile(t *testing.T) {
	q := NewQueue()

	_, added, err := q.Enqueue(filepath.Join(t.TempDir(), "missing.wav"))
	if added {
		t.Fatal("missing file should not be enqueued")
	}

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if q.Len() != 0 {
		t.Fatalf("queue length = %d, want 0", q.Len())
	}
}

// TestQueueEnqueueUnsupportedExtension checks the format allow-list.
func TestQueueEnqueueUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("text"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	q := NewQueue()
	_, _, err := q.Enqueue(path)

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if validationErr.Reason != "unsupported format" {
		t.Fatalf("reason = %q, want unsupported format", validationErr.Reason)
	}
}

// TestQueueEnqueueAcceptsUppercaseExtension checks extension matching is
// case-insensitive.
func TestQueueEnqueueAcceptsUppercaseExtension(t *testing.T) {
	q := NewQueueForTests(statOK)

	job, added, err := q.Enqueue("/music/Track.MP3")
	if err != nil || !added {
		t.Fatalf("Enqueue() = added %v, err %v", added, err)
	}
	if job.Status != domain.JobStatusPending {
		t.Fatalf("status = %s, want pending", job.Status)
	}
}

// TestQueueEnqueueNormalizesDragAndDropInput checks brace wrapping and
// whitespace from drag-and-drop payloads are stripped.
func TestQueueEnqueueNormalizesDragAndDropInput(t *testing.T) {
	q := NewQueueForTests(statOK)

	job, added, err := q.Enqueue("  {/home/user/voice memo.wav}\n")
	if err != nil || !added {
		t.Fatalf("Enqueue() = added %v, err %v", added, err)
	}
	if job.Path != "/home/user/voice memo.wav" {
		t.Fatalf("normalized path = %q", job.Path)
	}
	if job.ID == "" {
		t.Fatal("expected non-empty job id")
	}
}

// TestQueueEnqueueDeduplicatesPending checks a path already waiting is a
// silent no-op.
func TestQueueEnqueueDeduplicatesPending(t *testing.T) {
	q := NewQueueForTests(statOK)

	if _, added, err := q.Enqueue("/audio/a.wav"); err != nil || !added {
		t.Fatalf("first enqueue failed: added %v, err %v", added, err)
	}
	if _, added, err := q.Enqueue("{/audio/a.wav}"); err != nil || added {
		t.Fatalf("duplicate enqueue = added %v, err %v, want silent no-op", added, err)
	}
	if q.Len() != 1 {
		t.Fatalf("queue length = %d, want 1", q.Len())
	}
}

// TestQueueEnqueueDeduplicatesAgainstCurrent checks the running job also
// blocks re-enqueue of its path.
func TestQueueEnqueueDeduplicatesAgainstCurrent(t *testing.T) {
	q := NewQueueForTests(statOK)
	if _, _, err := q.Enqueue("/audio/a.wav"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, ok := q.DequeueNext(); !ok {
		t.Fatal("dequeue should succeed")
	}

	if _, added, err := q.Enqueue("/audio/a.wav"); err != nil || added {
		t.Fatalf("enqueue of current = added %v, err %v, want silent no-op", added, err)
	}
}

// TestQueueFIFOOrder checks dequeue order equals enqueue order.
func TestQueueFIFOOrder(t *testing.T) {
	q := NewQueueForTests(statOK)
	paths := []string{"/a/one.wav", "/a/two.mp3", "/a/three.wav"}
	for _, p := range paths {
		if _, _, err := q.Enqueue(p); err != nil {
			t.Fatalf("enqueue %s: %v", p, err)
		}
	}

	for i, want := range paths {
		job, ok := q.DequeueNext()
		if !ok {
			t.Fatalf("dequeue %d failed", i)
		}
		if job.Path != want {
			t.Fatalf("dequeue %d path = %q, want %q", i, job.Path, want)
		}
		if job.Status != domain.JobStatusRunning {
			t.Fatalf("dequeue %d status = %s, want running", i, job.Status)
		}
		q.CompleteCurrent(true)
	}

	if _, ok := q.DequeueNext(); ok {
		t.Fatal("dequeue on empty queue should report empty")
	}
}

// TestQueueCompleteCurrent checks terminal records and slot clearing.
func TestQueueCompleteCurrent(t *testing.T) {
	q := NewQueueForTests(statOK)
	if _, _, err := q.Enqueue("/audio/a.wav"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	q.DequeueNext()

	done, ok := q.CompleteCurrent(false)
	if !ok {
		t.Fatal("expected a current job to complete")
	}
	if done.Status != domain.JobStatusFailed {
		t.Fatalf("terminal status = %s, want failed", done.Status)
	}
	if _, ok := q.Current(); ok {
		t.Fatal("current slot should be cleared")
	}
	if _, ok := q.CompleteCurrent(true); ok {
		t.Fatal("second complete should report no current job")
	}
}
