package progress

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// progressPattern matches percentage tokens in free-form transcriber
// output: whitespace, one or more digits, literal percent sign.
var progressPattern = regexp.MustCompile(`\s(\d+)%`)

// Extractor captures the textual output of exactly one running job and
// derives the most recently reported completion percentage from it.
//
// It implements io.Writer so it can be attached directly to the job's
// output stream, which keeps the capture scoped to a single job instead of
// redirecting any process-global stream. A fresh Extractor is created for
// every job, so progress state never leaks between jobs.
type Extractor struct {
	mu       sync.Mutex
	captured strings.Builder
	stopped  bool
	onUpdate func(fraction float64)
}

// NewExtractor creates an extractor reporting samples to onUpdate.
// onUpdate may be nil.
func NewExtractor(onUpdate func(fraction float64)) *Extractor {
	return &Extractor{onUpdate: onUpdate}
}

// Write appends job output to the capture buffer. It never fails; bytes
// written after Stop are dropped.
func (e *Extractor) Write(p []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.stopped {
		e.captured.Write(p)
	}
	return len(p), nil
}

// Sample scans the entire captured output for percentage tokens, converts
// the last one in document order to a fraction, reports it to the
// callback, and returns it. The last token wins even when an earlier one
// was larger, and values are passed through unclamped. With no token seen
// yet Sample returns 0 without invoking the callback.
func (e *Extractor) Sample() float64 {
	e.mu.Lock()
	matches := progressPattern.FindAllStringSubmatch(e.captured.String(), -1)
	cb := e.onUpdate
	e.mu.Unlock()

	if len(matches) == 0 {
		return 0
	}

	value, err := strconv.Atoi(matches[len(matches)-1][1])
	if err != nil {
		return 0
	}

	fraction := float64(value) / 100
	if cb != nil {
		cb(fraction)
	}
	return fraction
}

// Stop detaches the extractor from the job output and releases the
// capture. Subsequent writes are discarded.
func (e *Extractor) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopped = true
	e.captured.Reset()
}
