package progress

import (
	"sync"
	"time"
)

// defaultInterval bounds how often the UI callback can fire.
const defaultInterval = 50 * time.Millisecond

// Monitor periodically samples the extractor attached to the currently
// running job and republishes the latest fraction to a UI-facing callback.
// It decouples scraping cadence from job execution: the job writes output
// at its own pace while the monitor forwards at a fixed interval.
//
// The monitor never owns or creates extractors; with none attached a tick
// is a no-op.
type Monitor struct {
	interval   time.Duration
	onProgress func(fraction float64)

	mu      sync.Mutex
	current *Extractor

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewMonitor creates a monitor forwarding samples to onProgress every
// interval. Non-positive intervals fall back to the default.
func NewMonitor(interval time.Duration, onProgress func(fraction float64)) *Monitor {
	if interval <= 0 {
		interval = defaultInterval
	}

	return &Monitor{
		interval:   interval,
		onProgress: onProgress,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Attach makes extractor the sampling target for the running job.
func (m *Monitor) Attach(e *Extractor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = e
}

// Detach clears the sampling target when a job ends.
func (m *Monitor) Detach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
}

// Start launches the sampling loop in its own goroutine.
func (m *Monitor) Start() {
	go m.run()
}

// Stop terminates the sampling loop and waits for it to exit.
// Safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done
}

// run samples the attached extractor on every tick until stopped.
func (m *Monitor) run() {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.mu.Lock()
			current := m.current
			m.mu.Unlock()

			if current == nil {
				continue
			}
			fraction := current.Sample()
			if m.onProgress != nil {
				m.onProgress(fraction)
			}
		}
	}
}
