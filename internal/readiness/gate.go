package readiness

import (
	"sync"
	"time"
)

// Gate is a one-shot latch marking completion of the heavy model
// initialization. The job worker blocks on it with a bounded timeout, so a
// waiter can always observe shutdown instead of hanging forever.
type Gate struct {
	mu     sync.Mutex
	set    bool
	closed bool
	ch     chan struct{}
}

// NewGate returns an unsignaled gate.
func NewGate() *Gate {
	return &Gate{ch: make(chan struct{})}
}

// Signal sets the latch and wakes all current and future waiters.
// Safe to call more than once; only the first call has an effect.
func (g *Gate) Signal() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.set || g.closed {
		return
	}
	g.set = true
	close(g.ch)
}

// Wait reports whether the latch was set within timeout.
func (g *Gate) Wait(timeout time.Duration) bool {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return false
	}
	if g.set {
		g.mu.Unlock()
		return true
	}
	ch := g.ch
	g.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ch:
		return g.IsSet()
	case <-timer.C:
		return false
	}
}

// IsSet is a non-blocking readiness poll.
func (g *Gate) IsSet() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.set && !g.closed
}

// Reset permanently marks the gate not ready and unblocks every waiter.
// Used only at shutdown; after Reset, Wait returns false promptly and
// Signal has no effect.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	g.closed = true
	if !g.set {
		close(g.ch)
	}
	g.set = false
}
