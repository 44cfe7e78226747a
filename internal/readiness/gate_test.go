package readiness

import (
	"sync"
	"testing"
	"time"
)

// TestGateWaitBeforeSignalTimesOut checks the unsignaled gate never
// reports readiness.
func TestGateWaitBeforeSignalTimesOut(t *testing.T) {
	g := NewGate()
	if g.IsSet() {
		t.Fatal("new gate should not be set")
	}

	start := time.Now()
	if g.Wait(20 * time.Millisecond) {
		t.Fatal("wait before signal should return false")
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("wait returned after %v, want at least the timeout", elapsed)
	}
}

// TestGateSignalWakesAllWaiters checks current and future waiters see
// readiness after one signal.
func TestGateSignalWakesAllWaiters(t *testing.T) {
	g := NewGate()

	var wg sync.WaitGroup
	results := make(chan bool, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- g.Wait(time.Second)
		}()
	}

	g.Signal()
	wg.Wait()
	close(results)
	for got := range results {
		if !got {
			t.Fatal("waiter should observe the signal")
		}
	}

	// A waiter arriving after the signal returns immediately.
	if !g.Wait(time.Millisecond) {
		t.Fatal("wait after signal should return true")
	}
	if !g.IsSet() {
		t.Fatal("IsSet after signal should be true")
	}
}

// TestGateSignalIdempotent checks repeated signals are harmless no-ops.
func TestGateSignalIdempotent(t *testing.T) {
	g := NewGate()
	g.Signal()
	g.Signal()
	g.Signal()

	if !g.IsSet() {
		t.Fatal("gate should stay set")
	}
}

// TestGateResetUnblocksWaiters checks shutdown wakes a blocked waiter
// promptly with a negative answer.
func TestGateResetUnblocksWaiters(t *testing.T) {
	g := NewGate()

	done := make(chan bool, 1)
	go func() {
		done <- g.Wait(5 * time.Second)
	}()

	time.Sleep(10 * time.Millisecond)
	g.Reset()

	select {
	case got := <-done:
		if got {
			t.Fatal("wait should return false after reset")
		}
	case <-time.After(time.Second):
		t.Fatal("reset did not unblock the waiter")
	}

	if g.Wait(time.Millisecond) {
		t.Fatal("wait after reset should return false")
	}
}

// TestGateSignalAfterResetIgnored checks a reset gate can never open.
func TestGateSignalAfterResetIgnored(t *testing.T) {
	g := NewGate()
	g.Reset()
	g.Signal()

	if g.IsSet() {
		t.Fatal("signal after reset should have no effect")
	}
	if g.Wait(time.Millisecond) {
		t.Fatal("wait after reset should return false")
	}
}

// TestGateResetAfterSignal checks reset revokes readiness at shutdown.
func TestGateResetAfterSignal(t *testing.T) {
	g := NewGate()
	g.Signal()
	g.Reset()

	if g.IsSet() {
		t.Fatal("gate should not be set after reset")
	}
	if g.Wait(time.Millisecond) {
		t.Fatal("wait should return false after reset")
	}
}
