package limiter

import (
	"testing"
	"time"
)

func newTestBreaker(cfg BreakerConfig, clock *fakeClock) *CircuitBreaker {
	cb := NewCircuitBreaker(cfg)
	cb.now = clock.now
	return cb
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(BreakerConfig{MaxFailures: 3}, clock)

	for i := 0; i < 2; i++ {
		cb.Failure()
		if !cb.Allow() {
			t.Fatalf("circuit opened after %d failures, want threshold 3", i+1)
		}
	}

	cb.Failure()

	if cb.Allow() {
		t.Error("circuit should be open after 3 failures")
	}
	if got := cb.State(); got != BreakerOpen {
		t.Errorf("State() = %v, want BreakerOpen", got)
	}
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(BreakerConfig{MaxFailures: 1, ResetTimeout: time.Second}, clock)

	cb.Failure()
	if cb.Allow() {
		t.Fatal("circuit should be open")
	}

	clock.advance(2 * time.Second)

	// First caller after the reset timeout gets the probe.
	if !cb.Allow() {
		t.Fatal("expected probe to be admitted after reset timeout")
	}
	if got := cb.State(); got != BreakerHalfOpen {
		t.Fatalf("State() = %v, want BreakerHalfOpen", got)
	}

	// Concurrent callers must not get a second probe.
	if cb.Allow() {
		t.Error("second probe admitted while first is outstanding")
	}

	cb.Success()

	if got := cb.State(); got != BreakerClosed {
		t.Errorf("State() = %v after probe success, want BreakerClosed", got)
	}
	if !cb.Allow() {
		t.Error("closed circuit should admit requests")
	}
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(BreakerConfig{MaxFailures: 2, ResetTimeout: time.Second}, clock)

	cb.Failure()
	cb.Failure()
	clock.advance(2 * time.Second)

	if !cb.Allow() {
		t.Fatal("expected probe to be admitted")
	}

	cb.Failure()

	if got := cb.State(); got != BreakerOpen {
		t.Errorf("State() = %v after failed probe, want BreakerOpen", got)
	}
}

func TestBreakerReset(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(BreakerConfig{MaxFailures: 1}, clock)

	cb.Failure()
	cb.Reset()

	if got := cb.State(); got != BreakerClosed {
		t.Errorf("State() = %v after Reset, want BreakerClosed", got)
	}
	if !cb.Allow() {
		t.Error("reset circuit should admit requests")
	}
}
