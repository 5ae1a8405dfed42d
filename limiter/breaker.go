package limiter

import (
	"sync"
	"time"
)

// BreakerState represents the state of the circuit breaker.
type BreakerState int

const (
	// BreakerClosed indicates normal operation.
	BreakerClosed BreakerState = iota
	// BreakerOpen indicates the circuit is open and requests fail fast.
	BreakerOpen
	// BreakerHalfOpen indicates the circuit is probing for recovery.
	BreakerHalfOpen
)

// CircuitBreaker implements the circuit breaker pattern. It is the
// failure-driven sibling of the token bucket: instead of admitting work at
// a fixed rate, it stops admitting work after consecutive failures and
// probes periodically for recovery.
type CircuitBreaker struct {
	mu sync.Mutex

	state       BreakerState
	failures    int
	lastFailure time.Time
	probeAt     time.Time

	maxFailures  int
	resetTimeout time.Duration
	probeTimeout time.Duration

	now func() time.Time
}

// BreakerConfig configures a circuit breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before opening.
	MaxFailures int
	// ResetTimeout is how long the circuit stays open before probing.
	ResetTimeout time.Duration
	// ProbeTimeout is how long a half-open probe may be outstanding before
	// another request is let through.
	ProbeTimeout time.Duration
}

// NewCircuitBreaker creates a circuit breaker. Non-positive config values
// fall back to defaults.
func NewCircuitBreaker(config BreakerConfig) *CircuitBreaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 10 * time.Second
	}
	if config.ProbeTimeout <= 0 {
		config.ProbeTimeout = 30 * time.Second
	}

	return &CircuitBreaker{
		state:        BreakerClosed,
		maxFailures:  config.MaxFailures,
		resetTimeout: config.ResetTimeout,
		probeTimeout: config.ProbeTimeout,
		now:          time.Now,
	}
}

// Allow reports whether a request should be attempted. The state transition
// from open to half-open happens here, under the write lock, so concurrent
// callers cannot race the transition.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if cb.now().Sub(cb.lastFailure) > cb.resetTimeout {
			cb.state = BreakerHalfOpen
			cb.probeAt = cb.now()
			return true
		}
		return false
	case BreakerHalfOpen:
		// Only one probe at a time; let another through if the previous
		// probe never reported back.
		if cb.now().Sub(cb.probeAt) > cb.probeTimeout {
			cb.probeAt = cb.now()
			return true
		}
		return false
	default:
		return false
	}
}

// Success records a successful request and closes a half-open circuit.
func (cb *CircuitBreaker) Success() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0

	if cb.state == BreakerHalfOpen {
		cb.state = BreakerClosed
	}
}

// Failure records a failed request, opening the circuit once the failure
// threshold is reached. A failed half-open probe reopens immediately.
func (cb *CircuitBreaker) Failure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = cb.now()

	if cb.state == BreakerHalfOpen || cb.failures >= cb.maxFailures {
		cb.state = BreakerOpen
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

// Reset forces the circuit back to closed and clears the failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = BreakerClosed
	cb.failures = 0
}
