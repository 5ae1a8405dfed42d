// Package limiter provides admission-control primitives: a token bucket
// rate limiter, a per-key bucket map with idle cleanup, a circuit breaker,
// and HTTP middleware for applying rate limits to incoming requests.
package limiter

import (
	"math"
	"sync"
	"time"
)

const (
	// minRate is the floor applied to non-positive refill rates so a bucket
	// can never be permanently empty.
	minRate = 0.0001

	// minBurst is the floor applied to non-positive burst capacities.
	minBurst = 1
)

// Bucket is a token bucket rate limiter. Tokens accumulate at a fixed rate
// up to the burst capacity; each TryAcquire consumes one token. Refill is
// computed lazily on each call rather than by a background timer.
//
// All methods are safe for concurrent use.
type Bucket struct {
	mu     sync.Mutex
	rate   float64   // tokens added per second
	burst  int       // maximum tokens held
	tokens float64   // current tokens, 0 <= tokens <= burst
	last   time.Time // last refill time

	// now is the time source. time.Time carries a monotonic reading, so
	// subtraction is immune to wall-clock adjustments. Overridable in tests.
	now func() time.Time
}

// NewBucket creates a token bucket that refills at ratePerSecond tokens per
// second up to a capacity of burst tokens. Non-positive arguments are
// clamped to safe minimums rather than rejected. The bucket starts full.
func NewBucket(ratePerSecond float64, burst int) *Bucket {
	b := &Bucket{
		rate:  math.Max(minRate, ratePerSecond),
		burst: max(minBurst, burst),
		now:   time.Now,
	}
	b.tokens = float64(b.burst)
	b.last = b.now()

	return b
}

// TryAcquire attempts to consume one token. It returns true if a token was
// available and consumed, false if the caller should be rejected. Rejection
// has no side effect beyond the refill bookkeeping.
func (b *Bucket) TryAcquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(b.now())

	if b.tokens >= 1.0 {
		b.tokens--
		return true
	}

	return false
}

// refill adds tokens for the time elapsed since the last refill, capped at
// the burst capacity. Caller must hold b.mu.
func (b *Bucket) refill(now time.Time) {
	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(float64(b.burst), b.tokens+elapsed*b.rate)
	}
	b.last = now
}

// Tokens returns the current token count after applying any pending refill.
func (b *Bucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(b.now())

	return b.tokens
}

// NextToken returns how long until at least one token is available. It
// returns zero if a token is available now.
func (b *Bucket) NextToken() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(b.now())

	if b.tokens >= 1.0 {
		return 0
	}

	missing := 1.0 - b.tokens

	return time.Duration(missing / b.rate * float64(time.Second))
}

// Rate returns the configured refill rate in tokens per second.
func (b *Bucket) Rate() float64 {
	return b.rate
}

// Burst returns the configured burst capacity.
func (b *Bucket) Burst() int {
	return b.burst
}
