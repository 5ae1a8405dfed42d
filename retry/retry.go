// Package retry provides retry execution with configurable backoff.
//
// A Backoff maps an attempt number to a wait duration. Do runs a function
// until it succeeds, the attempt budget is exhausted, or the context is
// canceled.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// ErrMaxAttempts is returned by Do when the attempt budget runs out. The
// last attempt's error is attached via wrapping.
var ErrMaxAttempts = errors.New("retry: max attempts reached")

// Backoff computes the wait before retrying a failed attempt. The attempt
// number starts at 1 for the first retry.
type Backoff func(attempt int) time.Duration

// Fixed waits the same duration between every attempt.
func Fixed(d time.Duration) Backoff {
	return func(int) time.Duration {
		return d
	}
}

// Exponential doubles the wait on every attempt, capped at max.
func Exponential(base, max time.Duration) Backoff {
	return func(attempt int) time.Duration {
		d := time.Duration(float64(base) * math.Pow(2, float64(attempt-1)))
		if d > max || d <= 0 {
			return max
		}
		return d
	}
}

// ExponentialJitter is Exponential with full jitter. The wait is drawn
// uniformly from [0, d) where d is the exponential wait, which spreads out
// retry storms from concurrent clients.
func ExponentialJitter(base, max time.Duration) Backoff {
	exp := Exponential(base, max)
	return func(attempt int) time.Duration {
		d := exp(attempt)
		if d <= 0 {
			return 0
		}
		return time.Duration(rand.Int63n(int64(d)))
	}
}

type config struct {
	maxAttempts int
	backoff     Backoff
	timeout     time.Duration
	onRetry     func(attempt int, err error)
}

// Option configures Do.
type Option func(*config)

// WithMaxAttempts limits the total number of attempts (default 3).
func WithMaxAttempts(n int) Option {
	return func(cfg *config) {
		cfg.maxAttempts = n
	}
}

// WithBackoff sets the wait strategy between attempts (default 100ms fixed).
func WithBackoff(b Backoff) Option {
	return func(cfg *config) {
		cfg.backoff = b
	}
}

// WithTimeout bounds the total time spent across all attempts, including
// waits.
func WithTimeout(d time.Duration) Option {
	return func(cfg *config) {
		cfg.timeout = d
	}
}

// WithOnRetry registers a callback invoked after each failed attempt,
// before the backoff wait.
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(cfg *config) {
		cfg.onRetry = fn
	}
}

// Do runs fn until it returns nil. Failed attempts wait per the backoff
// before retrying. Do returns nil on success, a context error if the
// context ends first, or ErrMaxAttempts wrapping the last attempt error.
func Do(ctx context.Context, fn func(ctx context.Context) error, opts ...Option) error {
	cfg := config{
		maxAttempts: 3,
		backoff:     Fixed(100 * time.Millisecond),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxAttempts < 1 {
		cfg.maxAttempts = 1
	}

	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == cfg.maxAttempts {
			break
		}

		if cfg.onRetry != nil {
			cfg.onRetry(attempt, lastErr)
		}

		if err := sleep(ctx, cfg.backoff(attempt)); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrMaxAttempts, cfg.maxAttempts, lastErr)
}

// sleep waits for d or until the context ends, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
