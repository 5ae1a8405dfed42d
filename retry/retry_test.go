package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0

	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})

	if err != nil {
		t.Fatalf("Do() error = %v, want nil", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0

	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, WithMaxAttempts(5), WithBackoff(Fixed(time.Millisecond)))

	if err != nil {
		t.Fatalf("Do() error = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoMaxAttempts(t *testing.T) {
	wantErr := errors.New("permanent")
	calls := 0

	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return wantErr
	}, WithMaxAttempts(3), WithBackoff(Fixed(0)))

	if !errors.Is(err, ErrMaxAttempts) {
		t.Errorf("Do() error = %v, want ErrMaxAttempts", err)
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("Do() error = %v should wrap the last attempt error", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	}, WithMaxAttempts(10), WithBackoff(Fixed(time.Hour)))

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoTimeout(t *testing.T) {
	start := time.Now()

	err := Do(context.Background(), func(ctx context.Context) error {
		return errors.New("transient")
	}, WithMaxAttempts(100), WithBackoff(Fixed(20*time.Millisecond)), WithTimeout(50*time.Millisecond))

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Do() error = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Do() took %v, want well under the attempt budget", elapsed)
	}
}

func TestDoOnRetry(t *testing.T) {
	var attempts []int

	Do(context.Background(), func(ctx context.Context) error { //nolint:errcheck
		return errors.New("transient")
	}, WithMaxAttempts(3), WithBackoff(Fixed(0)), WithOnRetry(func(attempt int, err error) {
		attempts = append(attempts, attempt)
	}))

	// The callback fires after each failed attempt except the last.
	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("onRetry attempts = %v, want [1 2]", attempts)
	}
}

func TestExponentialBackoff(t *testing.T) {
	b := Exponential(100*time.Millisecond, time.Second)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second}, // capped
		{30, time.Second},
	}

	for _, tt := range tests {
		if got := b(tt.attempt); got != tt.want {
			t.Errorf("Exponential(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponentialJitterBounds(t *testing.T) {
	b := ExponentialJitter(100*time.Millisecond, time.Second)

	for attempt := 1; attempt <= 5; attempt++ {
		for i := 0; i < 20; i++ {
			d := b(attempt)
			if d < 0 || d >= time.Second {
				t.Fatalf("ExponentialJitter(%d) = %v, want in [0, 1s)", attempt, d)
			}
		}
	}
}
