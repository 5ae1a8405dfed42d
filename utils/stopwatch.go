package utils

import (
	"sync"
	"time"
)

// Stopwatch measures elapsed time with lap support. It uses the monotonic
// clock reading carried by time.Time, so wall clock adjustments do not
// affect measurements. The zero value is unstarted; use NewStopwatch or
// call Restart before reading.
type Stopwatch struct {
	mu      sync.Mutex
	started time.Time
	lastLap time.Time
}

// NewStopwatch returns a running stopwatch.
func NewStopwatch() *Stopwatch {
	now := time.Now()
	return &Stopwatch{started: now, lastLap: now}
}

// Elapsed returns the time since the stopwatch started.
func (s *Stopwatch) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return time.Since(s.started)
}

// Lap returns the time since the previous lap (or start) and begins a new
// lap.
func (s *Stopwatch) Lap() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	d := now.Sub(s.lastLap)
	s.lastLap = now

	return d
}

// Restart resets the start and lap marks to now.
func (s *Stopwatch) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.started = now
	s.lastLap = now
}
