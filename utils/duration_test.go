package utils

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDurationUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"standard string", `"1h30m"`, 90 * time.Minute, false},
		{"seconds", `"45s"`, 45 * time.Second, false},
		{"number nanoseconds", `1000000000`, time.Second, false},
		{"days", `"2d"`, 48 * time.Hour, false},
		{"days and hours", `"1d12h"`, 36 * time.Hour, false},
		{"full day format", `"1d2h3m4s"`, 26*time.Hour + 3*time.Minute + 4*time.Second, false},
		{"garbage", `"potato"`, 0, true},
		{"wrong type", `true`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration

			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Unmarshal(%s) error = nil, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", tt.input, err)
			}
			if got := time.Duration(d); got != tt.want {
				t.Errorf("Unmarshal(%s) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDurationMarshal(t *testing.T) {
	d := Duration(90 * time.Minute)

	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if got := string(b); got != `"1h30m0s"` {
		t.Errorf("Marshal() = %s, want %q", got, "1h30m0s")
	}
}

func TestStopwatch(t *testing.T) {
	sw := NewStopwatch()

	time.Sleep(10 * time.Millisecond)

	if got := sw.Elapsed(); got < 10*time.Millisecond {
		t.Errorf("Elapsed() = %v, want >= 10ms", got)
	}

	lap := sw.Lap()
	if lap < 10*time.Millisecond {
		t.Errorf("Lap() = %v, want >= 10ms", lap)
	}

	// The new lap starts fresh.
	if got := sw.Lap(); got > lap {
		t.Errorf("second Lap() = %v, want shorter than first %v", got, lap)
	}

	sw.Restart()
	if got := sw.Elapsed(); got > 10*time.Millisecond {
		t.Errorf("Elapsed() = %v after Restart, want near zero", got)
	}
}
