package limiter

import (
	"sync"
	"testing"
	"time"
)

func TestKeyedIndependentBuckets(t *testing.T) {
	k := NewKeyed(1.0, 2)
	defer k.Close()

	// Draining one key must not affect another.
	if !k.Allow("alice") || !k.Allow("alice") {
		t.Fatal("alice's bucket should start full")
	}
	if k.Allow("alice") {
		t.Error("alice's bucket should be empty")
	}

	if !k.Allow("bob") {
		t.Error("bob's bucket should be unaffected")
	}
}

func TestKeyedNextAllow(t *testing.T) {
	k := NewKeyed(10.0, 1)
	defer k.Close()

	if got := k.NextAllow("unknown"); got != 0 {
		t.Errorf("NextAllow() = %v for untracked key, want 0", got)
	}

	k.Allow("alice")

	if got := k.NextAllow("alice"); got <= 0 || got > 100*time.Millisecond {
		t.Errorf("NextAllow() = %v, want in (0, 100ms]", got)
	}
}

func TestKeyedCleanup(t *testing.T) {
	k := NewKeyed(10.0, 1,
		WithIdleTimeout(10*time.Millisecond),
		WithCleanupInterval(5*time.Millisecond),
	)
	defer k.Close()

	k.Allow("alice")
	k.Allow("bob")

	if got := k.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}

	deadline := time.Now().Add(time.Second)
	for k.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if got := k.Len(); got != 0 {
		t.Errorf("Len() = %d after idle timeout, want 0", got)
	}
}

func TestKeyedConcurrency(t *testing.T) {
	k := NewKeyed(1000.0, 50)
	defer k.Close()

	const numGoroutines = 50

	keys := []string{"a", "b", "c", "d"}

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				k.Allow(keys[(i+j)%len(keys)])
			}
		}(i)
	}

	wg.Wait()

	if got := k.Len(); got != len(keys) {
		t.Errorf("Len() = %d, want %d", got, len(keys))
	}
}
