package limiter

import (
	"sync"
	"time"
)

const (
	defaultIdleTimeout     = 5 * time.Minute
	defaultCleanupInterval = time.Minute
)

// Keyed maintains an independent token bucket per key (user ID, client IP,
// API key). Buckets for keys that have been idle longer than the idle
// timeout are removed by a background cleanup routine.
type Keyed struct {
	mu      sync.Mutex
	buckets map[string]*keyedBucket

	rate            float64
	burst           int
	idleTimeout     time.Duration
	cleanupInterval time.Duration
	metrics         *Metrics

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// keyedBucket pairs a bucket with its last-seen time. lastSeen is guarded
// by Keyed.mu, not by the bucket's own lock.
type keyedBucket struct {
	bucket   *Bucket
	lastSeen time.Time
}

// KeyedOption configures a Keyed limiter.
type KeyedOption func(*Keyed)

// WithIdleTimeout sets how long a key may be idle before its bucket is
// removed. Removing an idle bucket is equivalent to a full bucket, since an
// idle period of at least burst/rate seconds refills it completely.
func WithIdleTimeout(d time.Duration) KeyedOption {
	return func(k *Keyed) {
		if d > 0 {
			k.idleTimeout = d
		}
	}
}

// WithCleanupInterval sets how often idle buckets are reaped.
func WithCleanupInterval(d time.Duration) KeyedOption {
	return func(k *Keyed) {
		if d > 0 {
			k.cleanupInterval = d
		}
	}
}

// WithMetrics attaches Prometheus metrics to the limiter.
func WithMetrics(m *Metrics) KeyedOption {
	return func(k *Keyed) {
		k.metrics = m
	}
}

// NewKeyed creates a keyed limiter where every key gets a token bucket with
// the given rate and burst. Non-positive rate and burst are clamped the
// same way NewBucket clamps them.
func NewKeyed(ratePerSecond float64, burst int, opts ...KeyedOption) *Keyed {
	k := &Keyed{
		buckets:         make(map[string]*keyedBucket),
		rate:            ratePerSecond,
		burst:           burst,
		idleTimeout:     defaultIdleTimeout,
		cleanupInterval: defaultCleanupInterval,
		stopChan:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(k)
	}

	k.wg.Add(1)
	go k.cleanupRoutine()

	return k
}

// Allow reports whether a request for the given key is admitted, consuming
// one token from the key's bucket.
func (k *Keyed) Allow(key string) bool {
	b := k.bucket(key)

	allowed := b.TryAcquire()

	if k.metrics != nil {
		if allowed {
			k.metrics.allowed.WithLabelValues("keyed").Inc()
		} else {
			k.metrics.rejected.WithLabelValues("keyed").Inc()
		}
	}

	return allowed
}

// NextAllow returns how long the given key must wait before its next
// request will be admitted. It returns zero if a request would be admitted
// now or the key has no bucket yet.
func (k *Keyed) NextAllow(key string) time.Duration {
	k.mu.Lock()
	kb, exists := k.buckets[key]
	k.mu.Unlock()

	if !exists {
		return 0
	}

	return kb.bucket.NextToken()
}

// Len returns the number of tracked keys.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	return len(k.buckets)
}

// Close stops the cleanup routine. The limiter remains usable afterwards,
// but idle buckets are no longer reaped.
func (k *Keyed) Close() {
	close(k.stopChan)
	k.wg.Wait()
}

// bucket returns the bucket for key, creating it on first use.
func (k *Keyed) bucket(key string) *Bucket {
	k.mu.Lock()
	defer k.mu.Unlock()

	kb, exists := k.buckets[key]
	if !exists {
		kb = &keyedBucket{bucket: NewBucket(k.rate, k.burst)}
		k.buckets[key] = kb
	}
	kb.lastSeen = time.Now()

	if k.metrics != nil {
		k.metrics.keys.WithLabelValues("keyed").Set(float64(len(k.buckets)))
	}

	return kb.bucket
}

// cleanupRoutine periodically removes buckets for idle keys.
func (k *Keyed) cleanupRoutine() {
	defer k.wg.Done()

	ticker := time.NewTicker(k.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-k.stopChan:
			return
		case <-ticker.C:
			k.mu.Lock()
			now := time.Now()
			for key, kb := range k.buckets {
				if now.Sub(kb.lastSeen) > k.idleTimeout {
					delete(k.buckets, key)
				}
			}
			if k.metrics != nil {
				k.metrics.keys.WithLabelValues("keyed").Set(float64(len(k.buckets)))
			}
			k.mu.Unlock()
		}
	}
}
