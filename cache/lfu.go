package cache

import (
	"sync"
)

// lfuEntry tracks a value with its access frequency and last-access tick.
type lfuEntry[K comparable, V any] struct {
	key   K
	value V
	freq  int
	last  uint64
}

// LFU is a fixed-capacity cache that evicts the least frequently used
// entry on overflow, breaking frequency ties by evicting the entry with
// the oldest access. The recency tie-break keeps one-shot entries from
// pinning themselves against a stream of equally cold newcomers.
//
// Last-access ordering uses a per-cache monotonic tick instead of the
// clock, so two accesses can never collide on a coarse timestamp. Victim
// selection is a linear scan over all entries; this is intended for small
// caches where O(n) eviction is cheaper than maintaining frequency
// buckets.
type LFU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]*lfuEntry[K, V]
	tick     uint64

	stats counters
	cfg   config
}

// NewLFU creates an LFU cache. A non-positive capacity is clamped to 1.
func NewLFU[K comparable, V any](capacity int, opts ...Option) *LFU[K, V] {
	c := &LFU[K, V]{
		capacity: max(minCapacity, capacity),
		items:    make(map[K]*lfuEntry[K, V]),
	}

	for _, opt := range opts {
		opt(&c.cfg)
	}

	return c
}

// Get retrieves the value for key, incrementing its access frequency and
// refreshing its last-access time.
func (c *LFU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.items[key]
	if !exists {
		c.stats.misses++
		c.cfg.miss()
		return *new(V), false
	}

	c.touch(entry)
	c.stats.hits++
	c.cfg.hit()

	return entry.value, true
}

// Put inserts or updates the value for key. An update counts as an access.
// Inserting a new key at capacity first evicts the entry with the lowest
// frequency, ties broken by the oldest access.
func (c *LFU[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.items[key]; exists {
		entry.value = value
		c.touch(entry)
		return
	}

	if len(c.items) >= c.capacity {
		c.evict()
	}

	c.tick++
	c.items[key] = &lfuEntry[K, V]{
		key:   key,
		value: value,
		freq:  1,
		last:  c.tick,
	}

	c.cfg.size(len(c.items))
}

// touch records an access. Caller must hold c.mu.
func (c *LFU[K, V]) touch(entry *lfuEntry[K, V]) {
	c.tick++
	entry.freq++
	entry.last = c.tick
}

// evict removes the least frequently used entry, ties broken by oldest
// access. Caller must hold c.mu.
func (c *LFU[K, V]) evict() {
	var victim *lfuEntry[K, V]

	for _, entry := range c.items {
		if victim == nil ||
			entry.freq < victim.freq ||
			(entry.freq == victim.freq && entry.last < victim.last) {
			victim = entry
		}
	}

	if victim != nil {
		delete(c.items, victim.key)
		c.stats.evictions++
		c.cfg.eviction()
	}
}

// Len returns the number of entries currently cached.
func (c *LFU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}

// Capacity returns the configured capacity.
func (c *LFU[K, V]) Capacity() int {
	return c.capacity
}

// Frequency returns the current access frequency for key, or zero if the
// key is not cached. Reading the frequency does not count as an access.
func (c *LFU[K, V]) Frequency(key K) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.items[key]; exists {
		return entry.freq
	}

	return 0
}

// Stats returns a snapshot of the cache counters.
func (c *LFU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stats.snapshot(len(c.items), c.capacity)
}
