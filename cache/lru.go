// Package cache provides generic bounded in-memory caches with three
// eviction policies: LRU (least recently used), TTL (per-entry expiry
// layered on LRU overflow eviction), and LFU (least frequently used with
// recency tie-break). Caches support optional MessagePack/Brotli snapshot
// persistence, NATS JetStream KeyValue mirroring, and Prometheus metrics.
package cache

import (
	"container/list"
	"sync"
)

// minCapacity is the floor applied to non-positive capacities.
const minCapacity = 1

// Option configures optional cache behavior.
type Option func(*config)

type config struct {
	metrics *Metrics
	name    string
}

// WithMetrics attaches Prometheus metrics to a cache. The name is used as
// the metric label so multiple caches can share one Metrics instance.
func WithMetrics(m *Metrics, name string) Option {
	return func(c *config) {
		c.metrics = m
		c.name = name
	}
}

// lruItem is a single entry in the recency list.
type lruItem[K comparable, V any] struct {
	key   K
	value V
}

// LRU is a fixed-capacity cache that evicts the least recently used entry
// on overflow. Any Get or Put on an existing key promotes it to most
// recently used. All methods are safe for concurrent use; Get takes the
// exclusive lock because it mutates recency order.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recently used
	items    map[K]*list.Element

	stats counters
	cfg   config
}

// NewLRU creates an LRU cache. A non-positive capacity is clamped to 1.
func NewLRU[K comparable, V any](capacity int, opts ...Option) *LRU[K, V] {
	c := &LRU[K, V]{
		capacity: max(minCapacity, capacity),
		order:    list.New(),
		items:    make(map[K]*list.Element),
	}

	for _, opt := range opts {
		opt(&c.cfg)
	}

	return c
}

// Get retrieves the value for key, promoting it to most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.items[key]
	if !exists {
		c.stats.misses++
		c.cfg.miss()
		return *new(V), false
	}

	c.order.MoveToFront(elem)
	c.stats.hits++
	c.cfg.hit()

	return elem.Value.(*lruItem[K, V]).value, true
}

// Put inserts or updates the value for key, promoting it to most recently
// used. Inserting a new key beyond capacity evicts the least recently used
// entry.
func (c *LRU[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[key]; exists {
		elem.Value.(*lruItem[K, V]).value = value
		c.order.MoveToFront(elem)
		return
	}

	c.items[key] = c.order.PushFront(&lruItem[K, V]{key: key, value: value})

	if c.order.Len() > c.capacity {
		c.evictOldest()
	}

	c.cfg.size(c.order.Len())
}

// evictOldest removes the least recently used entry. Caller must hold c.mu.
func (c *LRU[K, V]) evictOldest() {
	elem := c.order.Back()
	if elem == nil {
		return
	}

	c.order.Remove(elem)
	delete(c.items, elem.Value.(*lruItem[K, V]).key)
	c.stats.evictions++
	c.cfg.eviction()
}

// Len returns the number of entries currently cached.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}

// Capacity returns the configured capacity.
func (c *LRU[K, V]) Capacity() int {
	return c.capacity
}

// Keys returns all cached keys ordered from most to least recently used.
func (c *LRU[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, len(c.items))
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*lruItem[K, V]).key)
	}

	return keys
}

// Stats returns a snapshot of the cache counters.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stats.snapshot(len(c.items), c.capacity)
}
