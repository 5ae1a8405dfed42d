package cache

import (
	"container/list"
	"sync"
	"time"
)

// minTTL is the floor applied to non-positive TTLs.
const minTTL = time.Millisecond

// ttlItem is a single entry in the recency list, stamped with its write
// time.
type ttlItem[K comparable, V any] struct {
	key       K
	value     V
	writtenAt time.Time
}

// TTL is a fixed-capacity cache where every entry expires a fixed duration
// after it was written. Expiry is lazy: an expired entry is detected and
// removed by the Get that observes it, not by a background sweep. Capacity
// overflow on Put evicts the least recently used entry, so the two eviction
// triggers are independent: time-based at read time, size-based at write
// time.
type TTL[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List // front = most recently used
	items    map[K]*list.Element

	stats  counters
	cfg    config
	mirror *mirror

	now func() time.Time
}

// NewTTL creates a TTL cache. A non-positive capacity is clamped to 1 and a
// non-positive ttl to 1ms.
func NewTTL[K comparable, V any](capacity int, ttl time.Duration, opts ...Option) *TTL[K, V] {
	c := &TTL[K, V]{
		capacity: max(minCapacity, capacity),
		ttl:      max(minTTL, ttl),
		order:    list.New(),
		items:    make(map[K]*list.Element),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(&c.cfg)
	}

	return c
}

// Get retrieves the value for key. An entry whose age exceeds the TTL is
// removed and reported as a miss. A live entry is promoted to most recently
// used. When a NATS mirror is configured, a local miss falls through to the
// mirror bucket.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()

	elem, exists := c.items[key]
	if exists {
		item := elem.Value.(*ttlItem[K, V])

		if c.now().Sub(item.writtenAt) > c.ttl {
			c.order.Remove(elem)
			delete(c.items, key)
			c.stats.expirations++
			c.stats.misses++
			c.cfg.expiration()
			c.cfg.miss()
			c.cfg.size(len(c.items))
		} else {
			c.order.MoveToFront(elem)
			c.stats.hits++
			c.cfg.hit()
			value := item.value
			c.mu.Unlock()
			return value, true
		}
	} else {
		c.stats.misses++
		c.cfg.miss()
	}

	c.mu.Unlock()

	// Mirror lookup happens outside the lock; it is network I/O.
	if c.mirror != nil {
		if value, ok := c.mirrorGet(key); ok {
			return value, true
		}
	}

	return *new(V), false
}

// Put stores the value for key with the current write time, promoting it to
// most recently used. Updating an existing key resets its write time.
// Inserting a new key beyond capacity evicts the least recently used entry.
func (c *TTL[K, V]) Put(key K, value V) {
	c.mu.Lock()

	writtenAt := c.now()

	if elem, exists := c.items[key]; exists {
		item := elem.Value.(*ttlItem[K, V])
		item.value = value
		item.writtenAt = writtenAt
		c.order.MoveToFront(elem)
	} else {
		c.items[key] = c.order.PushFront(&ttlItem[K, V]{
			key:       key,
			value:     value,
			writtenAt: writtenAt,
		})

		if c.order.Len() > c.capacity {
			elem := c.order.Back()
			c.order.Remove(elem)
			delete(c.items, elem.Value.(*ttlItem[K, V]).key)
			c.stats.evictions++
			c.cfg.eviction()
		}
	}

	c.cfg.size(len(c.items))
	c.mu.Unlock()

	// Mirror write happens outside the lock; it is network I/O.
	if c.mirror != nil {
		c.mirrorPut(key, value, writtenAt)
	}
}

// Len returns the number of entries currently cached, including entries
// that have expired but have not been observed by a Get yet.
func (c *TTL[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}

// Capacity returns the configured capacity.
func (c *TTL[K, V]) Capacity() int {
	return c.capacity
}

// TTLDuration returns the configured per-entry TTL.
func (c *TTL[K, V]) TTLDuration() time.Duration {
	return c.ttl
}

// Stats returns a snapshot of the cache counters.
func (c *TTL[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stats.snapshot(len(c.items), c.capacity)
}

// Close releases the NATS mirror connection if one is configured.
func (c *TTL[K, V]) Close() error {
	if c.mirror == nil {
		return nil
	}

	return c.mirror.close()
}
