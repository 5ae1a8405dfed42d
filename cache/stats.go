package cache

// Stats represents a point-in-time snapshot of cache counters.
type Stats struct {
	Hits        uint64 // Lookups that found a live entry
	Misses      uint64 // Lookups that found nothing or an expired entry
	Evictions   uint64 // Entries removed by capacity pressure
	Expirations uint64 // Entries removed by TTL expiry
	Size        int    // Current number of entries
	Capacity    int    // Configured capacity
}

// counters holds the running counts. Guarded by the owning cache's mutex.
type counters struct {
	hits        uint64
	misses      uint64
	evictions   uint64
	expirations uint64
}

func (c counters) snapshot(size, capacity int) Stats {
	return Stats{
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
		Size:        size,
		Capacity:    capacity,
	}
}
