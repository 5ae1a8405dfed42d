// Package safemap provides concurrency safe data types.
package safemap

import "sync"

// Map is a thread-safe map with generic keys and values.
type Map[K comparable, V any] struct {
	mu    *sync.RWMutex
	items map[K]V
}

// New creates and returns a new empty Map instance.
func New[K comparable, V any]() Map[K, V] {
	return Map[K, V]{
		items: make(map[K]V),
		mu:    new(sync.RWMutex),
	}
}

// Get retrieves the value associated with the given key from the map.
// It returns the value and a boolean indicating whether the key was present.
func (m *Map[K, V]) Get(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	val, ok := m.items[key]

	return val, ok
}

// GetOrSet retrieves the value associated with the given key from the map.
// It returns the value and a boolean indicating whether the key was present.
// Only if it is not set yet it will assign the new value.
func (m *Map[K, V]) GetOrSet(key K, val V) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	valN, ok := m.items[key]
	if !ok {
		m.items[key] = val
		return val, false
	}

	return valN, true
}

// GetAll returns a list of all items.
func (m *Map[K, V]) GetAll() []V {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]V, 0, len(m.items))

	for _, item := range m.items {
		out = append(out, item)
	}

	return out
}

// GetMap returns a copy of the internal map.
func (m *Map[K, V]) GetMap() map[K]V {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[K]V, len(m.items))

	for key, value := range m.items {
		out[key] = value
	}

	return out
}

// Set stores the value associated with the given key in the map.
func (m *Map[K, V]) Set(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = value
}

// SetMap replaces the internal map with the provided map.
func (m *Map[K, V]) SetMap(n map[K]V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = n
}

// Delete removes the value associated with the given key from the map.
func (m *Map[K, V]) Delete(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
}

// Length returns the number of key-value pairs in the map.
func (m *Map[K, V]) Length() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.items)
}

// Keys returns a slice of all the keys in the map.
func (m *Map[K, V]) Keys() []K {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]K, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}

	return keys
}
