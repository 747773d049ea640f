package utils

import (
	"sync"
	"time"
)

// TTLMap provides a thread-safe map with expiring entries. The decision
// cache uses it as the once-per-id idempotency store: writes for a key
// that already exists overwrite with an identical value, so concurrent
// writers need no coordination beyond the lock.
type TTLMap[K comparable, V any] struct {
	mu      sync.RWMutex
	data    map[K]V
	expires map[K]time.Time
	ttl     time.Duration
}

// NewTTLMap creates a new TTLMap with the specified TTL duration.
func NewTTLMap[K comparable, V any](ttl time.Duration) *TTLMap[K, V] {
	m := &TTLMap[K, V]{
		data:    make(map[K]V),
		expires: make(map[K]time.Time),
		ttl:     ttl,
	}

	go m.cleanup()

	return m
}

// Get retrieves a value from the map.
// Returns the value and whether it exists/is valid.
func (m *TTLMap[K, V]) Get(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, exists := m.data[key]
	if !exists {
		var zero V
		return zero, false
	}

	if time.Now().After(m.expires[key]) {
		var zero V
		return zero, false
	}

	return value, true
}

// Set adds or updates a value in the map.
func (m *TTLMap[K, V]) Set(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
	m.expires[key] = time.Now().Add(m.ttl)
}

// SetIfAbsent stores the value only when the key has no live entry,
// returning the value that ended up in the map. This is the idempotent
// write path for decision caching.
func (m *TTLMap[K, V]) SetIfAbsent(key K, value V) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.data[key]; ok && time.Now().Before(m.expires[key]) {
		return existing, false
	}

	m.data[key] = value
	m.expires[key] = time.Now().Add(m.ttl)

	return value, true
}

// Delete removes a key from the map.
func (m *TTLMap[K, V]) Delete(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	delete(m.expires, key)
}

// Len returns the number of live entries.
func (m *TTLMap[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	count := 0

	for key := range m.data {
		if now.Before(m.expires[key]) {
			count++
		}
	}

	return count
}

// cleanup periodically removes expired entries.
func (m *TTLMap[K, V]) cleanup() {
	ticker := time.NewTicker(m.ttl)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.Lock()

		now := time.Now()
		for key, expires := range m.expires {
			if now.After(expires) {
				delete(m.data, key)
				delete(m.expires, key)
			}
		}

		m.mu.Unlock()
	}
}
