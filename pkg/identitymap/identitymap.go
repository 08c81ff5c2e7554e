// Package identitymap provides the process-wide entity caches keyed by
// snowflake. Each entity package owns one Map (users, guilds, teams,
// scheduled events) so that every parse of the same id resolves through a
// single table.
package identitymap

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hata-go/hata/internal/domain/shared"
)

// DefaultCapacity bounds a map created with a non-positive size.
const DefaultCapacity = 100_000

// Map is a bounded identity map. The least recently used entries are
// evicted once the capacity is reached.
type Map[T any] struct {
	name string

	mu    sync.Mutex
	cache *lru.Cache[shared.Snowflake, T]
}

// New creates a map holding at most size entries.
func New[T any](name string, size int) *Map[T] {
	if size <= 0 {
		size = DefaultCapacity
	}
	cache, err := lru.New[shared.Snowflake, T](size)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}
	return &Map[T]{name: name, cache: cache}
}

// Name returns the cache name, e.g. "USERS".
func (m *Map[T]) Name() string {
	return m.name
}

// Get returns the entity and marks it recently used.
func (m *Map[T]) Get(id shared.Snowflake) (T, bool) {
	return m.cache.Get(id)
}

// Peek returns the entity without touching its recency.
func (m *Map[T]) Peek(id shared.Snowflake) (T, bool) {
	return m.cache.Peek(id)
}

// Contains reports whether id is cached.
func (m *Map[T]) Contains(id shared.Snowflake) bool {
	return m.cache.Contains(id)
}

// Upsert stores value under id and returns the entity it replaced.
func (m *Map[T]) Upsert(id shared.Snowflake, value T) (previous T, existed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	previous, existed = m.cache.Peek(id)
	m.cache.Add(id, value)
	return previous, existed
}

// GetOrCreate returns the cached entity, or stores and returns create().
// The boolean is true when the entity was created.
func (m *Map[T]) GetOrCreate(id shared.Snowflake, create func() T) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if value, ok := m.cache.Get(id); ok {
		return value, false
	}
	value := create()
	m.cache.Add(id, value)
	return value, true
}

// Remove drops id from the map.
func (m *Map[T]) Remove(id shared.Snowflake) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.Remove(id)
}

// Len returns the number of cached entities.
func (m *Map[T]) Len() int {
	return m.cache.Len()
}

// Keys returns the cached ids from oldest to newest.
func (m *Map[T]) Keys() []shared.Snowflake {
	return m.cache.Keys()
}

// Values returns the cached entities from oldest to newest.
func (m *Map[T]) Values() []T {
	return m.cache.Values()
}

// Purge empties the map.
func (m *Map[T]) Purge() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Purge()
}

// Resize changes the capacity and returns how many entries were evicted.
func (m *Map[T]) Resize(size int) int {
	if size <= 0 {
		size = DefaultCapacity
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.Resize(size)
}
