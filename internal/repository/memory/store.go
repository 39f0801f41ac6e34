package memory

import "sync"

// Store is a keyed collection with get/put/delete/iterate.
type Store[V any] interface {
	Get(key string) (V, bool)
	Put(key string, value V)
	Delete(key string) bool
	Range(fn func(key string, value V) bool)
	Len() int
}

type store[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

// NewStore - a concurrency-safe in-memory Store.
func NewStore[V any]() Store[V] {
	return &store[V]{
		items: make(map[string]V),
	}
}

func (that *store[V]) Get(key string) (V, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	value, ok := that.items[key]

	return value, ok
}

func (that *store[V]) Put(key string, value V) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.items[key] = value
}

func (that *store[V]) Delete(key string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.items[key]; !ok {
		return false
	}

	delete(that.items, key)

	return true
}

// Range - iterates over a snapshot, fn returning false stops the iteration.
func (that *store[V]) Range(fn func(key string, value V) bool) {
	that.mu.RLock()
	snapshot := make(map[string]V, len(that.items))
	for key, value := range that.items {
		snapshot[key] = value
	}
	that.mu.RUnlock()

	for key, value := range snapshot {
		if !fn(key, value) {
			return
		}
	}
}

func (that *store[V]) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.items)
}
