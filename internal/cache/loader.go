package cache

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Loader is a read-through front for an LRUCache. Every key carries a
// generation that Invalidate bumps. A load only fills the cache when its
// generation is still current, so a write that lands while a read is in
// flight never leaves the old value cached. Concurrent loads of the same
// key and generation share one call.
type Loader[T any] struct {
	lru   *LRUCache[T]
	group singleflight.Group

	mu   sync.Mutex
	gens map[string]uint64
}

func NewLoader[T any](lru *LRUCache[T]) *Loader[T] {
	return &Loader[T]{lru: lru, gens: make(map[string]uint64)}
}

// Cache returns the underlying cache for stats and cleanup.
func (l *Loader[T]) Cache() *LRUCache[T] {
	return l.lru
}

// Generation returns the current generation of key.
func (l *Loader[T]) Generation(key string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gens[key]
}

// Invalidate drops key and makes every load started before this call stale.
func (l *Loader[T]) Invalidate(key string) {
	l.mu.Lock()
	l.gens[key]++
	l.lru.Delete(key)
	l.mu.Unlock()
}

// SetIf stores value only when key is still at generation gen.
func (l *Loader[T]) SetIf(key string, value T, gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gens[key] != gen {
		return false
	}
	l.lru.Set(key, value)
	return true
}

// Get returns the cached value of key or calls load to produce it.
func (l *Loader[T]) Get(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := l.lru.Get(key); ok {
		return v, nil
	}
	gen := l.Generation(key)
	v, err, _ := l.group.Do(key+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		l.SetIf(key, v, gen)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
