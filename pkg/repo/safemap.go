// Package repo holds helpers shared by the repositories.
package repo

import (
	"maps"
	"slices"
	"sync"
)

type SafeMap[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

func NewSafeMap[K comparable, V any]() *SafeMap[K, V] {
	return &SafeMap[K, V]{
		m: make(map[K]V),
	}
}

func (s *SafeMap[K, V]) Set(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
}

func (s *SafeMap[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, found := s.m[key]
	return val, found
}

// Compute replaces the value under key with fn's result while holding the
// write lock. Returning false from fn removes the key.
func (s *SafeMap[K, V]) Compute(key K, fn func(old V, found bool) (V, bool)) V {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, found := s.m[key]
	next, keep := fn(old, found)
	if keep {
		s.m[key] = next
	} else {
		delete(s.m, key)
	}
	return next
}

func (s *SafeMap[K, V]) Delete(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, found := s.m[key]
	delete(s.m, key)
	return found
}

func (s *SafeMap[K, V]) Values() []V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Collect(maps.Values(s.m))
}

// Range calls fn for every entry until fn returns false. fn must not call
// back into the map.
func (s *SafeMap[K, V]) Range(fn func(key K, value V) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range s.m {
		if !fn(k, v) {
			return
		}
	}
}

func (s *SafeMap[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
