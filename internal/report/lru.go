package report

import (
	lru "github.com/hashicorp/golang-lru"
)

// LRUStore is an in-memory LRU cache that delegates to a backing Store on miss.
type LRUStore struct {
	cache *lru.Cache
	back  Store
}

// NewLRUStore creates an LRU cache with the given capacity that delegates
// to back on cache misses. Capacity below 1 is raised to 1.
func NewLRUStore(size int, back Store) *LRUStore {
	if size < 1 {
		size = 1
	}
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New(size)
	return &LRUStore{cache: cache, back: back}
}

// Save caches the execution and delegates to the backing store.
func (s *LRUStore) Save(e *Execution) error {
	s.cache.Add(e.ID, e)
	return s.back.Save(e)
}

// Load checks the cache first. On miss, it loads from the backing store
// and promotes the execution into the cache.
func (s *LRUStore) Load(id string) (*Execution, error) {
	if v, ok := s.cache.Get(id); ok {
		return v.(*Execution), nil
	}
	e, err := s.back.Load(id)
	if err != nil {
		return nil, err
	}
	s.cache.Add(id, e)
	return e, nil
}

// List delegates to the backing store when it can enumerate executions.
func (s *LRUStore) List(limit int) ([]*Execution, error) {
	if l, ok := s.back.(Lister); ok {
		return l.List(limit)
	}
	return nil, ErrNoHistory
}

// Cached reports whether id is currently held in memory.
func (s *LRUStore) Cached(id string) bool {
	return s.cache.Contains(id)
}
