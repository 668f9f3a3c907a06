package cache

import (
	"context"
	"sync"
)

// MemoryStore is an unbounded mutex-guarded map living for the process lifetime.
type MemoryStore struct {
	mu      sync.RWMutex
	gen     uint64
	entries map[string][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]string)}
}

func (s *MemoryStore) Generation(context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen, nil
}

func (s *MemoryStore) Get(_ context.Context, gen uint64, key string) ([]string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if gen != s.gen {
		return nil, false, nil
	}
	perms, ok := s.entries[key]
	return perms, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, gen uint64, key string, perms []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return nil
	}
	s.entries[key] = perms
	return nil
}

func (s *MemoryStore) Bump(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.entries = make(map[string][]string)
	return nil
}

// Len reports the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
