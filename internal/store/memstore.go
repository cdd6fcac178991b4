package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemStore is an in-process Store. It backs tests and the "memory" storage
// driver, where nothing outlives the process.
type MemStore struct {
	mu       sync.Mutex
	entries  map[string]Entry
	versions map[string]int
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		entries:  make(map[string]Entry),
		versions: make(map[string]int),
	}
}

func (s *MemStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (s *MemStore) Put(_ context.Context, key, value string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.versions[key]++
	e := Entry{Key: key, Value: value, Version: s.versions[key], UpdatedAt: time.Now().UTC()}
	s.entries[key] = e
	return &e, nil
}

func (s *MemStore) List(_ context.Context, prefix string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Entry
	for k, e := range s.entries {
		if strings.HasPrefix(k, prefix) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *MemStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

func (s *MemStore) Close() error { return nil }
