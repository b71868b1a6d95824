package cache

import (
	"context"
	"sync"
)

// MemoryStateStore is the in-process stand-in used when Redis is not
// configured. State does not survive a restart; acceptable for dev and tests.
type MemoryStateStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{values: map[string][]byte{}}
}

func (s *MemoryStateStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, true, nil
}

func (s *MemoryStateStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	s.values[key] = stored
	return nil
}

func (s *MemoryStateStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
