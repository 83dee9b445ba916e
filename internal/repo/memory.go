package repo

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkordes/mapty/internal/domain"
)

// MemoryKVStore is an in-process KVStore. Values are lost on restart.
// It backs STORE_BACKEND=memory and is handy in tests.
type MemoryKVStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryKVStore returns an empty MemoryKVStore.
func NewMemoryKVStore() *MemoryKVStore {
	return &MemoryKVStore{values: make(map[string]string)}
}

func (s *MemoryKVStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return "", fmt.Errorf("repo.KVStore.Get: %w", domain.ErrNotFound)
	}
	return v, nil
}

func (s *MemoryKVStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryKVStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return fmt.Errorf("repo.KVStore.Delete: %w", domain.ErrNotFound)
	}
	delete(s.values, key)
	return nil
}
