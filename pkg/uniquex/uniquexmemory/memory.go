// Package uniquexmemory provides an in-memory uniquex.Store for tests and
// single-process development runs.
package uniquexmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/ucbscz/registro/pkg/uniquex"
)

// MemoryStore implements uniquex.Store with a mutex-guarded map.
type MemoryStore struct {
	mu     sync.Mutex
	claims map[string][]byte
}

var _ uniquex.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory uniqueness store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{claims: make(map[string][]byte)}
}

func claimKey(namespace, key string) string {
	return namespace + ":" + key
}

// SaveUnique claims (namespace, key); the mutex makes the check-and-set atomic.
func (s *MemoryStore) SaveUnique(_ context.Context, namespace, key string, snapshot []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := claimKey(namespace, key)
	if _, ok := s.claims[k]; ok {
		return uniquex.Errors().NewWithMessage(uniquex.ErrDuplicate,
			fmt.Sprintf("Ya existe un registro en %s con clave %s", namespace, key))
	}
	s.claims[k] = append([]byte(nil), snapshot...)
	return nil
}

// Exists reports whether the claim is present.
func (s *MemoryStore) Exists(_ context.Context, namespace, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.claims[claimKey(namespace, key)]
	return ok, nil
}

// Get returns the claimed snapshot.
func (s *MemoryStore) Get(_ context.Context, namespace, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.claims[claimKey(namespace, key)]
	if !ok {
		return nil, uniquex.Errors().New(uniquex.ErrNotClaimed)
	}
	return append([]byte(nil), data...), nil
}

// Update overwrites the snapshot.
func (s *MemoryStore) Update(_ context.Context, namespace, key string, snapshot []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims[claimKey(namespace, key)] = append([]byte(nil), snapshot...)
	return nil
}

// DeleteUnique releases the claim, absent or not.
func (s *MemoryStore) DeleteUnique(_ context.Context, namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, claimKey(namespace, key))
	return nil
}
