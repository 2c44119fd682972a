// Package kvstore holds the key-value backends that persist whole
// collections under a single key.
package kvstore

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Get when nothing is stored under the key
var ErrNotFound = errors.New("kvstore: key not found")

// ErrUpdateConflict is returned when an Update kept losing to concurrent writers
var ErrUpdateConflict = errors.New("kvstore: too many concurrent updates")

// UpdateFunc computes the new value from the current one. current is nil
// when nothing is stored under the key. Returning an error aborts the update.
type UpdateFunc func(current []byte) ([]byte, error)

// Store reads and writes whole values by key. Update is an atomic
// read-modify-write across every process sharing the backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

// MemoryStore is an in-process Store used for development and tests
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key
func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set replaces the value stored under key
func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	m.values[key] = stored
	m.mu.Unlock()
	return nil
}

// Update applies fn to the value under key while holding the store lock
func (m *MemoryStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current []byte
	if value, ok := m.values[key]; ok {
		current = make([]byte, len(value))
		copy(current, value)
	}

	next, err := fn(current)
	if err != nil {
		return err
	}
	stored := make([]byte, len(next))
	copy(stored, next)
	m.values[key] = stored
	return nil
}
