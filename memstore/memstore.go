// Package memstore provides an in-memory agora.Backend, mostly useful for tests and
// development.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// A MemStore is a map guarded by a mutex. It holds nothing across restarts.
type MemStore struct {
	mu     sync.Mutex
	values map[string]string
}

// New returns an empty MemStore.
func New() *MemStore {
	return &MemStore{values: map[string]string{}}
}

// Get returns the value stored under key.
func (m *MemStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	v, ok := m.values[key]
	m.mu.Unlock()
	return v, ok, nil
}

// Set stores value under key.
func (m *MemStore) Set(_ context.Context, key string, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}

// Keys returns the stored keys starting with prefix, sorted.
func (m *MemStore) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := []string{}
	for k := range m.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of stored keys.
func (m *MemStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}
