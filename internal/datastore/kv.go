// Package datastore provides the key-value string persistence
// collaborator used by the alert store. Implementations must tolerate
// being unavailable: callers degrade to in-memory operation on error.
package datastore

import "sync"

// KV is string key-value storage with get/set/remove semantics.
type KV interface {
	// Get returns the stored value and whether the key was present.
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryKV is an in-process KV used when no durable path is configured
// and as the degraded fallback in tests.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryKV creates an empty in-memory KV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
