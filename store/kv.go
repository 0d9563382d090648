package store

import "sync"

// KV is the minimal key-value surface the profile store is built on.
// Values are opaque byte slices; Get reports presence explicitly so a
// missing key is never an error.
type KV interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
	Delete(key string) error
}

// MemKV is an in-memory KV used by tests and by callers that do not want
// persistence.
type MemKV struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemKV() *MemKV {
	return &MemKV{
		entries: make(map[string][]byte),
	}
}

func (m *MemKV) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, exists := m.entries[key]
	if !exists {
		return nil, false
	}
	return append([]byte(nil), value...), true
}

func (m *MemKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}
