package auth

import "sync"

// MapKV is an in-memory KV backend, used in tests and for sessions that
// should not outlive the process.
type MapKV struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMapKV creates an empty in-memory KV store.
func NewMapKV() *MapKV {
	return &MapKV{entries: make(map[string][]byte)}
}

// Get returns the value for key, or ErrKeyNotFound.
func (m *MapKV) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.entries[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set stores a copy of value under key.
func (m *MapKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	m.entries[key] = stored
	return nil
}

// Delete removes key. Deleting an absent key returns ErrKeyNotFound.
func (m *MapKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[key]; !ok {
		return ErrKeyNotFound
	}
	delete(m.entries, key)
	return nil
}
