package cache

import "sync"

// Store is the durable byte store backing the cache. Implementations must
// be safe for concurrent use.
type Store interface {
	// GetBytes returns the value for key, or nil when absent.
	GetBytes(key string) ([]byte, error)

	// PutBytes stores the value for key, overwriting any previous value.
	PutBytes(key string, value []byte) error
}

// MemoryStore is an in-process Store for tests and ephemeral runs.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// GetBytes implements Store.
func (m *MemoryStore) GetBytes(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.data[key]
	if !ok {
		return nil, nil
	}

	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, nil
}

// PutBytes implements Store.
func (m *MemoryStore) PutBytes(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = cp
	return nil
}
