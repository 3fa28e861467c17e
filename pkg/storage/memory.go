package storage

import "sync"

// Memory is an in-memory Storage. Quota and Disabled let tests reproduce
// the failure modes of a real browser store.
type Memory struct {
	mu    sync.RWMutex
	items map[string]string

	// Quota caps the total size in bytes of keys plus values. Zero means
	// unlimited.
	Quota int
	// Disabled makes every operation fail with ErrDisabled.
	Disabled bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]string)}
}

func (m *Memory) GetItem(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Disabled {
		return "", false, ErrDisabled
	}
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *Memory) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Disabled {
		return ErrDisabled
	}
	if m.Quota > 0 {
		used := 0
		for k, v := range m.items {
			if k == key {
				continue
			}
			used += len(k) + len(v)
		}
		if used+len(key)+len(value) > m.Quota {
			return ErrQuotaExceeded
		}
	}
	m.items[key] = value
	return nil
}

func (m *Memory) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Disabled {
		return ErrDisabled
	}
	delete(m.items, key)
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
