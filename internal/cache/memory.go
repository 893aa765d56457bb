package cache

import (
	"sync"
	"time"
)

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry), ttl: ttl, now: time.Now}
}

func (m *MemoryStore) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || entry.expired(m.now(), m.ttl) {
		return nil, false
	}
	return append([]byte(nil), entry.Data...), true
}

func (m *MemoryStore) Set(key string, data []byte) error {
	m.mu.Lock()
	m.entries[key] = Entry{Timestamp: m.now(), Data: append([]byte(nil), data...)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Invalidate(key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	m.entries = make(map[string]Entry)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error { return nil }
