package cache

import (
	"context"
	"sync"
	"time"
)

type item struct {
	val     []byte
	expires time.Time
}

// Memory is a process-local cache. It is safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	items map[string]item
	now   func() time.Time
	hits  map[string]int
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]item), hits: make(map[string]int), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	it, ok := m.items[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrMiss
	}
	if m.expired(it) {
		m.mu.Lock()
		// a Set may have replaced the entry since the read lock was released
		if cur, ok := m.items[key]; ok && m.expired(cur) {
			delete(m.items, key)
		}
		m.mu.Unlock()
		return nil, ErrMiss
	}

	m.mu.Lock()
	m.hits[kindOf(key)]++
	m.mu.Unlock()
	return append([]byte(nil), it.val...), nil
}

func (m *Memory) expired(it item) bool {
	return !it.expires.IsZero() && !m.now().Before(it.expires)
}

func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	it := item{val: append([]byte(nil), val...)}
	if ttl > 0 {
		it.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.items[key] = it
	m.mu.Unlock()
	return nil
}

// Len counts stored entries, expired ones included until they are read.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Hits returns the number of hits per key kind.
func (m *Memory) Hits() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int, len(m.hits))
	for k, v := range m.hits {
		out[k] = v
	}
	return out
}

func (m *Memory) Close() error { return nil }
