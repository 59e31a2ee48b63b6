package storage

import (
	"context"
	"sync"
)

// MemorySlot keeps the value in process memory. It is the fallback backend
// when durable storage is unavailable: identical read/write semantics, but
// state does not survive a restart.
type MemorySlot struct {
	mu      sync.RWMutex
	value   []byte
	present bool
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

func (m *MemorySlot) Get(context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.present {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(m.value))
	copy(cp, m.value)
	return cp, nil
}

func (m *MemorySlot) Set(_ context.Context, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = make([]byte, len(value))
	copy(m.value, value)
	m.present = true
	return nil
}

func (m *MemorySlot) Remove(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = nil
	m.present = false
	return nil
}
