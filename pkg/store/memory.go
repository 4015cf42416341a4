package store

import (
	"context"
	"sort"
	"sync"
)

// Memory is a process-local Backend, used by tests and dry runs.
type Memory struct {
	mu     sync.RWMutex
	values map[Scope]map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{values: make(map[Scope]map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, scope Scope, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[scope][key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Save(_ context.Context, scope Scope, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values[scope] == nil {
		m.values[scope] = make(map[string][]byte)
	}
	m.values[scope][key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Keys(_ context.Context, scope Scope) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.values[scope]))
	for k := range m.values[scope] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) Close() error { return nil }
