package storage

import (
	"context"
	"sync"
)

// InMemoryStorage keeps items in process memory. Contents are lost on restart.
type InMemoryStorage struct {
	mu    sync.RWMutex
	items map[string]map[string]string // namespace -> key -> value
}

var _ Storage = (*InMemoryStorage)(nil)

func NewMemory() *InMemoryStorage {
	return &InMemoryStorage{
		items: make(map[string]map[string]string),
	}
}

func (m *InMemoryStorage) GetItem(_ context.Context, namespace, key string) (string, bool, error) {
	if err := validate(namespace, key); err != nil {
		return "", false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.items[namespace][key]
	return value, ok, nil
}

func (m *InMemoryStorage) SetItem(_ context.Context, namespace, key, value string) error {
	if err := validate(namespace, key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[namespace]; !ok {
		m.items[namespace] = make(map[string]string)
	}
	m.items[namespace][key] = value
	return nil
}

func (m *InMemoryStorage) RemoveItem(_ context.Context, namespace, key string) error {
	if err := validate(namespace, key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ns, ok := m.items[namespace]
	if !ok {
		return nil
	}
	delete(ns, key)

	// Clean up empty namespace map
	if len(ns) == 0 {
		delete(m.items, namespace)
	}
	return nil
}

func (m *InMemoryStorage) Close(context.Context) error {
	return nil
}
