package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/nikolayk812/storefront/internal/port"
)

type memoryKV struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewMemoryKV keeps values for the lifetime of the process only.
func NewMemoryKV() port.KeyValueStore {
	return &memoryKV{
		values: make(map[string][]byte),
	}
}

func (m *memoryKV) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("key is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.values[key]
	if !ok {
		return nil, port.ErrKeyNotFound
	}

	return clone(value), nil
}

func (m *memoryKV) Put(_ context.Context, key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = clone(value)
	return nil
}

func (m *memoryKV) Update(_ context.Context, key string, fn func(current []byte) ([]byte, error)) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("key is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := fn(clone(m.values[key]))
	if err != nil {
		return nil, err
	}

	m.values[key] = clone(next)
	return clone(next), nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
