package storage

import (
	"context"
	"slices"
)

type memory struct {
	values map[string][]byte
}

// NewMemory returns a Storage backed by process memory.
func NewMemory() Storage {
	return &memory{
		values: make(map[string][]byte),
	}
}

func (m *memory) Has(ctx context.Context, key string) (bool, error) {
	_, ok := m.values[key]
	return ok, nil
}

func (m *memory) Put(ctx context.Context, key string, content []byte) error {
	val := make([]byte, len(content))
	copy(val, content)
	m.values[key] = val
	return nil
}

func (m *memory) Get(ctx context.Context, key string) ([]byte, error) {
	content, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	val := make([]byte, len(content))
	copy(val, content)
	return val, nil
}

func (m *memory) Delete(ctx context.Context, key string) error {
	if _, ok := m.values[key]; !ok {
		return ErrNotFound
	}
	delete(m.values, key)
	return nil
}

func (m *memory) Keys(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}
