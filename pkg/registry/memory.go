package registry

import (
	"context"
	"slices"
	"sync"
)

var _ Store = (*Memory)(nil)

// Memory is an in-memory Store. It is safe for concurrent use and intended
// primarily for testing.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Put(_ context.Context, r *Record) error {
	data, err := encode(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[r.Name] = data
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(_ context.Context, name string) (*Record, error) {
	m.mu.RLock()
	data, ok := m.data[name]
	m.mu.RUnlock()
	if !ok {
		return nil, notFound(name)
	}
	return decode(data)
}

func (m *Memory) List(_ context.Context) ([]*Record, error) {
	m.mu.RLock()
	names := make([]string, 0, len(m.data))
	for name := range m.data {
		names = append(names, name)
	}
	slices.Sort(names)
	values := make([][]byte, len(names))
	for i, name := range names {
		values[i] = m.data[name]
	}
	m.mu.RUnlock()

	out := make([]*Record, 0, len(values))
	for _, data := range values {
		r, err := decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *Memory) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[name]; !ok {
		return notFound(name)
	}
	delete(m.data, name)
	return nil
}

func (m *Memory) Close() error {
	return nil
}
