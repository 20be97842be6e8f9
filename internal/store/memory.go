package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

var errMemoryUnavailable = errors.New("memory store disabled")

// Memory is an in-process Backend. It can be switched off to simulate an unavailable store.
type Memory struct {
	mu       sync.RWMutex
	data     map[string]string
	disabled bool
}

// NewMemory returns an empty, available Memory backend.
func NewMemory() *Memory {
	return &Memory{data: map[string]string{}}
}

// SetAvailable toggles whether the backend accepts calls.
func (m *Memory) SetAvailable(available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disabled = !available
}

// Probe fails while the backend is disabled.
func (m *Memory) Probe(context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.disabled {
		return errMemoryUnavailable
	}
	return nil
}

func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	if err := m.Probe(ctx); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	if err := m.Probe(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Remove(ctx context.Context, key string) error {
	if err := m.Probe(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := m.Probe(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
