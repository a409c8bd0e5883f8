package blob

import (
	"bytes"
	"context"
	"sync"
)

// Memory is an in-process Store. Saved data is copied on the way in and out.
type Memory struct {
	mu      sync.Mutex
	data    map[string][]byte
	saves   int
	saveErr error
	loadErr error
	closed  bool
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: map[string][]byte{}}
}

// Load implements Store.
func (m *Memory) Load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, false, errClosed
	}

	if m.loadErr != nil {
		return nil, false, m.loadErr
	}

	data, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}

	return bytes.Clone(data), true, nil
}

// Save implements Store.
func (m *Memory) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errClosed
	}

	if m.saveErr != nil {
		return m.saveErr
	}

	err := validateKey(key)
	if err != nil {
		return err
	}

	m.data[key] = bytes.Clone(data)
	m.saves++

	return nil
}

// Close implements Store.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true

	return nil
}

// Saves returns the number of successful saves.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.saves
}

// FailSaves makes every following Save return err. A nil err restores saving.
func (m *Memory) FailSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saveErr = err
}

// FailLoads makes every following Load return err.
func (m *Memory) FailLoads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loadErr = err
}
