package cache

import "sync"

// Memory is an in-process Cache. The zero value is not usable; call NewMemory.
type Memory struct {
	mu   sync.Mutex
	data map[string]string
	sets int
}

// NewMemory returns an empty Memory, optionally seeded with entries.
func NewMemory(seed map[string]string) *Memory {
	m := &Memory{data: make(map[string]string, len(seed))}
	for k, v := range seed {
		m.data[k] = v
	}
	return m
}

// Get returns the value for key. Missing and empty entries are misses.
func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok || v == "" {
		return "", false, nil
	}
	return v, true, nil
}

// Set stores value for key, replacing any previous value.
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.sets++
	return nil
}

// Sets returns how many times Set has been called.
func (m *Memory) Sets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}
