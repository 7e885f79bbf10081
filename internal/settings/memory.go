package settings

import (
	"context"
	"sort"
	"sync"

	"codeberg.org/mutker/btapmd/internal/errors"
)

type memoryKey struct {
	scope Scope
	name  string
}

// MemoryStore keeps settings in process memory. It backs tests and the
// --ephemeral mode of the daemon.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[memoryKey]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[memoryKey]int)}
}

func (m *MemoryStore) GetInt(_ context.Context, scope Scope, name string, def int) (int, error) {
	if name == "" {
		return def, errors.New().New(ErrInvalidKey)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if v, ok := m.values[memoryKey{scope, name}]; ok {
		return v, nil
	}

	return def, nil
}

func (m *MemoryStore) PutInt(_ context.Context, scope Scope, name string, value int) error {
	if name == "" {
		return errors.New().New(ErrInvalidKey)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[memoryKey{scope, name}] = value

	return nil
}

func (m *MemoryStore) List(_ context.Context, scope Scope) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []Entry
	for k, v := range m.values {
		if k.scope == scope {
			entries = append(entries, Entry{Scope: k.scope, Name: k.name, Value: v})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	return entries, nil
}

func (*MemoryStore) Close() error {
	return nil
}
