package recent

import (
	"context"
	"sync"
)

// MemoryStore keeps recent searches in process memory. It is used when no
// Redis instance is configured and in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	lists map[string][]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lists: make(map[string][]string)}
}

// List returns a copy of the owner's list.
func (m *MemoryStore) List(ctx context.Context, owner string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return cloneList(m.lists[owner]), nil
}

// Add records term for owner and returns the updated list.
func (m *MemoryStore) Add(ctx context.Context, owner, term string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	updated := Add(m.lists[owner], term)
	m.lists[owner] = updated
	return cloneList(updated), nil
}

// Clear forgets the owner's list.
func (m *MemoryStore) Clear(ctx context.Context, owner string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.lists, owner)
	m.mu.Unlock()
	return nil
}

func cloneList(list []string) []string {
	out := make([]string, len(list))
	copy(out, list)
	return out
}
