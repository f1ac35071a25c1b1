package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore keeps encoded snapshots in process memory. Values are stored as
// JSON so callers never share mutable state with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[string][]byte
	saves int
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string][]byte)}
}

// Load implements Store
func (m *MemoryStore) Load(ctx context.Context, slot string, dest any) (bool, error) {
	if err := ValidateSlot(slot); err != nil {
		return false, err
	}

	m.mu.RLock()
	data, ok := m.slots[slot]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to decode snapshot %q: %w", slot, err)
	}
	return true, nil
}

// Save implements Store
func (m *MemoryStore) Save(ctx context.Context, slot string, value any) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %q: %w", slot, err)
	}

	m.mu.Lock()
	m.slots[slot] = data
	m.saves++
	m.mu.Unlock()
	return nil
}

// Put stores raw bytes for slot, used to simulate corrupted checkpoints
func (m *MemoryStore) Put(slot string, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = raw
}

// SaveCount returns how many successful saves the store has seen
func (m *MemoryStore) SaveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
