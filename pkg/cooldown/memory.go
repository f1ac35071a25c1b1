package cooldown

import (
	"context"
	"sync"
	"time"
)

// MemoryTracker keeps cooldown expiry per player and kind in memory
type MemoryTracker struct {
	mu        sync.Mutex
	durations map[Kind]time.Duration
	until     map[string]time.Time
	now       func() time.Time
}

// NewMemoryTracker creates a tracker. A nil clock uses time.Now.
func NewMemoryTracker(durations map[Kind]time.Duration, now func() time.Time) *MemoryTracker {
	if now == nil {
		now = time.Now
	}
	if durations == nil {
		durations = DefaultDurations
	}
	return &MemoryTracker{
		durations: durations,
		until:     make(map[string]time.Time),
		now:       now,
	}
}

func memoryKey(playerID string, kind Kind) string {
	return string(kind) + ":" + playerID
}

// CanPerform implements Tracker
func (m *MemoryTracker) CanPerform(ctx context.Context, playerID string, kind Kind) (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	until, ok := m.until[memoryKey(playerID, kind)]
	if !ok {
		return true, ""
	}
	remaining := until.Sub(m.now())
	if remaining <= 0 {
		delete(m.until, memoryKey(playerID, kind))
		return true, ""
	}
	return false, waitMessage(kind, remaining)
}

// Record implements Tracker
func (m *MemoryTracker) Record(ctx context.Context, playerID string, kind Kind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.until[memoryKey(playerID, kind)] = m.now().Add(durationFor(m.durations, kind))
}
