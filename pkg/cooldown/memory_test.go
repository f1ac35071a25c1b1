package cooldown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryTrackerThrottlesUntilExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tracker := NewMemoryTracker(nil, func() time.Time { return now })
	ctx := context.Background()

	ok, msg := tracker.CanPerform(ctx, "p1", WarDeclaration)
	assert.True(t, ok)
	assert.Empty(t, msg)

	tracker.Record(ctx, "p1", WarDeclaration)

	now = now.Add(20 * time.Second)
	ok, msg = tracker.CanPerform(ctx, "p1", WarDeclaration)
	assert.False(t, ok)
	assert.Equal(t, "You must wait 40 seconds before another war declaration", msg)

	ok, _ = tracker.CanPerform(ctx, "p1", DiplomaticProposal)
	assert.True(t, ok, "kinds are throttled independently")

	ok, _ = tracker.CanPerform(ctx, "p2", WarDeclaration)
	assert.True(t, ok, "players are throttled independently")

	now = now.Add(41 * time.Second)
	ok, _ = tracker.CanPerform(ctx, "p1", WarDeclaration)
	assert.True(t, ok)
}

func TestMemoryTrackerCustomDuration(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tracker := NewMemoryTracker(map[Kind]time.Duration{DiplomaticProposal: time.Second}, func() time.Time { return now })
	ctx := context.Background()

	tracker.Record(ctx, "p1", DiplomaticProposal)
	now = now.Add(2 * time.Second)

	ok, _ := tracker.CanPerform(ctx, "p1", DiplomaticProposal)
	assert.True(t, ok)
}
