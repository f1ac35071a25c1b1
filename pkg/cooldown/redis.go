package cooldown

import (
	"context"
	"log/slog"
	"time"

	"go-pantheon/pkg/database"
)

// RedisTracker stores a key per player and kind that expires with the cooldown,
// so throttling survives restarts and is shared between server instances
type RedisTracker struct {
	redis     *database.Redis
	durations map[Kind]time.Duration
}

// NewRedisTracker creates a Redis backed tracker
func NewRedisTracker(r *database.Redis, durations map[Kind]time.Duration) *RedisTracker {
	if durations == nil {
		durations = DefaultDurations
	}
	return &RedisTracker{redis: r, durations: durations}
}

func redisKey(playerID string, kind Kind) string {
	return "pantheon:cooldown:" + string(kind) + ":" + playerID
}

// CanPerform implements Tracker. Redis failures allow the action.
func (r *RedisTracker) CanPerform(ctx context.Context, playerID string, kind Kind) (bool, string) {
	ttl, err := r.redis.GetTTL(ctx, redisKey(playerID, kind))
	if err != nil {
		slog.WarnContext(ctx, "Cooldown lookup failed, allowing action",
			"error", err,
			"player_id", playerID,
			"kind", kind)
		return true, ""
	}
	// TTL is negative when the key is missing or has no expiry
	if ttl <= 0 {
		return true, ""
	}
	return false, waitMessage(kind, ttl)
}

// Record implements Tracker
func (r *RedisTracker) Record(ctx context.Context, playerID string, kind Kind) {
	if err := r.redis.SetWithTTL(ctx, redisKey(playerID, kind), "1", durationFor(r.durations, kind)); err != nil {
		slog.WarnContext(ctx, "Failed to record cooldown",
			"error", err,
			"player_id", playerID,
			"kind", kind)
	}
}
