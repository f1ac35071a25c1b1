package snapshot

import (
	"context"
	"errors"
	"fmt"

	"go-pantheon/pkg/database"

	"github.com/redis/go-redis/v9"
)

// RedisKeyPrefix namespaces snapshot keys
const RedisKeyPrefix = "pantheon:snapshot:"

// RedisStore keeps snapshots as JSON strings without expiration
type RedisStore struct {
	redis *database.Redis
}

// NewRedisStore creates a Redis backed store
func NewRedisStore(r *database.Redis) *RedisStore {
	return &RedisStore{redis: r}
}

// Load implements Store
func (s *RedisStore) Load(ctx context.Context, slot string, dest any) (bool, error) {
	if err := ValidateSlot(slot); err != nil {
		return false, err
	}

	err := s.redis.GetJSON(ctx, RedisKeyPrefix+slot, dest)
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load snapshot %q: %w", slot, err)
	}
	return true, nil
}

// Save implements Store
func (s *RedisStore) Save(ctx context.Context, slot string, value any) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}
	if err := s.redis.SetJSON(ctx, RedisKeyPrefix+slot, value, 0); err != nil {
		return fmt.Errorf("failed to save snapshot %q: %w", slot, err)
	}
	return nil
}
