package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go-pantheon/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Redis wraps the go-redis client with optional tracing spans
type Redis struct {
	Client *redis.Client
	tracer trace.Tracer
}

// NewRedis connects using REDIS_URL
func NewRedis(ctx context.Context) (*Redis, error) {
	opt, err := redis.ParseURL(config.GetEnv("REDIS_URL", "redis://localhost:6379"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis", "addr", opt.Addr)

	r := &Redis{Client: client}
	if config.GetBoolEnv("ENABLE_TELEMETRY", false) {
		r.tracer = otel.Tracer("redis-client")
	}
	return r, nil
}

// NewRedisFromClient wraps an existing client without tracing
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{Client: client}
}

func (r *Redis) Close() error {
	return r.Client.Close()
}

func (r *Redis) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return r.Client.Ping(ctx).Err()
}

// span starts a client span when tracing is enabled. The returned finish
// function records err (ignoring redis.Nil) and ends the span.
func (r *Redis) span(ctx context.Context, name, key string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	if r.tracer == nil {
		return ctx, func(error) {}
	}
	attrs = append(attrs,
		attribute.String("redis.key", key),
		attribute.String("redis.operation", name),
	)
	ctx, span := r.tracer.Start(ctx, "redis."+name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil && err != redis.Nil {
			span.RecordError(err)
		}
		span.End()
	}
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	ctx, finish := r.span(ctx, "get", key)
	value, err := r.Client.Get(ctx, key).Result()
	finish(err)
	return value, err
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	ctx, finish := r.span(ctx, "delete", "", attribute.StringSlice("redis.keys", keys))
	err := r.Client.Del(ctx, keys...).Err()
	finish(err)
	return err
}

// SetJSON stores a JSON-serializable object. A zero expiration keeps the key forever.
func (r *Redis) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	ctx, finish := r.span(ctx, "set_json", key, attribute.Int("redis.data_size", len(jsonData)))
	err = r.Client.Set(ctx, key, jsonData, expiration).Err()
	finish(err)
	return err
}

// GetJSON retrieves and unmarshals a JSON object. Missing keys return redis.Nil.
func (r *Redis) GetJSON(ctx context.Context, key string, dest interface{}) error {
	ctx, finish := r.span(ctx, "get_json", key)
	jsonData, err := r.Client.Get(ctx, key).Bytes()
	finish(err)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(jsonData, dest); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return nil
}

// SetWithTTL sets a key that expires after expiration
func (r *Redis) SetWithTTL(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	ctx, finish := r.span(ctx, "set_with_ttl", key, attribute.String("redis.expiration", expiration.String()))
	err := r.Client.Set(ctx, key, value, expiration).Err()
	finish(err)
	return err
}

// GetTTL returns the remaining time to live for a key. Missing keys report a
// negative duration.
func (r *Redis) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	ctx, finish := r.span(ctx, "ttl", key)
	ttl, err := r.Client.TTL(ctx, key).Result()
	finish(err)
	return ttl, err
}
