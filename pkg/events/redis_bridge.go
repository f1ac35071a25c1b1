package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisChannel is the channel events are mirrored to
const DefaultRedisChannel = "pantheon:events"

// redisEnvelope wraps an event with the publishing server id so that
// listeners can ignore their own messages
type redisEnvelope struct {
	ServerID string `json:"server_id"`
	Event    Event  `json:"event"`
}

// RedisBridge mirrors every bus event onto a Redis pub/sub channel so other
// processes (chat relays, dashboards) can observe civilization activity
type RedisBridge struct {
	client   *redis.Client
	channel  string
	serverID string
	subs     []Subscription
	bus      *Bus
}

// NewRedisBridge creates a bridge publishing to channel
func NewRedisBridge(client *redis.Client, channel string) *RedisBridge {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisBridge{
		client:   client,
		channel:  channel,
		serverID: uuid.New().String(),
	}
}

// Attach subscribes the bridge to every topic on bus
func (rb *RedisBridge) Attach(bus *Bus) {
	rb.bus = bus
	for _, topic := range AllTopics {
		rb.subs = append(rb.subs, bus.Subscribe(topic, rb.forward))
	}
	slog.Info("Event Redis bridge attached", "channel", rb.channel, "server_id", rb.serverID)
}

// Detach removes every subscription made by Attach
func (rb *RedisBridge) Detach() {
	if rb.bus == nil {
		return
	}
	rb.bus.UnsubscribeAll(rb.subs)
	rb.subs = nil
	rb.bus = nil
}

// ServerID identifies this process in published envelopes
func (rb *RedisBridge) ServerID() string {
	return rb.serverID
}

func (rb *RedisBridge) forward(ctx context.Context, event Event) {
	payload, err := json.Marshal(redisEnvelope{ServerID: rb.serverID, Event: event})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to marshal event for Redis", "error", err, "topic", event.Topic)
		return
	}

	if err := rb.client.Publish(ctx, rb.channel, payload).Err(); err != nil {
		slog.WarnContext(ctx, "Failed to publish event to Redis",
			"error", err,
			"channel", rb.channel,
			"topic", event.Topic)
	}
}
