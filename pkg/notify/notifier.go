// Package notify delivers human readable status messages to players.
// Delivery is best effort: offline players simply miss the message.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis channel game servers listen on
const DefaultChannel = "pantheon:notifications"

// Notifier sends a message to a player
type Notifier interface {
	Notify(ctx context.Context, playerID, message string)
}

// Message is the payload published for game servers to relay
type Message struct {
	PlayerID string    `json:"player_id"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sent_at"`
}

// RedisNotifier publishes messages on a Redis channel
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

// NewRedisNotifier creates a notifier for channel
func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisNotifier{client: client, channel: channel}
}

// Notify implements Notifier. Failures are ignored.
func (n *RedisNotifier) Notify(ctx context.Context, playerID, message string) {
	if playerID == "" || message == "" {
		return
	}
	payload, err := json.Marshal(Message{PlayerID: playerID, Text: message, SentAt: time.Now().UTC()})
	if err != nil {
		return
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		slog.DebugContext(ctx, "Player notification dropped", "player_id", playerID, "error", err)
	}
}

// Discard drops every message
type Discard struct{}

// Notify implements Notifier
func (Discard) Notify(context.Context, string, string) {}
