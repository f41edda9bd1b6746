// Package broadcast pushes processed events to realtime channels over Redis
// pub/sub so connected frontends update without polling.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"notification-service/internal/database"
)

// channelPrefix namespaces the pub/sub channels used for realtime delivery.
const channelPrefix = "notifications:"

// Publisher is the Redis publish capability the broadcaster needs.
// *redis.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// ChannelsFor computes the realtime channels for an event targeting the
// given roles in an organization. Unrestricted targeting (no roles, or the
// ALL sentinel) broadcasts on the organization channel; role-restricted
// targeting broadcasts on one channel per distinct role. The SUPER_ADMIN
// channel is always included.
func ChannelsFor(roles []string, organization string) []string {
	unrestricted := len(roles) == 0
	for _, role := range roles {
		if role == database.RoleAll {
			unrestricted = true
			break
		}
	}

	if unrestricted {
		return []string{organization, database.SuperAdminID}
	}

	seen := make(map[string]bool, len(roles)+1)
	channels := make([]string, 0, len(roles)+1)
	for _, role := range roles {
		if seen[role] {
			continue
		}
		seen[role] = true
		channels = append(channels, role)
	}
	if !seen[database.SuperAdminID] {
		channels = append(channels, database.SuperAdminID)
	}
	return channels
}

// Broadcaster publishes notification payloads to realtime channels.
type Broadcaster struct {
	publisher Publisher
}

// New creates a Broadcaster on top of a Redis publisher.
func New(publisher Publisher) *Broadcaster {
	return &Broadcaster{publisher: publisher}
}

// Broadcast publishes the payload to every channel. A failed channel is
// logged and skipped; the remaining channels are still attempted. It returns
// the number of channels published successfully.
func (b *Broadcaster) Broadcast(ctx context.Context, channels []string, payload any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal broadcast payload: %w", err)
	}

	published := 0
	for _, channel := range channels {
		if err := b.publisher.Publish(ctx, channelPrefix+channel, body).Err(); err != nil {
			slog.Error("Failed to publish to realtime channel",
				"channel", channel,
				"error", err,
			)
			continue
		}
		published++
	}

	slog.Debug("Broadcast complete",
		"channels", len(channels),
		"published", published,
	)

	return published, nil
}
