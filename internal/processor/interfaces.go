package processor

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"notification-service/internal/database"
	"notification-service/internal/directory"
	"notification-service/internal/events"
	"notification-service/internal/mappings"
)

// MessageConsumer reads events from the bus.
type MessageConsumer interface {
	ReadMessage(ctx context.Context) (*events.Event, *kafka.Message, error)
	CommitMessage(ctx context.Context, msg *kafka.Message) error
	Close() error
}

// MappingResolver resolves a topic to its target roles.
type MappingResolver interface {
	Resolve(ctx context.Context, topic string) (mappings.Resolution, error)
}

// RecipientResolver looks up recipients in the user directory.
type RecipientResolver interface {
	UsersByOrganization(ctx context.Context, organization string) []directory.User
	UsersByRolesAndOrganization(ctx context.Context, roles []string, organization string) []directory.User
}

// NotificationFanout persists the per-recipient notification batch built
// from the template document.
type NotificationFanout interface {
	Deliver(ctx context.Context, recipients []directory.User, template database.Notification) (int, error)
}

// Broadcaster publishes the event to realtime channels.
type Broadcaster interface {
	Broadcast(ctx context.Context, channels []string, payload any) (int, error)
}

// MetricsRecorder receives pipeline counters.
type MetricsRecorder interface {
	RecordEventReceived()
	RecordEventDiscarded()
	RecordEventProcessed(latency time.Duration)
	RecordNotificationsPersisted(n int)
	RecordBroadcastsPublished(n int)
	RecordMappingAutoCreated()
	RecordError()
}

// noopMetrics is used when no collector is wired.
type noopMetrics struct{}

func (noopMetrics) RecordEventReceived()               {}
func (noopMetrics) RecordEventDiscarded()              {}
func (noopMetrics) RecordEventProcessed(time.Duration) {}
func (noopMetrics) RecordNotificationsPersisted(int)   {}
func (noopMetrics) RecordBroadcastsPublished(int)      {}
func (noopMetrics) RecordMappingAutoCreated()          {}
func (noopMetrics) RecordError()                       {}
