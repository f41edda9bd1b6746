// Package handlers provides HTTP handlers for the notification API.
package handlers

import (
	"context"

	"notification-service/internal/database"
	"notification-service/pkg/metrics"
)

// Repository is the database surface the handlers need.
type Repository interface {
	GetNotification(ctx context.Context, id int64) (*database.Notification, error)
	ListNotificationsByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*database.Notification, int, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	DeleteNotification(ctx context.Context, id int64) error

	CreateMapping(ctx context.Context, mapping database.EventMapping) error
	GetMapping(ctx context.Context, id int64) (*database.EventMapping, error)
	GetMappingByTopic(ctx context.Context, topic string) (*database.EventMapping, error)
	ListMappings(ctx context.Context) ([]*database.EventMapping, error)
	UpdateMapping(ctx context.Context, id int64, description *string, userRoles []string) error
	DeleteMapping(ctx context.Context, id int64) error
}

// StatsProvider exposes the pipeline counters for the stats endpoint.
type StatsProvider interface {
	GetSnapshot() *metrics.Snapshot
}

// Handlers wraps dependencies for HTTP handlers.
type Handlers struct {
	db    Repository
	stats StatsProvider
}

// NewHandlers creates a new handlers instance. stats may be nil, in which
// case the stats endpoint reports unavailable.
func NewHandlers(db Repository, stats StatsProvider) *Handlers {
	return &Handlers{
		db:    db,
		stats: stats,
	}
}
