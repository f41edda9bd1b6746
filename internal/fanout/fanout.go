// Package fanout materializes one event into per-recipient notification rows.
package fanout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"notification-service/internal/database"
	"notification-service/internal/directory"
	"notification-service/internal/events"
)

// Store persists notification batches.
type Store interface {
	CreateNotificationsBatch(ctx context.Context, batch []database.Notification) error
}

// Fanout builds and persists the N+1 notification batch for an event:
// one row per recipient plus one audit row owned by SUPER_ADMIN.
type Fanout struct {
	store Store
}

// New creates a Fanout backed by the given store.
func New(store Store) *Fanout {
	return &Fanout{store: store}
}

// Template returns the ownerless notification document for an event, as
// broadcast to realtime channels.
func Template(event *events.Event) database.Notification {
	return database.Notification{
		Status:          database.StatusUnread,
		SourceComponent: event.SourceComponent,
		Type:            event.Type,
		Description:     event.Description,
		Timestamp:       time.Now().UTC().Truncate(time.Second),
		Priority:        event.Priority,
	}
}

// BuildBatch produces the notification rows for a template and its
// recipients. Recipients keep their order and multiplicity; the SUPER_ADMIN
// audit row is always last. Every row carries the template's content and
// timestamp, only the owner identity differs.
func BuildBatch(recipients []directory.User, template database.Notification) []database.Notification {
	batch := make([]database.Notification, 0, len(recipients)+1)
	for _, user := range recipients {
		n := template
		n.UserID = user.UserID
		n.User = user.DisplayName()
		batch = append(batch, n)
	}

	audit := template
	audit.UserID = database.SuperAdminID
	audit.User = database.SuperAdminID
	batch = append(batch, audit)

	return batch
}

// Deliver persists the batch for a template. It returns the number of rows
// written so callers can account for them.
func (f *Fanout) Deliver(ctx context.Context, recipients []directory.User, template database.Notification) (int, error) {
	batch := BuildBatch(recipients, template)

	if err := f.store.CreateNotificationsBatch(ctx, batch); err != nil {
		return 0, fmt.Errorf("failed to persist notification batch: %w", err)
	}

	slog.Info("Persisted notification batch",
		"type", template.Type,
		"recipients", len(recipients),
		"rows", len(batch),
	)

	return len(batch), nil
}
