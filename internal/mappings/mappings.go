// Package mappings resolves which user roles an event topic targets.
package mappings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"notification-service/internal/database"
)

// provisionTimeout bounds the background creation of a default mapping.
const provisionTimeout = 10 * time.Second

// Store is the subset of database operations the resolver needs.
type Store interface {
	GetMappingByTopic(ctx context.Context, topic string) (*database.EventMapping, error)
	CreateMapping(ctx context.Context, mapping database.EventMapping) error
}

// Resolution is the outcome of resolving a topic to its target roles.
type Resolution struct {
	// Roles the event targets. Empty means unrestricted: notify the whole
	// organization.
	Roles []string
	// IsDefault is true when no mapping existed and unrestricted targeting
	// was assumed.
	IsDefault bool
}

// Unrestricted reports whether the resolution targets the whole organization
// rather than specific roles.
func (r Resolution) Unrestricted() bool {
	if len(r.Roles) == 0 {
		return true
	}
	for _, role := range r.Roles {
		if role == database.RoleAll {
			return true
		}
	}
	return false
}

// Resolver resolves topics to role sets, auto-provisioning a default mapping
// for topics seen for the first time.
type Resolver struct {
	store Store
	// provisioned signals completion of a background default-mapping
	// creation. Nil outside tests.
	provisioned chan<- string
}

// NewResolver creates a mapping resolver backed by the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the roles targeted by events on the given topic. A missing
// mapping degrades to unrestricted targeting so the event still reaches the
// organization, and a default mapping is created in the background so the
// topic shows up for administrators to adjust. Any other lookup failure is
// returned as an error: a role-restricted topic must not fan out to the
// whole organization just because the mapping store is unreachable.
func (r *Resolver) Resolve(ctx context.Context, topic string) (Resolution, error) {
	mapping, err := r.store.GetMappingByTopic(ctx, topic)
	if err != nil {
		if errors.Is(err, database.ErrMappingNotFound) {
			slog.Info("No mapping for topic, assuming unrestricted and provisioning default",
				"topic", topic,
			)
			go r.provisionDefault(topic)
			return Resolution{IsDefault: true}, nil
		}
		return Resolution{}, fmt.Errorf("failed to look up event mapping for topic %s: %w", topic, err)
	}

	return Resolution{Roles: mapping.UserRoles}, nil
}

// provisionDefault creates the default mapping for a newly seen topic. It
// runs detached from the event's context: the mapping should be created even
// if the triggering event has already been handled.
func (r *Resolver) provisionDefault(topic string) {
	ctx, cancel := context.WithTimeout(context.Background(), provisionTimeout)
	defer cancel()

	mapping := database.EventMapping{
		Topic:       topic,
		Description: fmt.Sprintf("Event mapping for topic '%s'", topic),
		UserRoles:   []string{database.RoleAll},
	}

	err := r.store.CreateMapping(ctx, mapping)
	switch {
	case err == nil:
		slog.Info("Created default event mapping", "topic", topic)
	case errors.Is(err, database.ErrMappingExists):
		// A concurrent event on the same topic got there first.
		slog.Debug("Default event mapping already exists", "topic", topic)
	default:
		slog.Error("Failed to create default event mapping",
			"topic", topic,
			"error", err,
		)
	}

	if r.provisioned != nil {
		r.provisioned <- topic
	}
}
