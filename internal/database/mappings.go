package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
)

// uniqueViolation is the Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// CreateMapping inserts a new event mapping. The topic is unique: a
// concurrent insert for the same topic surfaces as ErrMappingExists so
// callers can treat the race as benign.
func (db *DB) CreateMapping(ctx context.Context, mapping EventMapping) error {
	if mapping.Topic == "" {
		return fmt.Errorf("mapping topic cannot be empty")
	}
	if len(mapping.UserRoles) == 0 {
		return fmt.Errorf("mapping user roles cannot be empty")
	}

	query := `
		INSERT INTO event_mappings (topic, description, user_roles)
		VALUES ($1, $2, $3)
	`
	_, err := db.conn.ExecContext(ctx, query, mapping.Topic, mapping.Description, pq.Array(mapping.UserRoles))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: topic %q", ErrMappingExists, mapping.Topic)
		}
		return fmt.Errorf("failed to insert event mapping: %w", err)
	}

	slog.Debug("Created event mapping", "topic", mapping.Topic, "roles", mapping.UserRoles)
	return nil
}

// GetMappingByTopic retrieves the mapping for a bus topic.
func (db *DB) GetMappingByTopic(ctx context.Context, topic string) (*EventMapping, error) {
	query := `
		SELECT id, topic, description, user_roles
		FROM event_mappings
		WHERE topic = $1
	`
	var m EventMapping
	var description sql.NullString
	err := db.conn.QueryRowContext(ctx, query, topic).Scan(&m.ID, &m.Topic, &description, pq.Array(&m.UserRoles))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: topic %q", ErrMappingNotFound, topic)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event mapping: %w", err)
	}
	m.Description = description.String

	return &m, nil
}

// GetMapping retrieves a mapping by ID.
func (db *DB) GetMapping(ctx context.Context, mappingID int64) (*EventMapping, error) {
	query := `
		SELECT id, topic, description, user_roles
		FROM event_mappings
		WHERE id = $1
	`
	var m EventMapping
	var description sql.NullString
	err := db.conn.QueryRowContext(ctx, query, mappingID).Scan(&m.ID, &m.Topic, &description, pq.Array(&m.UserRoles))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: id %d", ErrMappingNotFound, mappingID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event mapping: %w", err)
	}
	m.Description = description.String

	return &m, nil
}

// ListMappings retrieves all event mappings ordered by topic.
func (db *DB) ListMappings(ctx context.Context) ([]*EventMapping, error) {
	query := `
		SELECT id, topic, description, user_roles
		FROM event_mappings
		ORDER BY topic ASC
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list event mappings: %w", err)
	}
	defer rows.Close()

	var mappings []*EventMapping
	for rows.Next() {
		var m EventMapping
		var description sql.NullString
		if err := rows.Scan(&m.ID, &m.Topic, &description, pq.Array(&m.UserRoles)); err != nil {
			return nil, fmt.Errorf("failed to scan event mapping: %w", err)
		}
		m.Description = description.String
		mappings = append(mappings, &m)
	}
	return mappings, rows.Err()
}

// UpdateMapping updates a mapping's description and/or role set. The topic
// is immutable once created. Nil description or nil roles leave the field
// unchanged; a provided role set must be non-empty.
func (db *DB) UpdateMapping(ctx context.Context, mappingID int64, description *string, roles []string) error {
	if roles != nil && len(roles) == 0 {
		return fmt.Errorf("mapping user roles cannot be empty")
	}

	existing, err := db.GetMapping(ctx, mappingID)
	if err != nil {
		return err
	}

	newDescription := existing.Description
	if description != nil {
		newDescription = *description
	}
	newRoles := existing.UserRoles
	if roles != nil {
		newRoles = roles
	}

	query := `
		UPDATE event_mappings
		SET description = $2, user_roles = $3
		WHERE id = $1
	`
	if _, err := db.conn.ExecContext(ctx, query, mappingID, newDescription, pq.Array(newRoles)); err != nil {
		return fmt.Errorf("failed to update event mapping: %w", err)
	}

	return nil
}

// DeleteMapping removes a mapping by ID.
func (db *DB) DeleteMapping(ctx context.Context, mappingID int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM event_mappings WHERE id = $1`, mappingID)
	if err != nil {
		return fmt.Errorf("failed to delete event mapping: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: id %d", ErrMappingNotFound, mappingID)
	}

	return nil
}
