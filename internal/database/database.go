// Package database provides Postgres operations for the notifications and
// event_mappings tables.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Notification statuses. Transitions are one-directional: Unread -> Read.
const (
	StatusUnread = "Unread"
	StatusRead   = "Read"
)

// SuperAdminID is the sentinel owner appended to every fan-out batch and
// entitled to read any notification. It is not a real user.
const SuperAdminID = "SUPER_ADMIN"

// RoleAll is the sentinel role meaning "no role restriction": a mapping
// carrying it targets every user of the organization.
const RoleAll = "ALL"

var (
	// ErrNotificationNotFound is returned when a notification ID does not exist.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrMappingNotFound is returned when no mapping exists for a topic or ID.
	ErrMappingNotFound = errors.New("event mapping not found")
	// ErrMappingExists is returned when a mapping's topic is already taken.
	ErrMappingExists = errors.New("event mapping already exists")
)

// Notification represents a persisted per-owner notification record.
// JSON tags follow the wire contract consumed by the frontend.
type Notification struct {
	ID              int64     `json:"notificationId,omitempty"`
	UserID          string    `json:"userId"`
	User            string    `json:"user"`
	Status          string    `json:"notificationStatus"`
	SourceComponent string    `json:"sourceComponent"`
	Type            string    `json:"type"`
	Description     string    `json:"description,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
	Priority        string    `json:"priority"`
}

// EventMapping associates a bus topic with the set of roles entitled to be
// notified. The topic is unique and immutable once created.
type EventMapping struct {
	ID          int64    `json:"id,omitempty"`
	Topic       string   `json:"topic"`
	Description string   `json:"description,omitempty"`
	UserRoles   []string `json:"userRoles"`
}

// DB wraps a database connection and provides notification and mapping
// operations. All methods are safe for concurrent use.
type DB struct {
	conn *sql.DB
}

// NewDB creates a new database connection using the provided DSN.
func NewDB(dsn string) (*DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Configure connection pool
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Successfully connected to PostgreSQL database")

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn != nil {
		slog.Info("Closing database connection")
		return db.conn.Close()
	}
	return nil
}
