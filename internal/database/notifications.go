package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

const notificationColumns = "id, user_id, user_name, notification_status, source_component, type, description, timestamp, priority"

// CreateNotificationsBatch persists a fan-out batch as a single multi-row
// insert. An empty batch is a no-op.
func (db *DB) CreateNotificationsBatch(ctx context.Context, notifications []Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	var query strings.Builder
	query.WriteString(`
		INSERT INTO notifications (user_id, user_name, notification_status, source_component, type, description, timestamp, priority)
		VALUES `)

	args := make([]interface{}, 0, len(notifications)*8)
	for i, n := range notifications {
		if i > 0 {
			query.WriteString(", ")
		}
		base := i * 8
		fmt.Fprintf(&query, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8)
		args = append(args, n.UserID, n.User, n.Status, n.SourceComponent, n.Type, n.Description, n.Timestamp, n.Priority)
	}

	if _, err := db.conn.ExecContext(ctx, query.String(), args...); err != nil {
		return fmt.Errorf("failed to insert notification batch: %w", err)
	}

	slog.Debug("Inserted notification batch", "count", len(notifications))
	return nil
}

// GetNotification retrieves a notification by ID.
func (db *DB) GetNotification(ctx context.Context, notificationID int64) (*Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE id = $1
	`
	var n Notification
	var description sql.NullString
	err := db.conn.QueryRowContext(ctx, query, notificationID).Scan(
		&n.ID,
		&n.UserID,
		&n.User,
		&n.Status,
		&n.SourceComponent,
		&n.Type,
		&description,
		&n.Timestamp,
		&n.Priority,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", ErrNotificationNotFound, notificationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	n.Description = description.String

	return &n, nil
}

// ListNotificationsByUser retrieves a page of notifications owned by a user,
// newest first, optionally restricted to unread ones. It returns the page
// and the total number of matching records.
func (db *DB) ListNotificationsByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	where := "WHERE user_id = $1"
	countArgs := []interface{}{userID}
	if unreadOnly {
		where += " AND notification_status = $2"
		countArgs = append(countArgs, StatusUnread)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM notifications " + where
	if err := db.conn.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT `+notificationColumns+`
		FROM notifications
		%s
		ORDER BY timestamp DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, where, len(countArgs)+1, len(countArgs)+2)
	args := append(countArgs, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*Notification
	for rows.Next() {
		var n Notification
		var description sql.NullString
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.User,
			&n.Status,
			&n.SourceComponent,
			&n.Type,
			&description,
			&n.Timestamp,
			&n.Priority,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Description = description.String
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, total, nil
}

// MarkNotificationRead sets a notification's status to Read. The transition
// is idempotent: marking an already-read notification succeeds and leaves
// the status Read.
func (db *DB) MarkNotificationRead(ctx context.Context, notificationID int64) error {
	query := `
		UPDATE notifications
		SET notification_status = $2
		WHERE id = $1
	`
	result, err := db.conn.ExecContext(ctx, query, notificationID, StatusRead)
	if err != nil {
		return fmt.Errorf("failed to update notification status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %d", ErrNotificationNotFound, notificationID)
	}

	slog.Debug("Marked notification as read", "notification_id", notificationID)
	return nil
}

// DeleteNotification removes a notification by ID.
func (db *DB) DeleteNotification(ctx context.Context, notificationID int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, notificationID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %d", ErrNotificationNotFound, notificationID)
	}

	return nil
}
