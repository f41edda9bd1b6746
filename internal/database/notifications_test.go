// Package database provides tests for database operations.
// These tests use sqlmock to mock database interactions.
package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	return &DB{conn: conn}, mock, func() { conn.Close() }
}

func TestNewDB(t *testing.T) {
	tests := []struct {
		name    string
		dsn     string
		wantErr bool
	}{
		{name: "invalid DSN", dsn: "invalid-dsn", wantErr: true},
		{name: "empty DSN", dsn: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := NewDB(tt.dsn)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewDB() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && db != nil {
				db.Close()
			}
		})
	}
}

func TestDB_Close(t *testing.T) {
	db := &DB{conn: nil}
	if err := db.Close(); err != nil {
		t.Errorf("Close() with nil conn error = %v, want nil", err)
	}
}

func TestDB_CreateNotificationsBatch(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	ctx := context.Background()
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	batch := []Notification{
		{UserID: "u1", User: "Jane Doe", Status: StatusUnread, SourceComponent: "X", Type: "T", Description: "d", Timestamp: ts, Priority: "High"},
		{UserID: SuperAdminID, User: SuperAdminID, Status: StatusUnread, SourceComponent: "X", Type: "T", Description: "d", Timestamp: ts, Priority: "High"},
	}

	tests := []struct {
		name      string
		batch     []Notification
		setupMock func()
		wantErr   bool
	}{
		{
			name:  "successful batch insert",
			batch: batch,
			setupMock: func() {
				mock.ExpectExec("INSERT INTO notifications").
					WithArgs(
						"u1", "Jane Doe", StatusUnread, "X", "T", "d", ts, "High",
						SuperAdminID, SuperAdminID, StatusUnread, "X", "T", "d", ts, "High",
					).
					WillReturnResult(sqlmock.NewResult(2, 2))
			},
		},
		{
			name:      "empty batch is a no-op",
			batch:     nil,
			setupMock: func() {},
		},
		{
			name:  "database error",
			batch: batch[:1],
			setupMock: func() {
				mock.ExpectExec("INSERT INTO notifications").
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()
			err := db.CreateNotificationsBatch(ctx, tt.batch)
			if (err != nil) != tt.wantErr {
				t.Errorf("CreateNotificationsBatch() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("Mock expectations were not met: %v", err)
			}
		})
	}
}

func TestDB_GetNotification(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	ctx := context.Background()
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	columns := []string{"id", "user_id", "user_name", "notification_status", "source_component", "type", "description", "timestamp", "priority"}

	tests := []struct {
		name      string
		id        int64
		setupMock func()
		wantErr   error
	}{
		{
			name: "found",
			id:   7,
			setupMock: func() {
				mock.ExpectQuery("SELECT (.+) FROM notifications").
					WithArgs(int64(7)).
					WillReturnRows(sqlmock.NewRows(columns).
						AddRow(int64(7), "u1", "Jane Doe", StatusUnread, "X", "T", "d", ts, "High"))
			},
		},
		{
			name: "not found",
			id:   8,
			setupMock: func() {
				mock.ExpectQuery("SELECT (.+) FROM notifications").
					WithArgs(int64(8)).
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: ErrNotificationNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()
			n, err := db.GetNotification(ctx, tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("GetNotification() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetNotification() error = %v", err)
			}
			if n.UserID != "u1" || n.Status != StatusUnread {
				t.Errorf("GetNotification() = %+v, want owner u1 with status Unread", n)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("Mock expectations were not met: %v", err)
			}
		})
	}
}

func TestDB_ListNotificationsByUser(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	ctx := context.Background()
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	columns := []string{"id", "user_id", "user_name", "notification_status", "source_component", "type", "description", "timestamp", "priority"}

	t.Run("all notifications for user", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WithArgs("u1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectQuery("SELECT (.+) FROM notifications").
			WithArgs("u1", 50, 0).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(int64(2), "u1", "Jane Doe", StatusRead, "X", "T", "d", ts, "High").
				AddRow(int64(1), "u1", "Jane Doe", StatusUnread, "X", "T", "d", ts, "Low"))

		notifications, total, err := db.ListNotificationsByUser(ctx, "u1", false, 50, 0)
		if err != nil {
			t.Fatalf("ListNotificationsByUser() error = %v", err)
		}
		if total != 2 || len(notifications) != 2 {
			t.Errorf("ListNotificationsByUser() total = %d, len = %d, want 2 and 2", total, len(notifications))
		}
	})

	t.Run("unread only filters by status", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WithArgs("u1", StatusUnread).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery("SELECT (.+) FROM notifications").
			WithArgs("u1", StatusUnread, 50, 0).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(int64(1), "u1", "Jane Doe", StatusUnread, "X", "T", "d", ts, "Low"))

		notifications, total, err := db.ListNotificationsByUser(ctx, "u1", true, 50, 0)
		if err != nil {
			t.Fatalf("ListNotificationsByUser() error = %v", err)
		}
		if total != 1 || len(notifications) != 1 {
			t.Errorf("ListNotificationsByUser() total = %d, len = %d, want 1 and 1", total, len(notifications))
		}
		if notifications[0].Status != StatusUnread {
			t.Errorf("ListNotificationsByUser() status = %s, want Unread", notifications[0].Status)
		}
	})

	t.Run("count query failure", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WithArgs("u1").
			WillReturnError(sql.ErrConnDone)

		if _, _, err := db.ListNotificationsByUser(ctx, "u1", false, 50, 0); err == nil {
			t.Error("ListNotificationsByUser() error = nil, want error")
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Mock expectations were not met: %v", err)
	}
}

func TestDB_MarkNotificationRead(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	ctx := context.Background()

	tests := []struct {
		name      string
		id        int64
		setupMock func()
		wantErr   error
	}{
		{
			name: "marks unread notification read",
			id:   1,
			setupMock: func() {
				mock.ExpectExec("UPDATE notifications").
					WithArgs(int64(1), StatusRead).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "marking again is idempotent",
			id:   1,
			setupMock: func() {
				// The row still matches: re-setting Read succeeds.
				mock.ExpectExec("UPDATE notifications").
					WithArgs(int64(1), StatusRead).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "unknown notification",
			id:   99,
			setupMock: func() {
				mock.ExpectExec("UPDATE notifications").
					WithArgs(int64(99), StatusRead).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: ErrNotificationNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()
			err := db.MarkNotificationRead(ctx, tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("MarkNotificationRead() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Errorf("MarkNotificationRead() error = %v", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("Mock expectations were not met: %v", err)
			}
		})
	}
}

func TestDB_DeleteNotification(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("deletes existing notification", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM notifications").
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		if err := db.DeleteNotification(ctx, 1); err != nil {
			t.Errorf("DeleteNotification() error = %v", err)
		}
	})

	t.Run("unknown notification", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM notifications").
			WithArgs(int64(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		if err := db.DeleteNotification(ctx, 99); !errors.Is(err, ErrNotificationNotFound) {
			t.Errorf("DeleteNotification() error = %v, want ErrNotificationNotFound", err)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Mock expectations were not met: %v", err)
	}
}
