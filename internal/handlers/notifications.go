package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"notification-service/internal/database"
)

// canAccess reports whether the requesting user may act on the notification.
// SUPER_ADMIN may act on any notification.
func canAccess(userID string, n *database.Notification) bool {
	return userID == database.SuperAdminID || userID == n.UserID
}

// loadAuthorized fetches a notification and enforces ownership. On failure it
// writes the error response and returns nil.
func (h *Handlers) loadAuthorized(w http.ResponseWriter, r *http.Request) *database.Notification {
	id, ok := requireIDParam(w, r, "notification_id")
	if !ok {
		return nil
	}
	userID, ok := requireQueryParam(w, r, "user_id")
	if !ok {
		return nil
	}

	n, err := h.db.GetNotification(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotificationNotFound) {
			http.Error(w, "Notification not found", http.StatusNotFound)
			return nil
		}
		slog.Error("Failed to get notification", "error", err, "notification_id", id)
		http.Error(w, "Failed to get notification", http.StatusInternalServerError)
		return nil
	}

	if !canAccess(userID, n) {
		http.Error(w, "Notification belongs to another user", http.StatusForbidden)
		return nil
	}

	return n
}

// GetNotification retrieves a notification by ID. Only the owner and
// SUPER_ADMIN may read it.
func (h *Handlers) GetNotification(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	n := h.loadAuthorized(w, r)
	if n == nil {
		return
	}

	writeJSON(w, http.StatusOK, n)
}

// ListNotificationsResponse is the paged response for ListNotifications.
type ListNotificationsResponse struct {
	Notifications []*database.Notification `json:"notifications"`
	Total         int                      `json:"total"`
	Limit         int                      `json:"limit"`
	Offset        int                      `json:"offset"`
}

// ListNotifications retrieves a user's notifications, newest first.
// Query params: user_id (required), unread_only, limit (default 50, max 200),
// offset (default 0).
func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	userID, ok := requireQueryParam(w, r, "user_id")
	if !ok {
		return
	}
	unreadOnly := r.URL.Query().Get("unread_only") == "true"
	p := parsePagination(r)

	notifications, total, err := h.db.ListNotificationsByUser(r.Context(), userID, unreadOnly, p.Limit, p.Offset)
	if err != nil {
		slog.Error("Failed to list notifications", "error", err, "user_id", userID)
		http.Error(w, "Failed to list notifications", http.StatusInternalServerError)
		return
	}

	if notifications == nil {
		notifications = []*database.Notification{}
	}

	writeJSON(w, http.StatusOK, ListNotificationsResponse{
		Notifications: notifications,
		Total:         total,
		Limit:         p.Limit,
		Offset:        p.Offset,
	})
}

// MarkNotificationRead marks a notification as read. Re-marking an already
// read notification succeeds.
func (h *Handlers) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPut) {
		return
	}

	n := h.loadAuthorized(w, r)
	if n == nil {
		return
	}

	if err := h.db.MarkNotificationRead(r.Context(), n.ID); err != nil {
		if errors.Is(err, database.ErrNotificationNotFound) {
			http.Error(w, "Notification not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to mark notification read", "error", err, "notification_id", n.ID)
		http.Error(w, "Failed to mark notification read", http.StatusInternalServerError)
		return
	}

	n.Status = database.StatusRead
	writeJSON(w, http.StatusOK, n)
}

// DeleteNotification deletes a notification.
func (h *Handlers) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodDelete) {
		return
	}

	n := h.loadAuthorized(w, r)
	if n == nil {
		return
	}

	if err := h.db.DeleteNotification(r.Context(), n.ID); err != nil {
		if errors.Is(err, database.ErrNotificationNotFound) {
			http.Error(w, "Notification not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to delete notification", "error", err, "notification_id", n.ID)
		http.Error(w, "Failed to delete notification", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
