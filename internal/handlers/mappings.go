package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"notification-service/internal/database"
)

// CreateMappingRequest represents a request to create an event mapping.
type CreateMappingRequest struct {
	Topic       string   `json:"topic"`
	Description string   `json:"description"`
	UserRoles   []string `json:"userRoles"`
}

// CreateMapping creates a new event mapping.
func (h *Handlers) CreateMapping(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req CreateMappingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Topic == "" {
		http.Error(w, "topic is required", http.StatusBadRequest)
		return
	}
	if len(req.UserRoles) == 0 {
		http.Error(w, "userRoles is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	mapping := database.EventMapping{
		Topic:       req.Topic,
		Description: req.Description,
		UserRoles:   req.UserRoles,
	}
	if err := h.db.CreateMapping(ctx, mapping); err != nil {
		if errors.Is(err, database.ErrMappingExists) {
			http.Error(w, "Mapping already exists for topic", http.StatusConflict)
			return
		}
		slog.Error("Failed to create mapping", "error", err, "topic", req.Topic)
		http.Error(w, "Failed to create mapping", http.StatusInternalServerError)
		return
	}

	created, err := h.db.GetMappingByTopic(ctx, req.Topic)
	if err != nil {
		slog.Error("Failed to get created mapping", "error", err, "topic", req.Topic)
		http.Error(w, "Failed to retrieve created mapping", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// GetMapping retrieves a mapping by ID or by topic.
func (h *Handlers) GetMapping(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	ctx := r.Context()

	var (
		mapping *database.EventMapping
		err     error
	)
	if topic := r.URL.Query().Get("topic"); topic != "" {
		mapping, err = h.db.GetMappingByTopic(ctx, topic)
	} else {
		id, ok := requireIDParam(w, r, "mapping_id")
		if !ok {
			return
		}
		mapping, err = h.db.GetMapping(ctx, id)
	}

	if err != nil {
		if errors.Is(err, database.ErrMappingNotFound) {
			http.Error(w, "Mapping not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to get mapping", "error", err)
		http.Error(w, "Failed to get mapping", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, mapping)
}

// ListMappings retrieves all event mappings ordered by topic.
func (h *Handlers) ListMappings(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	mappings, err := h.db.ListMappings(r.Context())
	if err != nil {
		slog.Error("Failed to list mappings", "error", err)
		http.Error(w, "Failed to list mappings", http.StatusInternalServerError)
		return
	}

	if mappings == nil {
		mappings = []*database.EventMapping{}
	}

	writeJSON(w, http.StatusOK, mappings)
}

// UpdateMappingRequest represents a request to update an event mapping.
// The topic is immutable; omitted fields keep their current value.
type UpdateMappingRequest struct {
	ID          int64    `json:"id"`
	Description *string  `json:"description"`
	UserRoles   []string `json:"userRoles"`
}

// UpdateMapping updates a mapping's description and role set.
func (h *Handlers) UpdateMapping(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPut) {
		return
	}

	var req UpdateMappingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.ID <= 0 {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	if req.UserRoles != nil && len(req.UserRoles) == 0 {
		http.Error(w, "userRoles cannot be empty", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if err := h.db.UpdateMapping(ctx, req.ID, req.Description, req.UserRoles); err != nil {
		if errors.Is(err, database.ErrMappingNotFound) {
			http.Error(w, "Mapping not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to update mapping", "error", err, "mapping_id", req.ID)
		http.Error(w, "Failed to update mapping", http.StatusInternalServerError)
		return
	}

	updated, err := h.db.GetMapping(ctx, req.ID)
	if err != nil {
		slog.Error("Failed to get updated mapping", "error", err, "mapping_id", req.ID)
		http.Error(w, "Failed to retrieve updated mapping", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeleteMapping deletes an event mapping. Events on the topic fall back to
// unrestricted targeting until a new mapping is created.
func (h *Handlers) DeleteMapping(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodDelete) {
		return
	}

	id, ok := requireIDParam(w, r, "mapping_id")
	if !ok {
		return
	}

	if err := h.db.DeleteMapping(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrMappingNotFound) {
			http.Error(w, "Mapping not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to delete mapping", "error", err, "mapping_id", id)
		http.Error(w, "Failed to delete mapping", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
