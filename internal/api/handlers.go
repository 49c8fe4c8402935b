// Package api exposes the read side of the store over HTTP.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Briareos12/amiws-queue/internal/store"
	"github.com/Briareos12/amiws-queue/internal/types"
)

// Handler serves the aggregate view and the raw collections as JSON.
type Handler struct {
	store  *store.Store
	logger zerolog.Logger
}

// NewHandler creates a new API handler backed by the given store.
func NewHandler(st *store.Store, logger zerolog.Logger) *Handler {
	return &Handler{
		store:  st,
		logger: logger.With().Str("component", "api").Logger(),
	}
}

// Servers handles GET /api/servers
func (h *Handler) Servers(w http.ResponseWriter, r *http.Request) {
	servers := h.store.Servers()
	for i := range servers {
		servers[i].QueueCount = h.store.QueuesPerServer(servers[i].ID)
	}
	h.writeJSON(w, servers)
}

// Queues handles GET /api/queues
func (h *Handler) Queues(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.store.Queues())
}

// Stats handles GET /api/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.store.Stats())
}

// selectionPayload is the body of PUT /api/selected and the envelope of
// GET /api/selected.
type selectionPayload struct {
	Queue   string         `json:"queue"`
	Members []types.Member `json:"members,omitempty"`
	Callers []types.Caller `json:"callers,omitempty"`
}

// GetSelected handles GET /api/selected
func (h *Handler) GetSelected(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, selectionPayload{
		Queue:   h.store.SelectedQueue(),
		Members: h.store.SelectedMembers(),
		Callers: h.store.SelectedCallers(),
	})
}

// SetSelected handles PUT /api/selected
func (h *Handler) SetSelected(w http.ResponseWriter, r *http.Request) {
	var body selectionPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	// The name is not validated against existing queues; a miss simply
	// yields empty selection reads.
	h.store.SetSelectedQueue(body.Queue)
	h.logger.Debug().Str("queue", body.Queue).Msg("queue selected")

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}
