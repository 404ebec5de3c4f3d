// Package handlers provides HTTP handlers for orphan reconciliation.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/identity"
	"github.com/aristath/tradejournal/internal/modules/reconciliation"
	"github.com/rs/zerolog"
)

// Handler handles reconciliation HTTP requests
type Handler struct {
	service *reconciliation.Service
	log     zerolog.Logger
}

// NewHandler creates a new reconciliation handler
func NewHandler(service *reconciliation.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "reconciliation").Logger(),
	}
}

// HandleCount handles GET /api/reconciliation/orphans
func (h *Handler) HandleCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	count, err := h.service.CountOrphans(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":      userID,
		"orphan_count": count,
	})
}

// HandleRepair handles POST /api/reconciliation/orphans
func (h *Handler) HandleRepair(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	result, err := h.service.RepairOrphans(r.Context(), userID)
	if err != nil {
		h.writeJSON(w, domain.HTTPStatus(err), result)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing user id"})
	}
	return userID, ok
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := domain.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Reconciliation request failed")
	}
	h.writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  string(domain.KindOf(err)),
	})
}
