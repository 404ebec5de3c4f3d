// Package handlers provides HTTP handlers for account management.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/identity"
	"github.com/aristath/tradejournal/internal/modules/accounts"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles account HTTP requests
type Handler struct {
	service  *accounts.Service
	resolver domain.AccountResolver
	log      zerolog.Logger
}

// NewHandler creates a new accounts handler
func NewHandler(service *accounts.Service, resolver domain.AccountResolver, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		resolver: resolver,
		log:      log.With().Str("handler", "accounts").Logger(),
	}
}

// HandleList handles GET /api/accounts
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	list, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if list == nil {
		list = []accounts.Account{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"accounts": list})
}

// HandleCreate handles POST /api/accounts
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Name     string `json:"name"`
		Platform string `json:"platform"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, domain.WrapError(domain.KindMalformedBatchInput, "accounts.create", err))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		h.writeError(w, domain.NewError(domain.KindMalformedBatchInput, "accounts.create", "name is required"))
		return
	}

	account, err := h.service.Create(r.Context(), userID, req.Name, req.Platform)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, account)
}

// HandleDelete handles DELETE /api/accounts/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	deleted, err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !deleted {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "account not found"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleStats handles GET /api/accounts/{id}/stats
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	accountID := chi.URLParam(r, "id")

	account, err := h.service.Get(r.Context(), userID, accountID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if account == nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "account not found"})
		return
	}

	stats, err := h.service.Stats(r.Context(), userID, accountID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// HandleResolve handles POST /api/accounts/resolve
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		AccountID string `json:"account_id"`
	}
	// An empty body resolves without an explicit account
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, domain.WrapError(domain.KindMalformedBatchInput, "accounts.resolve", err))
		return
	}

	accountID, err := h.resolver.Resolve(r.Context(), userID, req.AccountID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"account_id": accountID})
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
		h.log.Error().Err(err).Msg("Account request failed")
	}
	h.writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  string(domain.KindOf(err)),
	})
}
