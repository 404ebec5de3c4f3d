// Package handlers provides HTTP handlers for trade history.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/identity"
	"github.com/aristath/tradejournal/internal/modules/trading"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// TradingHandlers contains HTTP handlers for the trades API
type TradingHandlers struct {
	service *trading.Service
	log     zerolog.Logger
}

// NewTradingHandlers creates a new trading handlers instance
func NewTradingHandlers(service *trading.Service, log zerolog.Logger) *TradingHandlers {
	return &TradingHandlers{
		service: service,
		log:     log.With().Str("handler", "trading").Logger(),
	}
}

// HandleGetTrades returns trade history
// GET /api/trades?account_id=&limit=
func (h *TradingHandlers) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing user id"})
		return
	}

	limit := 50
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if parsed, err := strconv.Atoi(limitParam); err == nil {
			limit = parsed
		}
	}

	trades, err := h.service.List(r.Context(), userID, r.URL.Query().Get("account_id"), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get trade history")
		h.writeError(w, err)
		return
	}
	if trades == nil {
		trades = []trading.Trade{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"trades": trades,
		"count":  len(trades),
	})
}

// HandleGetTrade returns a single trade
// GET /api/trades/{id}
func (h *TradingHandlers) HandleGetTrade(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing user id"})
		return
	}

	trade, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get trade")
		h.writeError(w, err)
		return
	}
	if trade == nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "trade not found"})
		return
	}

	h.writeJSON(w, http.StatusOK, trade)
}

// writeJSON writes a JSON response
func (h *TradingHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes a classified error response
func (h *TradingHandlers) writeError(w http.ResponseWriter, err error) {
	h.writeJSON(w, domain.HTTPStatus(err), map[string]string{
		"error": err.Error(),
		"kind":  string(domain.KindOf(err)),
	})
}
