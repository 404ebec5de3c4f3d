// Package handlers provides HTTP handlers for contract metadata and commission.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/modules/contracts"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles contract HTTP requests
type Handler struct {
	table *contracts.Table
	log   zerolog.Logger
}

// NewHandler creates a new contracts handler
func NewHandler(table *contracts.Table, log zerolog.Logger) *Handler {
	return &Handler{
		table: table,
		log:   log.With().Str("handler", "contracts").Logger(),
	}
}

type contractResponse struct {
	Symbol string         `json:"symbol"`
	Known  bool           `json:"known"`
	Spec   contracts.Spec `json:"spec"`
}

// HandleList handles GET /api/contracts
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"contracts": h.table.Specs(),
		"unknown":   h.table.Unknown(),
	})
}

// HandleGetContract handles GET /api/contracts/{symbol}
func (h *Handler) HandleGetContract(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	spec, known := h.table.Lookup(symbol)

	h.writeJSON(w, http.StatusOK, contractResponse{
		Symbol: domain.NormalizeSymbol(symbol),
		Known:  known,
		Spec:   spec,
	})
}

// HandleCommission handles POST /api/contracts/commission
func (h *Handler) HandleCommission(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol   string  `json:"symbol"`
		Quantity float64 `json:"quantity"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, domain.WrapError(domain.KindMalformedBatchInput, "commission", err))
		return
	}

	quantity, err := contracts.QuantityFromFloat(req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}

	commission, err := h.table.Commission(req.Symbol, quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}

	spec, known := h.table.Lookup(req.Symbol)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":       domain.NormalizeSymbol(req.Symbol),
		"quantity":     quantity,
		"per_contract": spec.Commission,
		"commission":   commission,
		"known":        known,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	h.writeJSON(w, domain.HTTPStatus(err), map[string]string{
		"error": err.Error(),
		"kind":  string(domain.KindOf(err)),
	})
}
