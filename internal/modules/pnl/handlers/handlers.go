// Package handlers provides HTTP handlers for PnL calculation.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/modules/contracts"
	"github.com/aristath/tradejournal/internal/modules/pnl"
	"github.com/rs/zerolog"
)

// Handler handles PnL HTTP requests
type Handler struct {
	calculator *pnl.Calculator
	log        zerolog.Logger
}

// NewHandler creates a new PnL handler
func NewHandler(calculator *pnl.Calculator, log zerolog.Logger) *Handler {
	return &Handler{
		calculator: calculator,
		log:        log.With().Str("handler", "pnl").Logger(),
	}
}

type calculateRequest struct {
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	EntryPrice float64 `json:"entry_price"`
	ExitPrice  float64 `json:"exit_price"`
	Quantity   float64 `json:"quantity"`
	Fees       float64 `json:"fees"`
}

// HandleCalculate handles POST /api/pnl/calculate
func (h *Handler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, domain.WrapError(domain.KindMalformedBatchInput, "pnl", err))
		return
	}

	quantity, err := contracts.QuantityFromFloat(req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.calculator.Calculate(pnl.Input{
		Symbol:     req.Symbol,
		Side:       req.Side,
		EntryPrice: req.EntryPrice,
		ExitPrice:  req.ExitPrice,
		Quantity:   quantity,
		Fees:       req.Fees,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	h.log.Debug().Err(err).Msg("PnL calculation rejected")
	h.writeJSON(w, domain.HTTPStatus(err), map[string]string{
		"error": err.Error(),
		"kind":  string(domain.KindOf(err)),
	})
}
