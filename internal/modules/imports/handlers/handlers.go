// Package handlers provides HTTP handlers for trade imports.
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/identity"
	"github.com/aristath/tradejournal/internal/modules/imports"
	"github.com/rs/zerolog"
)

// maxImportBytes caps a single import request body
const maxImportBytes = 16 << 20

// Handler handles import HTTP requests
type Handler struct {
	importer *imports.Importer
	maxBytes int64
	log      zerolog.Logger
}

// NewHandler creates a new imports handler
func NewHandler(importer *imports.Importer, log zerolog.Logger) *Handler {
	return &Handler{
		importer: importer,
		maxBytes: maxImportBytes,
		log:      log.With().Str("handler", "imports").Logger(),
	}
}

// HandleImport handles POST /api/imports
//
// Accepts either a JSON body {"rows": [...], "account_id": "..."} or a CSV
// or TSV body (Content-Type text/csv or text/tab-separated-values) with the
// account in ?account_id=. Bodies over the size cap get 413.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing user id"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	rows, accountID, err := decodeRequest(r)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
			"error": fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			"kind":  string(domain.KindMalformedBatchInput),
		})
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.importer.ImportBatch(r.Context(), userID, rows, accountID)
	if err != nil {
		if imports.IsCancelled(err) {
			h.log.Warn().Err(err).Str("user_id", userID).Msg("Import request cancelled")
		}
		h.writeJSON(w, domain.HTTPStatus(err), result)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func decodeRequest(r *http.Request) ([]imports.Record, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "text/csv":
		rows, err := imports.DecodeCSV(r.Body)
		return rows, r.URL.Query().Get("account_id"), err
	case "text/tab-separated-values":
		rows, err := imports.DecodeTSV(r.Body)
		return rows, r.URL.Query().Get("account_id"), err
	}

	var req struct {
		Rows      json.RawMessage `json:"rows"`
		AccountID string          `json:"account_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, "", domain.WrapError(domain.KindMalformedBatchInput, "imports.decode", err)
	}
	rows, err := imports.DecodeJSON(bytes.NewReader(req.Rows))
	if err != nil {
		return nil, "", err
	}

	accountID := req.AccountID
	if accountID == "" {
		accountID = r.URL.Query().Get("account_id")
	}
	return rows, accountID, nil
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
		h.log.Error().Err(err).Msg("Import request failed")
	}
	h.writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  string(domain.KindOf(err)),
	})
}
