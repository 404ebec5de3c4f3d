package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aristath/tradejournal/internal/identity"
	"github.com/aristath/tradejournal/internal/modules/accounts"
	"github.com/aristath/tradejournal/internal/modules/contracts"
	"github.com/aristath/tradejournal/internal/modules/imports"
	"github.com/aristath/tradejournal/internal/modules/pnl"
	"github.com/aristath/tradejournal/internal/modules/trading"
	testingpkg "github.com/aristath/tradejournal/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*chi.Mux, *trading.TradeRepository) {
	t.Helper()
	return setupRouterWith(t, func(*Handler) {})
}

func setupRouterWith(t *testing.T, configure func(*Handler)) (*chi.Mux, *trading.TradeRepository) {
	t.Helper()

	db, cleanup := testingpkg.NewTestDB(t, "ledger")
	t.Cleanup(cleanup)

	log := zerolog.New(nil).Level(zerolog.Disabled)
	resolver := accounts.NewResolver(accounts.NewAccountRepository(db.Conn(), log),
		accounts.ResolverConfig{DefaultName: "Default Account", StoreTimeout: time.Second}, nil, log)
	tradeRepo := trading.NewTradeRepository(db.Conn(), log)
	importer := imports.NewImporter(resolver, tradeRepo, pnl.NewCalculator(contracts.DefaultTable()),
		imports.Options{StoreTimeout: time.Second}, nil, log)

	router := chi.NewRouter()
	router.Use(identity.Middleware)
	handler := NewHandler(importer, log)
	configure(handler)
	handler.RegisterRoutes(router)
	return router, tradeRepo
}

func post(router http.Handler, contentType, path, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	if user != "" {
		req.Header.Set(identity.Header, user)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleImport_JSON(t *testing.T) {
	router, tradeRepo := setupRouter(t)

	body := `{"rows":[
		{"symbol":"NQ","side":"long","quantity":1,"entry_price":15000,"exit_price":15002},
		{"symbol":"NQ","side":"long","quantity":0,"entry_price":15000,"exit_price":15002}
	]}`
	rec := post(router, "application/json", "/imports", "u1", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result imports.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Errors)
	require.Len(t, result.Results, 2)
	assert.Equal(t, "InvalidQuantity", string(result.Results[1].Kind))

	count, err := tradeRepo.CountByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestHandleImport_CSV(t *testing.T) {
	router, _ := setupRouter(t)

	body := "symbol,side,quantity,entry_price,exit_price\nMES,short,4,4500,4498.50\n"
	rec := post(router, "text/csv; charset=utf-8", "/imports?account_id=acct-csv", "u1", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result imports.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "acct-csv", result.AccountID)
	require.Len(t, result.Results, 1)
	require.NotNil(t, result.Results[0].NetPnL)
	assert.Equal(t, 27.2, *result.Results[0].NetPnL)
}

func TestHandleImport_Errors(t *testing.T) {
	router, _ := setupRouter(t)

	testCases := []struct {
		name        string
		contentType string
		user        string
		body        string
		status      int
	}{
		{name: "missing user", contentType: "application/json", body: `{"rows":[]}`, status: http.StatusUnauthorized},
		{name: "not json", contentType: "application/json", user: "u1", body: `rows`, status: http.StatusBadRequest},
		{name: "rows missing", contentType: "application/json", user: "u1", body: `{}`, status: http.StatusBadRequest},
		{name: "rows not array", contentType: "application/json", user: "u1", body: `{"rows":{"symbol":"NQ"}}`, status: http.StatusBadRequest},
		{name: "bare quote csv", contentType: "text/csv", user: "u1", body: "a,b\n1,x\"y\n", status: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := post(router, tc.contentType, "/imports", tc.user, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestHandleImport_TSV(t *testing.T) {
	router, tradeRepo := setupRouter(t)

	body := "symbol\tside\tquantity\tentry_price\texit_price\n" +
		"NQ\tlong\t1\t15000\t15002\n"
	rec := post(router, "text/tab-separated-values", "/imports", "u1", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result imports.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Errors)

	count, err := tradeRepo.CountByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestHandleImport_OversizedBodyIsRejected(t *testing.T) {
	router, tradeRepo := setupRouterWith(t, func(h *Handler) { h.maxBytes = 256 })

	row := `{"symbol":"NQ","side":"long","quantity":1,"entry_price":15000,"exit_price":15002}`
	body := `{"rows":[` + strings.TrimSuffix(strings.Repeat(row+",", 10), ",") + `]}`
	require.Greater(t, len(body), 256)

	rec := post(router, "application/json", "/imports", "u1", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())

	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Contains(t, payload["error"], "256")
	assert.Equal(t, "MalformedBatchInput", payload["kind"])

	rec = post(router, "text/csv", "/imports", "u1",
		"symbol,side,quantity,entry_price,exit_price\n"+strings.Repeat("NQ,long,1,15000,15002\n", 20))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())

	count, err := tradeRepo.CountByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, count)

	rec = post(router, "application/json", "/imports", "u1", `{"rows":[`+row+`]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	count, err = tradeRepo.CountByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
