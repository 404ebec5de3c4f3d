package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/identity"
	"github.com/aristath/tradejournal/internal/modules/trading"
	testingpkg "github.com/aristath/tradejournal/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradesAPI(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "ledger")
	defer cleanup()

	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := trading.NewTradeRepository(db.Conn(), log)
	created, err := repo.Create(context.Background(), trading.Trade{
		UserID: "u1", AccountID: "a1", Symbol: "ES", Side: domain.SideShort, Quantity: 2,
		EntryPrice: 5000, ExitPrice: 4999, EnteredAt: time.Now(), NetPnL: 94, Fees: 6,
	})
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Use(identity.Middleware)
	NewTradingHandlers(trading.NewService(repo, time.Second, log), log).RegisterRoutes(router)

	get := func(path, user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set(identity.Header, user)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := get("/trades?limit=10", "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Trades []trading.Trade `json:"trades"`
		Count  int             `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, created.ID, list.Trades[0].ID)

	rec = get("/trades?account_id=other", "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 0, list.Count)

	rec = get("/trades/"+created.ID, "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	var trade trading.Trade
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trade))
	assert.Equal(t, 94.0, trade.NetPnL)

	rec = get("/trades/"+created.ID, "u2")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
