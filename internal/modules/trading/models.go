// Package trading provides storage and retrieval of closed futures trades.
package trading

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/modules/pnl"
)

// Analytics holds derived figures and import diagnostics stored with a trade
type Analytics struct {
	GrossPnL   float64    `json:"gross_pnl"`
	NetPnL     float64    `json:"net_pnl"`
	Fees       float64    `json:"fees"`
	Method     pnl.Method `json:"method"`
	Ticks      float64    `json:"ticks"`
	TickSize   float64    `json:"tick_size"`
	Multiplier float64    `json:"multiplier"`

	SourcePnL     *float64 `json:"source_pnl,omitempty"`     // pnl reported by the import source
	PnLMismatch   bool     `json:"pnl_mismatch,omitempty"`   // source and computed pnl differ by more than a cent
	SideDefaulted bool     `json:"side_defaulted,omitempty"` // unmapped side booked as long
	RawSide       string   `json:"raw_side,omitempty"`
	DateDefaulted bool     `json:"date_defaulted,omitempty"` // no parseable date; import time used
	DateSource    string   `json:"date_source,omitempty"`    // key the entry date was read from
}

// Trade is a closed futures position booked against an account
type Trade struct {
	ID         string           `json:"id"`
	UserID     string           `json:"user_id"`
	AccountID  string           `json:"account_id"`
	Symbol     string           `json:"symbol"`
	Side       domain.TradeSide `json:"side"`
	Quantity   int              `json:"quantity"`
	EntryPrice float64          `json:"entry_price"`
	ExitPrice  float64          `json:"exit_price"`
	EnteredAt  time.Time        `json:"entered_at"`
	ExitedAt   time.Time        `json:"exited_at"`
	NetPnL     float64          `json:"net_pnl"`
	Fees       float64          `json:"fees"`
	RawSource  json.RawMessage  `json:"raw_source,omitempty"`
	Analytics  Analytics        `json:"analytics"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Validate checks the trade before it is written
func (t Trade) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(t.AccountID) == "" {
		return fmt.Errorf("account id is required")
	}
	if strings.TrimSpace(t.Symbol) == "" {
		return fmt.Errorf("symbol is required")
	}
	if !t.Side.IsValid() {
		return fmt.Errorf("side must be long or short, got %q", t.Side)
	}
	if t.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", t.Quantity)
	}
	for label, v := range map[string]float64{"entry price": t.EntryPrice, "exit price": t.ExitPrice, "net pnl": t.NetPnL, "fees": t.Fees} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be finite", label)
		}
	}
	if len(t.RawSource) > 0 && !json.Valid(t.RawSource) {
		return fmt.Errorf("raw source must be valid JSON")
	}
	return nil
}
