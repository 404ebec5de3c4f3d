package testing

import (
	"time"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/modules/trading"
)

// NewTradeFixtures returns a set of priced trades for one user and account.
// Net figures match the default contract table and commission schedule.
func NewTradeFixtures(userID, accountID string) []trading.Trade {
	day := time.Date(2024, 11, 4, 14, 30, 0, 0, time.UTC)
	return []trading.Trade{
		{
			UserID:     userID,
			AccountID:  accountID,
			Symbol:     "NQZ4",
			Side:       domain.SideLong,
			Quantity:   10,
			EntryPrice: 24970.75,
			ExitPrice:  24971.25,
			EnteredAt:  day,
			ExitedAt:   day.Add(4 * time.Minute),
			NetPnL:     70.00,
			Fees:       30.00,
		},
		{
			UserID:     userID,
			AccountID:  accountID,
			Symbol:     "MESZ4",
			Side:       domain.SideShort,
			Quantity:   4,
			EntryPrice: 4500.00,
			ExitPrice:  4498.50,
			EnteredAt:  day.Add(time.Hour),
			ExitedAt:   day.Add(time.Hour + 12*time.Minute),
			NetPnL:     27.20,
			Fees:       2.80,
		},
		{
			UserID:     userID,
			AccountID:  accountID,
			Symbol:     "ESZ4",
			Side:       domain.SideShort,
			Quantity:   1,
			EntryPrice: 5000.00,
			ExitPrice:  5001.00,
			EnteredAt:  day.Add(2 * time.Hour),
			ExitedAt:   day.Add(2*time.Hour + 3*time.Minute),
			NetPnL:     -53.00,
			Fees:       3.00,
		},
		{
			UserID:     userID,
			AccountID:  accountID,
			Symbol:     "CLF5",
			Side:       domain.SideLong,
			Quantity:   2,
			EntryPrice: 70.00,
			ExitPrice:  70.50,
			EnteredAt:  day.Add(3 * time.Hour),
			ExitedAt:   day.Add(3*time.Hour + 30*time.Minute),
			NetPnL:     -2.00, // unknown family: 2 ticks x 2 x $1 less $6 commission
			Fees:       6.00,
		},
	}
}

// FixtureNetPnLs returns the net PnL values of NewTradeFixtures in order
func FixtureNetPnLs() []float64 {
	trades := NewTradeFixtures("", "")
	values := make([]float64, len(trades))
	for i, t := range trades {
		values[i] = t.NetPnL
	}
	return values
}
