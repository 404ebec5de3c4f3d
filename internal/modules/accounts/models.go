// Package accounts provides trading account storage and resolution.
package accounts

import "time"

// Account is a trading account owned by a user
type Account struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Platform  string    `json:"platform"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats summarizes the closed trades booked against an account
type Stats struct {
	AccountID    string  `json:"account_id"`
	TradeCount   int     `json:"trade_count"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"win_rate"`
	TotalNetPnL  float64 `json:"total_net_pnl"`
	MeanNetPnL   float64 `json:"mean_net_pnl"`
	StdDevNetPnL float64 `json:"stddev_net_pnl"`
	BestTrade    float64 `json:"best_trade"`
	WorstTrade   float64 `json:"worst_trade"`
}
