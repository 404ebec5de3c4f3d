package trading

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TradeRepositoryInterface defines the interface for trade persistence
type TradeRepositoryInterface interface {
	// Create inserts a new trade record
	Create(ctx context.Context, trade Trade) (*Trade, error)

	// GetByID retrieves one of the user's trades
	GetByID(ctx context.Context, userID, id string) (*Trade, error)

	// ListByUser retrieves the user's most recent trades
	ListByUser(ctx context.Context, userID string, limit int) ([]Trade, error)

	// ListByAccount retrieves the most recent trades booked against an account
	ListByAccount(ctx context.Context, userID, accountID string, limit int) ([]Trade, error)

	// CountByUser counts the user's trades
	CountByUser(ctx context.Context, userID string) (int, error)

	// NetPnLByAccount returns the net PnL of every trade booked against an account
	NetPnLByAccount(ctx context.Context, userID, accountID string) ([]float64, error)

	// CountOrphans counts the user's trades whose account does not exist
	CountOrphans(ctx context.Context, userID string) (int, error)

	// FindOrphans retrieves the user's trades whose account does not exist
	FindOrphans(ctx context.Context, userID string) ([]Trade, error)

	// UsersWithOrphans lists every user owning at least one orphaned trade
	UsersWithOrphans(ctx context.Context) ([]string, error)

	// ReassignOrphans points every orphaned trade of the user at accountID
	ReassignOrphans(ctx context.Context, tx *sql.Tx, userID, accountID string) (int, error)
}

// Compile-time check that TradeRepository implements TradeRepositoryInterface
var _ TradeRepositoryInterface = (*TradeRepository)(nil)

// tradesColumns must match scanTrade
const tradesColumns = `id, user_id, account_id, symbol, side, quantity, entry_price, exit_price,
	entered_at, exited_at, net_pnl, fees, raw_source, analytics, created_at`

// orphanCondition matches trades whose account is missing or owned by someone else
const orphanCondition = `NOT EXISTS (
	SELECT 1 FROM accounts a WHERE a.id = trades.account_id AND a.user_id = trades.user_id
)`

// TradeRepository handles trade database operations
type TradeRepository struct {
	ledgerDB *sql.DB // ledger.db - trades table
	log      zerolog.Logger
}

// NewTradeRepository creates a new trade repository
func NewTradeRepository(ledgerDB *sql.DB, log zerolog.Logger) *TradeRepository {
	return &TradeRepository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "trade").Logger(),
	}
}

// Create inserts a new trade record. Empty ids are generated.
func (r *TradeRepository) Create(ctx context.Context, trade Trade) (*Trade, error) {
	if err := trade.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}

	if trade.ID == "" {
		trade.ID = uuid.NewString()
	}
	if trade.CreatedAt.IsZero() {
		trade.CreatedAt = time.Now()
	}
	if trade.ExitedAt.IsZero() {
		trade.ExitedAt = trade.EnteredAt
	}
	if len(trade.RawSource) == 0 {
		trade.RawSource = json.RawMessage("{}")
	}

	analytics, err := json.Marshal(trade.Analytics)
	if err != nil {
		return nil, fmt.Errorf("failed to encode trade analytics: %w", err)
	}

	query := `
		INSERT INTO trades
		(id, user_id, account_id, symbol, side, quantity, entry_price, exit_price,
		 entered_at, exited_at, net_pnl, fees, raw_source, analytics, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.ledgerDB.ExecContext(ctx, query,
		trade.ID,
		trade.UserID,
		trade.AccountID,
		domain.NormalizeSymbol(trade.Symbol),
		string(trade.Side),
		trade.Quantity,
		trade.EntryPrice,
		trade.ExitPrice,
		trade.EnteredAt.Unix(),
		trade.ExitedAt.Unix(),
		trade.NetPnL,
		trade.Fees,
		string(trade.RawSource),
		string(analytics),
		trade.CreatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}

	r.log.Debug().
		Str("trade_id", trade.ID).
		Str("symbol", trade.Symbol).
		Str("side", string(trade.Side)).
		Int("quantity", trade.Quantity).
		Float64("net_pnl", trade.NetPnL).
		Msg("Trade created")

	trade.Symbol = domain.NormalizeSymbol(trade.Symbol)
	return &trade, nil
}

// GetByID retrieves one of the user's trades. Returns nil if not found.
func (r *TradeRepository) GetByID(ctx context.Context, userID, id string) (*Trade, error) {
	query := "SELECT " + tradesColumns + " FROM trades WHERE id = ? AND user_id = ?"

	trade, err := scanTrade(r.ledgerDB.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	return &trade, nil
}

// ListByUser retrieves the user's trades, newest entry first
func (r *TradeRepository) ListByUser(ctx context.Context, userID string, limit int) ([]Trade, error) {
	query := "SELECT " + tradesColumns + ` FROM trades
		WHERE user_id = ?
		ORDER BY entered_at DESC, rowid DESC
		LIMIT ?`
	return r.queryTrades(ctx, query, userID, normalizeLimit(limit))
}

// ListByAccount retrieves the trades booked against an account, newest entry first
func (r *TradeRepository) ListByAccount(ctx context.Context, userID, accountID string, limit int) ([]Trade, error) {
	query := "SELECT " + tradesColumns + ` FROM trades
		WHERE user_id = ? AND account_id = ?
		ORDER BY entered_at DESC, rowid DESC
		LIMIT ?`
	return r.queryTrades(ctx, query, userID, accountID, normalizeLimit(limit))
}

// CountByUser counts the user's trades
func (r *TradeRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.ledgerDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM trades WHERE user_id = ?", userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}
	return count, nil
}

// NetPnLByAccount returns the net PnL of every trade booked against an account, oldest first
func (r *TradeRepository) NetPnLByAccount(ctx context.Context, userID, accountID string) ([]float64, error) {
	rows, err := r.ledgerDB.QueryContext(ctx,
		"SELECT net_pnl FROM trades WHERE user_id = ? AND account_id = ? ORDER BY entered_at ASC, rowid ASC",
		userID, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query net pnl: %w", err)
	}
	defer rows.Close()

	var values []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan net pnl: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating net pnl: %w", err)
	}
	return values, nil
}

// CountOrphans counts the user's trades whose account does not exist
func (r *TradeRepository) CountOrphans(ctx context.Context, userID string) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM trades WHERE user_id = ? AND " + orphanCondition
	if err := r.ledgerDB.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orphaned trades: %w", err)
	}
	return count, nil
}

// FindOrphans retrieves the user's trades whose account does not exist
func (r *TradeRepository) FindOrphans(ctx context.Context, userID string) ([]Trade, error) {
	query := "SELECT " + tradesColumns + " FROM trades WHERE user_id = ? AND " + orphanCondition +
		" ORDER BY entered_at ASC, rowid ASC"
	return r.queryTrades(ctx, query, userID)
}

// UsersWithOrphans lists every user owning at least one orphaned trade
func (r *TradeRepository) UsersWithOrphans(ctx context.Context) ([]string, error) {
	rows, err := r.ledgerDB.QueryContext(ctx,
		"SELECT DISTINCT user_id FROM trades WHERE "+orphanCondition+" ORDER BY user_id")
	if err != nil {
		return nil, fmt.Errorf("failed to list users with orphaned trades: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		users = append(users, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// ReassignOrphans points every orphaned trade of the user at accountID within tx
func (r *TradeRepository) ReassignOrphans(ctx context.Context, tx *sql.Tx, userID, accountID string) (int, error) {
	query := "UPDATE trades SET account_id = ? WHERE user_id = ? AND " + orphanCondition
	result, err := tx.ExecContext(ctx, query, accountID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign orphaned trades: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(affected), nil
}

func (r *TradeRepository) queryTrades(ctx context.Context, query string, args ...interface{}) ([]Trade, error) {
	rows, err := r.ledgerDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, trade)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}
	return trades, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTrade(s scanner) (Trade, error) {
	var (
		trade                          Trade
		side, rawSource, analytics     string
		enteredAt, exitedAt, createdAt int64
	)

	err := s.Scan(
		&trade.ID,
		&trade.UserID,
		&trade.AccountID,
		&trade.Symbol,
		&side,
		&trade.Quantity,
		&trade.EntryPrice,
		&trade.ExitPrice,
		&enteredAt,
		&exitedAt,
		&trade.NetPnL,
		&trade.Fees,
		&rawSource,
		&analytics,
		&createdAt,
	)
	if err != nil {
		return Trade{}, err
	}

	trade.Side = domain.TradeSide(side)
	trade.EnteredAt = time.Unix(enteredAt, 0).UTC()
	trade.ExitedAt = time.Unix(exitedAt, 0).UTC()
	trade.CreatedAt = time.Unix(createdAt, 0).UTC()
	trade.RawSource = json.RawMessage(rawSource)

	if analytics != "" {
		if err := json.Unmarshal([]byte(analytics), &trade.Analytics); err != nil {
			return Trade{}, fmt.Errorf("failed to decode analytics for trade %s: %w", trade.ID, err)
		}
	}

	return trade, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return 100
	}
	return limit
}
