package testing

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aristath/tradejournal/internal/modules/trading"
)

// MockTradeRepository is an in-memory implementation of TradeRepositoryInterface for testing
type MockTradeRepository struct {
	mu       sync.RWMutex
	trades   []trading.Trade
	accounts map[string]map[string]bool // user id -> account ids that exist
	err      error
}

var _ trading.TradeRepositoryInterface = (*MockTradeRepository)(nil)

// NewMockTradeRepository creates a new mock trade repository
func NewMockTradeRepository() *MockTradeRepository {
	return &MockTradeRepository{
		trades:   make([]trading.Trade, 0),
		accounts: make(map[string]map[string]bool),
	}
}

// SetTrades sets the trades to return
func (m *MockTradeRepository) SetTrades(trades []trading.Trade) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = append([]trading.Trade(nil), trades...)
}

// SetError sets the error to return from every call
func (m *MockTradeRepository) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetAccounts declares which accounts exist for a user; trades pointing elsewhere are orphans
func (m *MockTradeRepository) SetAccounts(userID string, accountIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	known := make(map[string]bool, len(accountIDs))
	for _, id := range accountIDs {
		known[id] = true
	}
	m.accounts[userID] = known
}

// Trades returns a copy of every stored trade
func (m *MockTradeRepository) Trades() []trading.Trade {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]trading.Trade(nil), m.trades...)
}

// Create stores a trade, generating an id when empty
func (m *MockTradeRepository) Create(ctx context.Context, trade trading.Trade) (*trading.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := trade.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}
	if trade.ID == "" {
		trade.ID = fmt.Sprintf("trade-%d", len(m.trades)+1)
	}
	if trade.CreatedAt.IsZero() {
		trade.CreatedAt = time.Now()
	}
	m.trades = append(m.trades, trade)
	return &trade, nil
}

// GetByID retrieves one of the user's trades
func (m *MockTradeRepository) GetByID(ctx context.Context, userID, id string) (*trading.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, t := range m.trades {
		if t.ID == id && t.UserID == userID {
			trade := t
			return &trade, nil
		}
	}
	return nil, nil
}

// ListByUser retrieves the user's most recent trades
func (m *MockTradeRepository) ListByUser(ctx context.Context, userID string, limit int) ([]trading.Trade, error) {
	return m.filter(limit, func(t trading.Trade) bool { return t.UserID == userID })
}

// ListByAccount retrieves the most recent trades booked against an account
func (m *MockTradeRepository) ListByAccount(ctx context.Context, userID, accountID string, limit int) ([]trading.Trade, error) {
	return m.filter(limit, func(t trading.Trade) bool { return t.UserID == userID && t.AccountID == accountID })
}

// CountByUser counts the user's trades
func (m *MockTradeRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	trades, err := m.filter(0, func(t trading.Trade) bool { return t.UserID == userID })
	return len(trades), err
}

// NetPnLByAccount returns the net PnL of every trade booked against an account
func (m *MockTradeRepository) NetPnLByAccount(ctx context.Context, userID, accountID string) ([]float64, error) {
	trades, err := m.filter(0, func(t trading.Trade) bool { return t.UserID == userID && t.AccountID == accountID })
	if err != nil {
		return nil, err
	}
	values := make([]float64, 0, len(trades))
	for _, t := range trades {
		values = append(values, t.NetPnL)
	}
	return values, nil
}

// CountOrphans counts the user's trades whose account does not exist
func (m *MockTradeRepository) CountOrphans(ctx context.Context, userID string) (int, error) {
	orphans, err := m.FindOrphans(ctx, userID)
	return len(orphans), err
}

// FindOrphans retrieves the user's trades whose account does not exist
func (m *MockTradeRepository) FindOrphans(ctx context.Context, userID string) ([]trading.Trade, error) {
	m.mu.RLock()
	known := m.accounts[userID]
	m.mu.RUnlock()
	return m.filter(0, func(t trading.Trade) bool { return t.UserID == userID && !known[t.AccountID] })
}

// UsersWithOrphans lists every user owning at least one orphaned trade
func (m *MockTradeRepository) UsersWithOrphans(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	seen := make(map[string]bool)
	var users []string
	for _, t := range m.trades {
		if !m.accounts[t.UserID][t.AccountID] && !seen[t.UserID] {
			seen[t.UserID] = true
			users = append(users, t.UserID)
		}
	}
	sort.Strings(users)
	return users, nil
}

// ReassignOrphans points every orphaned trade of the user at accountID. The
// transaction is ignored; the update is applied under the mock's lock.
func (m *MockTradeRepository) ReassignOrphans(ctx context.Context, tx *sql.Tx, userID, accountID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	fixed := 0
	for i, t := range m.trades {
		if t.UserID == userID && !m.accounts[userID][t.AccountID] {
			m.trades[i].AccountID = accountID
			fixed++
		}
	}
	return fixed, nil
}

// filter returns matching trades newest first, capped at limit when positive
func (m *MockTradeRepository) filter(limit int, keep func(trading.Trade) bool) ([]trading.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	result := make([]trading.Trade, 0)
	for i := len(m.trades) - 1; i >= 0; i-- {
		if keep(m.trades[i]) {
			result = append(result, m.trades[i])
		}
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}
