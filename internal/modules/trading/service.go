package trading

import (
	"context"
	"time"

	"github.com/aristath/tradejournal/internal/database"
	"github.com/aristath/tradejournal/internal/domain"
	"github.com/rs/zerolog"
)

// Service provides read access to the user's trades
type Service struct {
	repo         TradeRepositoryInterface
	storeTimeout time.Duration
	log          zerolog.Logger
}

// NewService creates a new trading service
func NewService(repo TradeRepositoryInterface, storeTimeout time.Duration, log zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		storeTimeout: storeTimeout,
		log:          log.With().Str("service", "trading").Logger(),
	}
}

// List returns the user's trades, optionally restricted to one account
func (s *Service) List(ctx context.Context, userID, accountID string, limit int) ([]Trade, error) {
	ctx, cancel := database.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	var (
		trades []Trade
		err    error
	)
	if accountID != "" {
		trades, err = s.repo.ListByAccount(ctx, userID, accountID, limit)
	} else {
		trades, err = s.repo.ListByUser(ctx, userID, limit)
	}
	if err != nil {
		return nil, domain.StoreError("trades.list", err)
	}
	return trades, nil
}

// Get returns one of the user's trades, or nil if it does not exist
func (s *Service) Get(ctx context.Context, userID, id string) (*Trade, error) {
	ctx, cancel := database.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	trade, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, domain.StoreError("trades.get", err)
	}
	return trade, nil
}

// Count returns how many trades the user has
func (s *Service) Count(ctx context.Context, userID string) (int, error) {
	ctx, cancel := database.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	count, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return 0, domain.StoreError("trades.count", err)
	}
	return count, nil
}
