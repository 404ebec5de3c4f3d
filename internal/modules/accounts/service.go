package accounts

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/aristath/tradejournal/internal/database"
	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/events"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PnLSource supplies the net PnL of every trade booked against an account
type PnLSource interface {
	NetPnLByAccount(ctx context.Context, userID, accountID string) ([]float64, error)
}

// Service provides account management operations
type Service struct {
	repo         AccountRepositoryInterface
	pnlSource    PnLSource
	storeTimeout time.Duration
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewService creates a new account service
func NewService(repo AccountRepositoryInterface, pnlSource PnLSource, storeTimeout time.Duration, eventManager *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		pnlSource:    pnlSource,
		storeTimeout: storeTimeout,
		eventManager: eventManager,
		log:          log.With().Str("service", "accounts").Logger(),
	}
}

// List returns the user's accounts
func (s *Service) List(ctx context.Context, userID string) ([]Account, error) {
	ctx, cancel := database.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	accounts, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, domain.StoreError("accounts.list", err)
	}
	return accounts, nil
}

// Get returns one of the user's accounts, or nil if the user owns no such account
func (s *Service) Get(ctx context.Context, userID, id string) (*Account, error) {
	ctx, cancel := database.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.StoreError("accounts.get", err)
	}
	if account == nil || account.UserID != userID {
		return nil, nil
	}
	return account, nil
}

// Create adds a named, non-default account for the user
func (s *Service) Create(ctx context.Context, userID, name, platform string) (*Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewError(domain.KindAccountCreationFailed, "accounts.create", "name is required")
	}

	ctx, cancel := database.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	account, err := s.repo.Create(ctx, Account{UserID: userID, Name: name, Platform: platform})
	if err != nil {
		if domain.KindOf(err) == domain.KindTimeout {
			return nil, domain.StoreError("accounts.create", err)
		}
		return nil, domain.WrapError(domain.KindAccountCreationFailed, "accounts.create", err)
	}

	s.eventManager.EmitTyped("accounts", &events.AccountCreatedData{
		UserID:    userID,
		AccountID: account.ID,
		Name:      account.Name,
	})
	return account, nil
}

// Delete removes one of the user's accounts
func (s *Service) Delete(ctx context.Context, userID, id string) (bool, error) {
	ctx, cancel := database.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	deleted, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return false, domain.StoreError("accounts.delete", err)
	}
	return deleted, nil
}

// Stats computes trade statistics for one of the user's accounts
func (s *Service) Stats(ctx context.Context, userID, accountID string) (*Stats, error) {
	ctx, cancel := database.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	values, err := s.pnlSource.NetPnLByAccount(ctx, userID, accountID)
	if err != nil {
		return nil, domain.StoreError("accounts.stats", err)
	}
	return ComputeStats(accountID, values), nil
}

// ComputeStats summarizes a list of per-trade net PnL values
func ComputeStats(accountID string, netPnL []float64) *Stats {
	st := &Stats{AccountID: accountID, TradeCount: len(netPnL)}
	if len(netPnL) == 0 {
		return st
	}

	for _, v := range netPnL {
		switch {
		case v > 0:
			st.Wins++
		case v < 0:
			st.Losses++
		}
	}

	st.WinRate = round2(float64(st.Wins) / float64(len(netPnL)))
	st.TotalNetPnL = round2(floats.Sum(netPnL))
	st.MeanNetPnL = round2(stat.Mean(netPnL, nil))
	if len(netPnL) > 1 {
		st.StdDevNetPnL = round2(stat.StdDev(netPnL, nil))
	}
	st.BestTrade = floats.Max(netPnL)
	st.WorstTrade = floats.Min(netPnL)

	return st
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

