// Package reconciliation repairs trades whose account no longer exists.
package reconciliation

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/aristath/tradejournal/internal/database"
	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/events"
	"github.com/rs/zerolog"
)

// OrphanStore finds and reassigns orphaned trades
type OrphanStore interface {
	CountOrphans(ctx context.Context, userID string) (int, error)
	UsersWithOrphans(ctx context.Context) ([]string, error)
	ReassignOrphans(ctx context.Context, tx *sql.Tx, userID, accountID string) (int, error)
}

// RepairResult is the outcome of repairing one user's orphans
type RepairResult struct {
	Success    bool             `json:"success"`
	UserID     string           `json:"user_id"`
	FixedCount int              `json:"fixed_count"`
	AccountID  string           `json:"account_id,omitempty"`
	Kind       domain.ErrorKind `json:"kind,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// RepairAllResult aggregates a repair pass over every affected user
type RepairAllResult struct {
	Users      int            `json:"users"`
	FixedCount int            `json:"fixed_count"`
	Failed     int            `json:"failed"`
	Results    []RepairResult `json:"results"`
}

// Service repairs orphaned trades by moving them onto the user's default account
type Service struct {
	ledgerDB     *sql.DB
	trades       OrphanStore
	resolver     domain.AccountResolver
	storeTimeout time.Duration
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewService creates a new reconciliation service
func NewService(
	ledgerDB *sql.DB,
	trades OrphanStore,
	resolver domain.AccountResolver,
	storeTimeout time.Duration,
	eventManager *events.Manager,
	log zerolog.Logger,
) *Service {
	return &Service{
		ledgerDB:     ledgerDB,
		trades:       trades,
		resolver:     resolver,
		storeTimeout: storeTimeout,
		eventManager: eventManager,
		log:          log.With().Str("service", "reconciliation").Logger(),
	}
}

// CountOrphans reports how many of the user's trades point at a missing account
func (s *Service) CountOrphans(ctx context.Context, userID string) (int, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, domain.NewError(domain.KindMalformedBatchInput, "reconciliation.count", "user id is required")
	}

	storeCtx, cancel := database.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	count, err := s.trades.CountOrphans(storeCtx, userID)
	if err != nil {
		return 0, domain.StoreError("trades.count_orphans", err)
	}
	return count, nil
}

// RepairOrphans reassigns every orphaned trade of the user to the default
// account in one transaction. Without orphans it is a no-op and no account
// is created. The result is never nil.
func (s *Service) RepairOrphans(ctx context.Context, userID string) (*RepairResult, error) {
	result := &RepairResult{UserID: userID}

	count, err := s.CountOrphans(ctx, userID)
	if err != nil {
		return s.fail(result, err)
	}
	if count == 0 {
		result.Success = true
		return result, nil
	}

	accountID, err := s.resolver.Resolve(ctx, userID, "")
	if err != nil {
		return s.fail(result, err)
	}
	result.AccountID = accountID

	storeCtx, cancel := database.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	var fixed int
	err = database.WithTransaction(storeCtx, s.ledgerDB, func(tx *sql.Tx) error {
		var err error
		fixed, err = s.trades.ReassignOrphans(storeCtx, tx, userID, accountID)
		return err
	})
	if err != nil {
		return s.fail(result, domain.StoreError("trades.reassign_orphans", err))
	}

	result.Success = true
	result.FixedCount = fixed

	s.log.Info().
		Str("user_id", userID).
		Str("account_id", accountID).
		Int("fixed_count", fixed).
		Msg("Orphaned trades repaired")
	s.eventManager.EmitTyped("reconciliation", &events.OrphansRepairedData{
		UserID:     userID,
		AccountID:  accountID,
		FixedCount: fixed,
	})

	return result, nil
}

// RepairAll repairs every user that currently owns orphaned trades.
// A failure for one user does not stop the others.
func (s *Service) RepairAll(ctx context.Context) (*RepairAllResult, error) {
	storeCtx, cancel := database.WithTimeout(ctx, s.storeTimeout)
	users, err := s.trades.UsersWithOrphans(storeCtx)
	cancel()
	if err != nil {
		return nil, domain.StoreError("trades.users_with_orphans", err)
	}

	all := &RepairAllResult{Users: len(users), Results: []RepairResult{}}
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		result, err := s.RepairOrphans(ctx, userID)
		all.Results = append(all.Results, *result)
		if err != nil {
			all.Failed++
			continue
		}
		all.FixedCount += result.FixedCount
	}

	s.log.Info().
		Int("users", all.Users).
		Int("fixed_count", all.FixedCount).
		Int("failed", all.Failed).
		Msg("Orphan repair pass completed")

	return all, nil
}

func (s *Service) fail(result *RepairResult, err error) (*RepairResult, error) {
	result.Success = false
	result.Kind = domain.KindOf(err)
	result.Error = err.Error()

	if !errors.Is(err, domain.ErrMalformedBatchInput) {
		s.log.Error().Err(err).Str("user_id", result.UserID).Msg("Orphan repair failed")
		s.eventManager.EmitError("reconciliation", err, string(result.Kind), map[string]interface{}{
			"user_id": result.UserID,
		})
	}
	return result, err
}
