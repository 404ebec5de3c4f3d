package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aristath/tradejournal/internal/database"
	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/events"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Compile-time check that Resolver implements domain.AccountResolver
var _ domain.AccountResolver = (*Resolver)(nil)

// ResolverConfig holds the defaults used when a user's first account is created
type ResolverConfig struct {
	DefaultName     string
	DefaultPlatform string
	StoreTimeout    time.Duration
}

// Resolver maps users to the account their trades are booked against.
// Concurrent resolutions for one user share a single store round trip, and
// the store's unique default-account index keeps separate processes from
// creating a second default.
type Resolver struct {
	repo         AccountRepositoryInterface
	group        singleflight.Group
	cfg          ResolverConfig
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewResolver creates a new account resolver
func NewResolver(repo AccountRepositoryInterface, cfg ResolverConfig, eventManager *events.Manager, log zerolog.Logger) *Resolver {
	if cfg.DefaultName == "" {
		cfg.DefaultName = "Default Account"
	}
	return &Resolver{
		repo:         repo,
		cfg:          cfg,
		eventManager: eventManager,
		log:          log.With().Str("service", "account_resolver").Logger(),
	}
}

// Resolve returns explicitAccountID unchanged when set. Otherwise it returns
// the user's existing account, creating the default account if there is none.
func (r *Resolver) Resolve(ctx context.Context, userID, explicitAccountID string) (string, error) {
	if id := strings.TrimSpace(explicitAccountID); id != "" {
		return id, nil
	}
	if strings.TrimSpace(userID) == "" {
		return "", domain.NewError(domain.KindAccountCreationFailed, "accounts.resolve", "user id is required")
	}

	// The shared call must outlive any single caller giving up
	detached := context.WithoutCancel(ctx)
	ch := r.group.DoChan(userID, func() (interface{}, error) {
		return r.findOrCreate(detached, userID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", classify(ctx.Err())
	}
}

func (r *Resolver) findOrCreate(ctx context.Context, userID string) (string, error) {
	lookupCtx, cancel := database.WithTimeout(ctx, r.cfg.StoreTimeout)
	existing, err := r.repo.FirstForUser(lookupCtx, userID)
	cancel()
	if err != nil {
		return "", classify(err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	createCtx, cancel := database.WithTimeout(ctx, r.cfg.StoreTimeout)
	account, created, err := r.repo.InsertDefaultIfAbsent(createCtx, userID, r.cfg.DefaultName, r.cfg.DefaultPlatform)
	cancel()
	if err != nil {
		return "", classify(err)
	}

	if created {
		r.log.Info().Str("user_id", userID).Str("account_id", account.ID).Msg("Created default account")
		r.eventManager.EmitTyped("accounts", &events.AccountCreatedData{
			UserID:    userID,
			AccountID: account.ID,
			Name:      account.Name,
			IsDefault: true,
		})
	} else {
		r.log.Debug().Str("user_id", userID).Str("account_id", account.ID).Msg("Default account already existed")
	}

	return account.ID, nil
}

// classify reports deadline and cancellation errors as Timeout and every other
// store failure as AccountCreationFailed
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.WrapError(domain.KindTimeout, "accounts.resolve", err)
	}
	return domain.WrapError(domain.KindAccountCreationFailed, "accounts.resolve", err)
}
