package imports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/aristath/tradejournal/internal/config"
	"github.com/aristath/tradejournal/internal/database"
	"github.com/aristath/tradejournal/internal/domain"
	"github.com/aristath/tradejournal/internal/events"
	"github.com/aristath/tradejournal/internal/modules/pnl"
	"github.com/aristath/tradejournal/internal/modules/trading"
	"github.com/rs/zerolog"
)

// pnlTolerance is the largest source/computed difference not flagged as a mismatch
const pnlTolerance = 0.01

// TradeStore persists imported trades
type TradeStore interface {
	Create(ctx context.Context, trade trading.Trade) (*trading.Trade, error)
}

// Options configures import policies
type Options struct {
	SidePolicy   config.SidePolicy
	PnLPolicy    config.PnLPolicy
	StoreTimeout time.Duration
	Now          func() time.Time
}

// Importer books batches of raw rows as trades.
// Rows are processed sequentially in input order; concurrent batches are safe.
type Importer struct {
	resolver     domain.AccountResolver
	trades       TradeStore
	calculator   *pnl.Calculator
	normalizer   *Normalizer
	opts         Options
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewImporter creates a new importer
func NewImporter(
	resolver domain.AccountResolver,
	trades TradeStore,
	calculator *pnl.Calculator,
	opts Options,
	eventManager *events.Manager,
	log zerolog.Logger,
) *Importer {
	if opts.SidePolicy == "" {
		opts.SidePolicy = config.SidePolicyPermissive
	}
	if opts.PnLPolicy == "" {
		opts.PnLPolicy = config.PnLPolicyRecompute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Importer{
		resolver:     resolver,
		trades:       trades,
		calculator:   calculator,
		normalizer:   NewNormalizer(opts.SidePolicy, opts.Now),
		opts:         opts,
		eventManager: eventManager,
		log:          log.With().Str("service", "importer").Logger(),
	}
}

// ImportBatch resolves the account once and then imports every row.
//
// A non-nil error means the batch failed as a whole (malformed input or
// account resolution) or was cancelled. The returned result is never nil:
// on cancellation it holds the outcomes of the rows finished before the
// context ended, and those rows stay persisted.
func (im *Importer) ImportBatch(ctx context.Context, userID string, rows []Record, accountID string) (*BatchResult, error) {
	result := &BatchResult{Results: []ImportOutcome{}}

	if strings.TrimSpace(userID) == "" {
		return im.fail(result, domain.NewError(domain.KindMalformedBatchInput, "import", "user id is required"))
	}
	if rows == nil {
		return im.fail(result, domain.NewError(domain.KindMalformedBatchInput, "import", "rows must be a sequence"))
	}
	result.Total = len(rows)

	resolved, err := im.resolver.Resolve(ctx, userID, accountID)
	if err != nil {
		if kind := domain.KindOf(err); kind != domain.KindTimeout && kind != domain.KindAccountCreationFailed {
			err = domain.WrapError(domain.KindAccountCreationFailed, "import", err)
		}
		return im.fail(result, err)
	}
	result.AccountID = resolved

	for i, rec := range rows {
		if ctx.Err() != nil {
			break
		}

		outcome := im.importRow(ctx, userID, resolved, i, rec)
		if !outcome.Success && ctx.Err() != nil {
			// The row failed because the caller went away; it is not reported
			break
		}
		result.add(outcome)
	}

	if err := ctx.Err(); err != nil {
		result.Cancelled = true
		result.Success = false
		result.Error = fmt.Sprintf("import cancelled after %d of %d rows", len(result.Results), len(rows))
		im.log.Warn().
			Str("user_id", userID).
			Int("completed", len(result.Results)).
			Int("total", len(rows)).
			Msg("Import cancelled")
		im.emit(userID, result)
		return result, err
	}

	result.Success = true
	im.log.Info().
		Str("user_id", userID).
		Str("account_id", resolved).
		Int("processed", result.Processed).
		Int("errors", result.Errors).
		Msg("Import batch completed")
	im.emit(userID, result)

	return result, nil
}

func (im *Importer) fail(result *BatchResult, err error) (*BatchResult, error) {
	result.Success = false
	result.Kind = domain.KindOf(err)
	result.Error = err.Error()
	im.log.Error().Err(err).Str("kind", string(result.Kind)).Msg("Import batch rejected")
	return result, err
}

func (im *Importer) emit(userID string, result *BatchResult) {
	im.eventManager.EmitTyped("imports", &events.TradesImportedData{
		UserID:    userID,
		AccountID: result.AccountID,
		Processed: result.Processed,
		Errors:    result.Errors,
		Partial:   result.Cancelled,
	})
}

// importRow runs one row through normalize, price and persist.
// Panics are contained to the row.
func (im *Importer) importRow(ctx context.Context, userID, accountID string, index int, rec Record) (outcome ImportOutcome) {
	machine := newRowMachine()
	outcome = ImportOutcome{Row: index, AccountID: accountID}

	fail := func(err error) ImportOutcome {
		_ = machine.advance(StateFailed)
		outcome.Success = false
		outcome.State = machine.state
		outcome.FailedAt = machine.failedAt
		outcome.Kind = domain.KindOf(err)
		outcome.Error = err.Error()
		im.log.Warn().
			Err(err).
			Int("row", index).
			Str("kind", string(outcome.Kind)).
			Str("user_id", userID).
			Str("failed_at", string(outcome.FailedAt)).
			Msg("Import row failed")
		return outcome
	}

	defer func() {
		if r := recover(); r != nil {
			outcome = fail(domain.NewError(domain.KindPersistenceFailure, "import",
				fmt.Sprintf("unexpected panic: %v", r)))
		}
	}()

	row, err := im.normalizer.Normalize(index, rec)
	if err != nil {
		return fail(err)
	}
	_ = machine.advance(StateNormalized)

	if row.SideDefaulted {
		im.log.Warn().
			Int("row", index).
			Str("raw_side", row.RawSide).
			Msg("Unmapped side booked as long")
	}

	priced, err := im.price(row)
	if err != nil {
		return fail(err)
	}
	_ = machine.advance(StatePriced)

	rawSource, err := json.Marshal(rec)
	if err != nil {
		return fail(domain.WrapError(domain.KindPersistenceFailure, "import", err))
	}

	trade := trading.Trade{
		UserID:     userID,
		AccountID:  accountID,
		Symbol:     row.Symbol,
		Side:       row.Side,
		Quantity:   row.Quantity,
		EntryPrice: row.EntryPrice,
		ExitPrice:  row.ExitPrice,
		EnteredAt:  row.EnteredAt,
		ExitedAt:   row.ExitedAt,
		NetPnL:     priced.NetPnL,
		Fees:       priced.Fees,
		RawSource:  rawSource,
		Analytics:  im.analytics(row, priced),
	}

	storeCtx, cancel := database.WithTimeout(ctx, im.opts.StoreTimeout)
	defer cancel()
	created, err := im.trades.Create(storeCtx, trade)
	if err != nil {
		return fail(domain.StoreError("trades.create", err))
	}
	_ = machine.advance(StatePersisted)

	net := created.NetPnL
	outcome.Success = true
	outcome.TradeID = created.ID
	outcome.NetPnL = &net
	outcome.State = machine.state
	return outcome
}

// price applies the configured pnl policy
func (im *Importer) price(row RawImportRow) (pnl.Result, error) {
	if row.PnL != nil {
		bothPricesMissing := !row.HasEntryPrice && !row.HasExitPrice
		if im.opts.PnLPolicy == config.PnLPolicyPreferSource || bothPricesMissing {
			return im.calculator.FromSourcePnL(row.Symbol, row.Quantity, row.Fees, *row.PnL)
		}
	}

	if !row.HasEntryPrice || !row.HasExitPrice {
		return pnl.Result{}, domain.NewError(domain.KindInvalidPrice, "price",
			"entry_price and exit_price are required unless the row reports pnl")
	}

	return im.calculator.Calculate(pnl.Input{
		Symbol:     row.Symbol,
		Side:       string(row.Side),
		EntryPrice: row.EntryPrice,
		ExitPrice:  row.ExitPrice,
		Quantity:   row.Quantity,
		Fees:       row.Fees,
	})
}

func (im *Importer) analytics(row RawImportRow, res pnl.Result) trading.Analytics {
	a := trading.Analytics{
		GrossPnL:      res.GrossPnL,
		NetPnL:        res.NetPnL,
		Fees:          res.Fees,
		Method:        res.Method,
		Ticks:         res.Ticks,
		TickSize:      res.TickSize,
		Multiplier:    res.Multiplier,
		SideDefaulted: row.SideDefaulted,
		DateDefaulted: row.DateDefaulted,
		DateSource:    row.DateSource,
	}
	if row.SideDefaulted {
		a.RawSide = row.RawSide
	}
	if row.PnL != nil {
		source := *row.PnL
		a.SourcePnL = &source
		a.PnLMismatch = math.Abs(source-res.NetPnL) > pnlTolerance
	}
	return a
}

// IsCancelled reports whether err ended a batch early
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
