// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/aristath/tradejournal/internal/database"
	"github.com/aristath/tradejournal/internal/events"
	"github.com/aristath/tradejournal/internal/modules/accounts"
	"github.com/aristath/tradejournal/internal/modules/contracts"
	"github.com/aristath/tradejournal/internal/modules/imports"
	"github.com/aristath/tradejournal/internal/modules/pnl"
	"github.com/aristath/tradejournal/internal/modules/reconciliation"
	"github.com/aristath/tradejournal/internal/modules/trading"
	"github.com/aristath/tradejournal/internal/scheduler"
)

// Container holds all application dependencies.
// It is created by Wire and passed to the server and CLI commands.
type Container struct {
	// Databases
	LedgerDB *database.DB

	// Events
	EventBus     *events.Bus
	EventManager *events.Manager

	// Pricing
	ContractTable *contracts.Table
	Calculator    *pnl.Calculator

	// Repositories
	AccountRepo *accounts.AccountRepository
	TradeRepo   *trading.TradeRepository

	// Services
	AccountResolver       *accounts.Resolver
	AccountService        *accounts.Service
	TradingService        *trading.Service
	Importer              *imports.Importer
	ReconciliationService *reconciliation.Service

	// Background jobs
	Scheduler *scheduler.Scheduler
	Jobs      *JobInstances
}

// JobInstances holds registered jobs so they can also be triggered on demand
type JobInstances struct {
	OrphanRepair  scheduler.Job
	WALCheckpoint scheduler.Job
}

// ByName returns the job registered under name, or nil
func (j *JobInstances) ByName(name string) scheduler.Job {
	if j == nil {
		return nil
	}
	for _, job := range []scheduler.Job{j.OrphanRepair, j.WALCheckpoint} {
		if job != nil && job.Name() == name {
			return job
		}
	}
	return nil
}

// Close releases the container's resources
func (c *Container) Close() error {
	if c.LedgerDB == nil {
		return nil
	}
	return c.LedgerDB.Close()
}
