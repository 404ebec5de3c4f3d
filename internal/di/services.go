package di

import (
	"fmt"

	"github.com/aristath/tradejournal/internal/config"
	"github.com/aristath/tradejournal/internal/events"
	"github.com/aristath/tradejournal/internal/modules/accounts"
	"github.com/aristath/tradejournal/internal/modules/contracts"
	"github.com/aristath/tradejournal/internal/modules/imports"
	"github.com/aristath/tradejournal/internal/modules/pnl"
	"github.com/aristath/tradejournal/internal/modules/reconciliation"
	"github.com/aristath/tradejournal/internal/modules/trading"
	"github.com/rs/zerolog"
)

// InitializeServices creates the event system, pricing and all services
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.EventBus = events.NewBus(log)
	container.EventManager = events.NewManager(container.EventBus, log)

	table, err := loadContractTable(cfg, log)
	if err != nil {
		return err
	}
	container.ContractTable = table
	container.Calculator = pnl.NewCalculator(table)

	container.AccountResolver = accounts.NewResolver(container.AccountRepo, accounts.ResolverConfig{
		DefaultName:     cfg.DefaultAccountName,
		DefaultPlatform: cfg.DefaultAccountPlatform,
		StoreTimeout:    cfg.StoreTimeout,
	}, container.EventManager, log)

	container.AccountService = accounts.NewService(
		container.AccountRepo,
		container.TradeRepo,
		cfg.StoreTimeout,
		container.EventManager,
		log,
	)

	container.TradingService = trading.NewService(container.TradeRepo, cfg.StoreTimeout, log)

	container.Importer = imports.NewImporter(
		container.AccountResolver,
		container.TradeRepo,
		container.Calculator,
		imports.Options{
			SidePolicy:   cfg.SidePolicy,
			PnLPolicy:    cfg.PnLPolicy,
			StoreTimeout: cfg.StoreTimeout,
		},
		container.EventManager,
		log,
	)

	container.ReconciliationService = reconciliation.NewService(
		container.LedgerDB.Conn(),
		container.TradeRepo,
		container.AccountResolver,
		cfg.StoreTimeout,
		container.EventManager,
		log,
	)

	log.Info().
		Str("side_policy", string(cfg.SidePolicy)).
		Str("pnl_policy", string(cfg.PnLPolicy)).
		Int("contract_families", len(table.Specs())).
		Msg("Services initialized")

	return nil
}

// loadContractTable returns the default table, overridden by CONTRACTS_FILE when set
func loadContractTable(cfg *config.Config, log zerolog.Logger) (*contracts.Table, error) {
	if cfg.ContractsFile == "" {
		return contracts.DefaultTable(), nil
	}

	table, err := contracts.LoadFile(cfg.ContractsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract table: %w", err)
	}
	log.Info().Str("file", cfg.ContractsFile).Msg("Contract table loaded")
	return table, nil
}
