package di

import (
	"github.com/aristath/tradejournal/internal/modules/accounts"
	"github.com/aristath/tradejournal/internal/modules/trading"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates all repositories over the container's databases
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	conn := container.LedgerDB.Conn()

	container.AccountRepo = accounts.NewAccountRepository(conn, log)
	container.TradeRepo = trading.NewTradeRepository(conn, log)

	log.Info().Msg("Repositories initialized")
	return nil
}
