package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/aristath/tradejournal/internal/modules/pnl"
)

type pnlCmd struct {
	wire wireFunc
	out  io.Writer

	input pnl.Input
}

func (*pnlCmd) Name() string     { return "pnl" }
func (*pnlCmd) Synopsis() string { return "price a single round-trip trade" }
func (*pnlCmd) Usage() string {
	return `pnl -symbol <symbol> -side long|short -entry <price> -exit <price> [-qty <n>] [-fees <amount>]

  Prints gross, fees and net PnL for one trade using the contract table.
  Fees default to the per-contract round-trip commission.
`
}

func (c *pnlCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.input.Symbol, "symbol", "", "Contract symbol, e.g. NQH5 (required)")
	f.StringVar(&c.input.Side, "side", "long", "Trade direction: long, short, buy or sell")
	f.Float64Var(&c.input.EntryPrice, "entry", 0, "Entry price (required)")
	f.Float64Var(&c.input.ExitPrice, "exit", 0, "Exit price (required)")
	f.IntVar(&c.input.Quantity, "qty", 1, "Number of contracts")
	f.Float64Var(&c.input.Fees, "fees", 0, "Explicit total fees (0 computes commission)")
}

func (c *pnlCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.input.Symbol == "" {
		fmt.Fprintln(os.Stderr, "Error: -symbol is required.")
		return subcommands.ExitUsageError
	}

	container, err := c.wire()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer container.Close()

	result, err := container.Calculator.Calculate(c.input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := printJSON(c.out, result); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing result: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
