package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
)

type repairCmd struct {
	wire wireFunc
	out  io.Writer

	user string
	all  bool
}

func (*repairCmd) Name() string     { return "repair" }
func (*repairCmd) Synopsis() string { return "reassign trades whose account is missing" }
func (*repairCmd) Usage() string {
	return `repair (-user <user id> | -all)

  Moves a user's orphaned trades (no account, or an account that no longer
  belongs to them) to their default account. -all repairs every user that
  has orphans.
`
}

func (c *repairCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "User id to repair")
	f.BoolVar(&c.all, "all", false, "Repair every user with orphaned trades")
}

func (c *repairCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if (c.user == "") == !c.all {
		fmt.Fprintln(os.Stderr, "Error: exactly one of -user or -all is required.")
		return subcommands.ExitUsageError
	}

	container, err := c.wire()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer container.Close()

	if c.all {
		result, err := container.ReconciliationService.RepairAll(ctx)
		if result != nil {
			_ = printJSON(c.out, result)
		}
		if err != nil || (result != nil && result.Failed > 0) {
			fmt.Fprintln(os.Stderr, "Error: orphan repair failed for some users")
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	result, err := container.ReconciliationService.RepairOrphans(ctx, c.user)
	if result != nil {
		_ = printJSON(c.out, result)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error repairing orphans for %s: %v\n", c.user, err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
