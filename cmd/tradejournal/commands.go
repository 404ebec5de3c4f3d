package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/aristath/tradejournal/internal/config"
	"github.com/aristath/tradejournal/internal/di"
	"github.com/aristath/tradejournal/pkg/logger"
)

// wireFunc builds the dependency container a command runs against
type wireFunc func() (*di.Container, error)

// commands returns every subcommand, sharing one container factory and output
func commands(wire wireFunc, out io.Writer) []subcommands.Command {
	return []subcommands.Command{
		&importCmd{wire: wire, out: out},
		&repairCmd{wire: wire, out: out},
		&pnlCmd{wire: wire, out: out},
	}
}

// loadContainer wires the container from the environment, logging to stderr
func loadContainer() (*di.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
		Output: os.Stderr,
	})

	return di.Wire(cfg, log)
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
