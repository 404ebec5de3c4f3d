package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	"github.com/aristath/tradejournal/internal/modules/imports"
)

type importCmd struct {
	wire wireFunc
	out  io.Writer

	user    string
	account string
	format  string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a batch of trades from a CSV, TSV or JSON file" }
func (*importCmd) Usage() string {
	return `import -user <user id> [-account <account id>] [-format csv|tsv|json] <file>

  Imports every row of the file into the user's ledger. Without -account the
  rows are booked to the user's default account, which is created on first use.
  The format is taken from the file extension unless -format is given; "-"
  reads JSON from stdin.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "User id owning the trades (required)")
	f.StringVar(&c.account, "account", "", "Target account id (default account when empty)")
	f.StringVar(&c.format, "format", "", "Input format: csv, tsv or json (default: from extension)")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" || f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: -user and exactly one input file are required.")
		return subcommands.ExitUsageError
	}

	name := f.Arg(0)
	format := strings.ToLower(c.format)
	if format == "" {
		format = formatFromPath(name)
	}
	decode, ok := decoders[format]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unsupported format %q\n", format)
		return subcommands.ExitUsageError
	}

	var input io.Reader = os.Stdin
	if name != "-" {
		file, err := os.Open(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", name, err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		input = file
	}

	rows, err := decode(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding %s: %v\n", name, err)
		return subcommands.ExitFailure
	}

	container, err := c.wire()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer container.Close()

	result, err := container.Importer.ImportBatch(ctx, c.user, rows, c.account)
	if result != nil {
		if perr := printJSON(c.out, result); perr != nil {
			fmt.Fprintf(os.Stderr, "Error writing result: %v\n", perr)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing %s: %v\n", name, err)
		return subcommands.ExitFailure
	}
	if result.Errors > 0 {
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}

var decoders = map[string]func(io.Reader) ([]imports.Record, error){
	"csv":  imports.DecodeCSV,
	"tsv":  imports.DecodeTSV,
	"json": imports.DecodeJSON,
}

// formatFromPath guesses the input format from the file extension
func formatFromPath(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return "csv"
	case ".tsv", ".tab":
		return "tsv"
	default:
		return "json"
	}
}
