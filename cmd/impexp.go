package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/folio"
)

// exportCmd holds the flags for the 'export' subcommand.
type exportCmd struct {
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the transaction log as CSV" }
func (*exportCmd) Usage() string {
	return `fcs export [-o <file>]

  Writes every committed transaction as CSV, to stdout or to a file.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file. Defaults to stdout.")
}

func (c *exportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	eng, err := openEngine()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer eng.Close()

	out := os.Stdout
	if c.output != "" {
		out, err = os.Create(c.output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %q: %v\n", c.output, err)
			return subcommands.ExitFailure
		}
		defer out.Close()
	}
	if err := eng.coord.Export(out); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// importCmd holds the flags for the 'import' subcommand.
type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import transactions from a CSV file" }
func (*importCmd) Usage() string {
	return `fcs import <file>...

  Reads transactions from CSV files (columns: time, symbol, side, quantity,
  price, fee, memo) and commits them through the regular validation path.
  Invalid rows are reported and skipped; valid rows are committed.
`
}
func (*importCmd) SetFlags(*flag.FlagSet) {}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: no file given.")
		return subcommands.ExitUsageError
	}

	eng, err := openEngine()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer eng.Close()

	status := subcommands.ExitSuccess
	for _, path := range f.Args() {
		in, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening %q: %v\n", path, err)
			status = subcommands.ExitFailure
			continue
		}
		records, err := folio.ImportRecords(in)
		in.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", path, err)
			status = subcommands.ExitFailure
			continue
		}

		committed := 0
		for i, raw := range records {
			res, err := eng.coord.Ingest(ctx, raw, folio.Manual)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return subcommands.ExitFailure
			}
			if res.Status == folio.Rejected {
				fmt.Fprintf(os.Stderr, "%s row %d: %v\n", path, i+2, res.Errs)
				status = subcommands.ExitFailure
				continue
			}
			committed++
		}
		fmt.Printf("%s: committed %d of %d transactions\n", path, committed, len(records))
	}
	return status
}
