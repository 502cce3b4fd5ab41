package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/etnz/folio"
)

// snapshotCmd holds the flags for the 'snapshot' subcommand.
type snapshotCmd struct {
	window string
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "display profit and loss over a time window" }
func (*snapshotCmd) Usage() string {
	return `fcs snapshot [-w <window>] [<symbol>]

  Displays realized and unrealized PnL for one asset, or for the whole
  portfolio, over a window (7d, 30d, 1y, all). Assets without a current
  market price are reported as unavailable instead of failing the report.
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.window, "w", string(folio.WindowAll), "Aggregation window: 7d, 30d, 1y or all.")
}

func (c *snapshotCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	window, err := folio.ParseWindow(c.window)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	scope := folio.ScopeAll
	if f.NArg() > 0 {
		scope = strings.ToUpper(f.Arg(0))
	}

	eng, err := openEngine()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer eng.Close()

	snap, err := eng.coord.GetSnapshot(ctx, scope, window)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# PnL %s (%s to %s)\n\n", window,
		snap.From.Format("2006-01-02"), snap.To.Format("2006-01-02"))
	b.WriteString("| Symbol | Quantity | Avg Cost | Realized | Unrealized |\n")
	b.WriteString("|---|---:|---:|---:|---:|\n")
	for _, row := range snap.Assets {
		unrealized := row.Unrealized.SignedString()
		if row.PriceUnavailable {
			unrealized = "unavailable"
		}
		avg := "-"
		if !row.Quantity.IsZero() {
			avg = row.AvgCost.String()
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			row.Symbol, row.Quantity, avg, row.Realized.SignedString(), unrealized)
	}
	fmt.Fprintf(&b, "\nRealized %s, unrealized %s, total **%s**.\n",
		snap.Realized.SignedString(), snap.Unrealized.SignedString(), snap.Total.SignedString())
	if snap.Incomplete {
		b.WriteString("\nSome assets could not be priced; unrealized figures are partial.\n")
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
