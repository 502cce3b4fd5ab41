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

// positionCmd holds the flags for the 'position' subcommand.
type positionCmd struct {
	asOf string
}

func (*positionCmd) Name() string     { return "position" }
func (*positionCmd) Synopsis() string { return "display current holdings" }
func (*positionCmd) Usage() string {
	return `fcs position [-d <date>] [<symbol>]

  Displays the position of one asset, or of every asset in the ledger.
  With -d, the position is rebuilt by replaying the transaction log up to
  that date.
`
}

func (c *positionCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.asOf, "d", "", "Rebuild the position as of this date instead of now.")
}

func (c *positionCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	eng, err := openEngine()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer eng.Close()

	positions := eng.coord.Positions()
	if f.NArg() > 0 {
		symbol := strings.ToUpper(f.Arg(0))
		pos, err := eng.coord.GetPosition(symbol)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		positions = positions[:0]
		positions = append(positions, pos)
	}
	if c.asOf != "" {
		asOf, err := folio.ParseTime(c.asOf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
			return subcommands.ExitUsageError
		}
		for i := range positions {
			positions[i] = eng.coord.ReplayLog(positions[i].Symbol, asOf)
		}
	}

	var b strings.Builder
	b.WriteString("| Symbol | Quantity | Avg Cost | Basis | Realized PnL |\n")
	b.WriteString("|---|---:|---:|---:|---:|\n")
	for _, pos := range positions {
		avg := "-"
		if cost, ok := pos.AverageCost(); ok {
			avg = cost.String()
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			pos.Symbol, pos.Quantity, avg, pos.Basis(), pos.Realized.SignedString())
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
