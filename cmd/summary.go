package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
)

// summaryCmd holds the flags for the 'summary' subcommand.
type summaryCmd struct{}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display a portfolio performance summary" }
func (*summaryCmd) Usage() string {
	return `fcs summary

  Displays invested capital, current value and PnL over every window.
`
}
func (*summaryCmd) SetFlags(*flag.FlagSet) {}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	eng, err := openEngine()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer eng.Close()

	s, err := eng.agg.Summarize(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	var b strings.Builder
	b.WriteString("# Portfolio summary\n\n")
	fmt.Fprintf(&b, "- Invested: %s\n", s.Invested)
	fmt.Fprintf(&b, "- Value: %s\n", s.Value)
	fmt.Fprintf(&b, "- Open positions: %d (%d transactions)\n\n", s.Positions, s.Transactions)

	b.WriteString("| Window | Realized | Unrealized | Total | Return |\n")
	b.WriteString("|---|---:|---:|---:|---:|\n")
	for _, w := range s.Windows {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			w.Window, w.Realized.SignedString(), w.Unrealized.SignedString(),
			w.Total.SignedString(), w.Percent.SignedString())
	}
	if s.Incomplete {
		b.WriteString("\nSome assets could not be priced; value and unrealized figures are partial.\n")
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
