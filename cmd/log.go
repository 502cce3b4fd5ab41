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

// logCmd holds the flags for the 'log' subcommand.
type logCmd struct {
	head int
	tail int
}

func (*logCmd) Name() string     { return "log" }
func (*logCmd) Synopsis() string { return "list committed transactions" }
func (*logCmd) Usage() string {
	return `fcs log [-head <n> | -tail <n>]

  Lists committed transactions in ledger order (timestamp, then insertion
  sequence).
`
}

func (c *logCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.head, "head", 0, "Show only the first N transactions.")
	f.IntVar(&c.tail, "tail", 0, "Show only the last N transactions.")
}

func (c *logCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.head > 0 && c.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}

	eng, err := openEngine()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer eng.Close()

	var transactions []folio.Transaction
	for _, tx := range eng.coord.Transactions() {
		transactions = append(transactions, tx)
	}
	if c.head > 0 && len(transactions) > c.head {
		transactions = transactions[:c.head]
	}
	if c.tail > 0 && len(transactions) > c.tail {
		transactions = transactions[len(transactions)-c.tail:]
	}

	var b strings.Builder
	b.WriteString("| Time | Side | Quantity | Symbol | Price | Fee | Realized | Source |\n")
	b.WriteString("|---|---|---:|---|---:|---:|---:|---|\n")
	for _, tx := range transactions {
		realized := "-"
		if tx.Side == folio.Sell {
			realized = tx.RealizedPnL.SignedString()
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			tx.Time.Format("2006-01-02 15:04"), tx.Side, tx.Quantity, tx.Symbol,
			tx.Price, tx.Fee, realized, tx.Source)
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
