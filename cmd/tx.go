package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/folio"
)

// tradeCmd holds the flags shared by the 'buy' and 'sell' subcommands.
type tradeCmd struct {
	side     folio.Side
	symbol   string
	quantity string
	price    string
	fee      string
	date     string
	memo     string
}

type buyCmd struct{ tradeCmd }
type sellCmd struct{ tradeCmd }

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "record a purchase of an asset" }
func (*buyCmd) Usage() string {
	return `fcs buy -s <symbol> -q <quantity> -p <price> [-f <fee>] [-d <date>] [-m <memo>]

  Records a buy transaction in the ledger and prints the updated position.
`
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "record a sale of an asset" }
func (*sellCmd) Usage() string {
	return `fcs sell -s <symbol> -q <quantity> -p <price> [-f <fee>] [-d <date>] [-m <memo>]

  Records a sell transaction in the ledger and prints the realized PnL.
  Selling more than the held quantity is rejected.
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet)  { c.side = folio.Buy; c.setFlags(f) }
func (c *sellCmd) SetFlags(f *flag.FlagSet) { c.side = folio.Sell; c.setFlags(f) }

func (c *tradeCmd) setFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "Asset symbol (e.g. AAPL, BTC-USD).")
	f.StringVar(&c.quantity, "q", "", "Number of units, exact decimal.")
	f.StringVar(&c.price, "p", "", "Price per unit, exact decimal.")
	f.StringVar(&c.fee, "f", "", "Fee or commission, exact decimal. Defaults to 0.")
	f.StringVar(&c.date, "d", "", "Transaction timestamp. Defaults to now; a past date backdates the transaction.")
	f.StringVar(&c.memo, "m", "", "Free-form note attached to the transaction.")
}

func (c *buyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.execute(ctx)
}
func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.execute(ctx)
}

func (c *tradeCmd) execute(ctx context.Context) subcommands.ExitStatus {
	eng, err := openEngine()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer eng.Close()

	raw := folio.RawRecord{
		Symbol:    c.symbol,
		Side:      string(c.side),
		Quantity:  c.quantity,
		Price:     c.price,
		Fee:       c.fee,
		Timestamp: c.date,
		Memo:      c.memo,
	}
	res, err := eng.coord.Ingest(ctx, raw, folio.Manual)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if res.Status == folio.Rejected {
		fmt.Fprintf(os.Stderr, "Error: %v\n", res.Errs)
		return subcommands.ExitUsageError
	}

	tx := res.Transaction
	pos, err := eng.coord.GetPosition(tx.Symbol)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Committed %s (%s)\n", tx, tx.ID)
	if tx.Side == folio.Sell {
		fmt.Printf("Realized PnL: %s\n", tx.RealizedPnL.SignedString())
	}
	if cost, ok := pos.AverageCost(); ok {
		fmt.Printf("Position: %s %s, average cost %s\n", pos.Quantity, pos.Symbol, cost)
	} else {
		fmt.Printf("Position: %s closed, cumulative realized PnL %s\n", pos.Symbol, pos.Realized.SignedString())
	}
	return subcommands.ExitSuccess
}
