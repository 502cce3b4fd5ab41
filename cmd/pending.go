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

type pendingCmd struct{}

func (*pendingCmd) Name() string     { return "pending" }
func (*pendingCmd) Synopsis() string { return "list extractions awaiting review" }
func (*pendingCmd) Usage() string {
	return `fcs pending

  Lists AI extractions the confidence gate deferred, with the reasons.
  Use 'fcs confirm <id>' or 'fcs reject <id>' to resolve them.
`
}
func (*pendingCmd) SetFlags(*flag.FlagSet) {}

func (c *pendingCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	eng, err := openEngine()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer eng.Close()

	pending := eng.coord.Pending()
	if len(pending) == 0 {
		fmt.Println("No extraction awaiting review.")
		return subcommands.ExitSuccess
	}

	var b strings.Builder
	b.WriteString("# Pending extractions\n\n")
	for _, p := range pending {
		fmt.Fprintf(&b, "## %s\n\n", p.ID)
		fmt.Fprintf(&b, "  %s %s %s @ %s (captured %s)\n\n", p.Raw.Side, p.Raw.Quantity, p.Raw.Symbol, p.Raw.Price, p.Created.Format("2006-01-02 15:04"))
		for _, reason := range p.Reasons {
			fmt.Fprintf(&b, "- %s\n", reason)
		}
		b.WriteString("\n")
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}

type confirmCmd struct{}

func (*confirmCmd) Name() string     { return "confirm" }
func (*confirmCmd) Synopsis() string { return "commit a deferred extraction to the ledger" }
func (*confirmCmd) Usage() string {
	return `fcs confirm <id>...

  Commits deferred extractions after human review. Confirming the same id
  twice is an error, never a duplicate transaction.
`
}
func (*confirmCmd) SetFlags(*flag.FlagSet) {}

func (c *confirmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: no pending id given.")
		return subcommands.ExitUsageError
	}
	eng, err := openEngine()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer eng.Close()

	status := subcommands.ExitSuccess
	for _, id := range f.Args() {
		res, err := eng.coord.ConfirmPending(ctx, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error confirming %q: %v\n", id, err)
			status = subcommands.ExitFailure
			continue
		}
		switch res.Status {
		case folio.Committed:
			fmt.Printf("%s: committed %s (%s)\n", id, res.Transaction, res.Transaction.ID)
		case folio.Rejected:
			fmt.Fprintf(os.Stderr, "%s: rejected: %v\n", id, res.Errs)
			status = subcommands.ExitFailure
		}
	}
	return status
}

type rejectCmd struct{}

func (*rejectCmd) Name() string     { return "reject" }
func (*rejectCmd) Synopsis() string { return "discard a deferred extraction" }
func (*rejectCmd) Usage() string {
	return `fcs reject <id>...

  Discards deferred extractions. The record is kept for audit but never
  reaches the ledger.
`
}
func (*rejectCmd) SetFlags(*flag.FlagSet) {}

func (c *rejectCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: no pending id given.")
		return subcommands.ExitUsageError
	}
	eng, err := openEngine()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer eng.Close()

	status := subcommands.ExitSuccess
	for _, id := range f.Args() {
		if err := eng.coord.RejectPending(id); err != nil {
			fmt.Fprintf(os.Stderr, "Error rejecting %q: %v\n", id, err)
			status = subcommands.ExitFailure
			continue
		}
		fmt.Printf("%s: rejected\n", id)
	}
	return status
}
