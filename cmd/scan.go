package cmd

import (
	"context"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	"github.com/etnz/folio"
	"github.com/etnz/folio/extract"
)

// scanCmd holds the flags for the 'scan' subcommand.
type scanCmd struct {
	model string
}

func (*scanCmd) Name() string     { return "scan" }
func (*scanCmd) Synopsis() string { return "extract a transaction from a confirmation screenshot" }
func (*scanCmd) Usage() string {
	return `fcs scan [-model <name>] <image>...

  Reads each trade-confirmation image with a vision model and ingests the
  extracted transaction. Extractions below the confidence thresholds are
  parked for review instead of committed; see 'fcs pending'.
`
}

func (c *scanCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.model, "model", "", "Vision model to extract with. Defaults to the configured one.")
}

func (c *scanCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: no image file given.")
		return subcommands.ExitUsageError
	}

	eng, err := openEngine()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer eng.Close()

	model := c.model
	if model == "" {
		model = eng.cfg.Extract.Model
	}
	ex, err := extract.New(ctx, model)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	status := subcommands.ExitSuccess
	for _, path := range f.Args() {
		image, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", path, err)
			status = subcommands.ExitFailure
			continue
		}
		mimeType := mime.TypeByExtension(filepath.Ext(path))
		if !strings.HasPrefix(mimeType, "image/") {
			fmt.Fprintf(os.Stderr, "Error: %q is not an image.\n", path)
			status = subcommands.ExitFailure
			continue
		}

		raw, err := ex.Extract(ctx, image, mimeType)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error extracting %q: %v\n", path, err)
			status = subcommands.ExitFailure
			continue
		}

		res, err := eng.coord.Ingest(ctx, raw, folio.AIExtracted)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		switch res.Status {
		case folio.Committed:
			fmt.Printf("%s: committed %s (%s)\n", path, res.Transaction, res.Transaction.ID)
		case folio.PendingReview:
			fmt.Printf("%s: deferred for review (%s)\n", path, res.Pending.ID)
			for _, reason := range res.Pending.Reasons {
				fmt.Printf("  - %s\n", reason)
			}
		case folio.Rejected:
			fmt.Fprintf(os.Stderr, "%s: rejected: %v\n", path, res.Errs)
			status = subcommands.ExitFailure
		}
	}
	return status
}
