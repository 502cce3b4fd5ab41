// Package cmd implements the CLI application to manage a portfolio.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"github.com/etnz/folio"
	"github.com/etnz/folio/txlog"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&buyCmd{}, "transactions")
	c.Register(&sellCmd{}, "transactions")
	c.Register(&logCmd{}, "transactions")
	c.Register(&importCmd{}, "transactions")
	c.Register(&exportCmd{}, "transactions")

	c.Register(&scanCmd{}, "extraction")
	c.Register(&pendingCmd{}, "extraction")
	c.Register(&confirmCmd{}, "extraction")
	c.Register(&rejectCmd{}, "extraction")

	c.Register(&positionCmd{}, "reports")
	c.Register(&snapshotCmd{}, "reports")
	c.Register(&summaryCmd{}, "reports")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "", "Path to the configuration file (defaults to the user config dir)")
var verbose = flag.Bool("v", false, "Log every ingestion step to stderr")

// LoadConfig loads the app configuration, from -config or the default
// location.
func LoadConfig() (*folio.Config, error) {
	path := *configFile
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = "."
		}
		path = filepath.Join(dir, "folio", "config.yaml")
	}
	return folio.LoadConfig(path)
}

// Logger returns the app logger: human-readable on stderr, quiet unless -v.
func Logger() zerolog.Logger {
	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

// engine is the fully wired reconciliation engine plus its closer.
type engine struct {
	cfg   *folio.Config
	coord *folio.Coordinator
	agg   *folio.Aggregator
	store *txlog.SQLiteLog
}

func (e *engine) Close() error { return e.store.Close() }

// openEngine opens the transaction log and wires ledger, aggregator and
// coordinator from the configuration.
func openEngine() (*engine, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0755); err != nil {
		return nil, fmt.Errorf("cannot create data directory: %w", err)
	}

	store, err := txlog.Open(cfg.LogPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open transaction log %q: %w", cfg.LogPath, err)
	}
	ledger, err := folio.OpenLedger(store)
	if err != nil {
		store.Close()
		return nil, err
	}

	var oracle folio.Oracle = folio.OracleFunc(func(ctx context.Context, symbol string) (folio.Money, error) {
		return folio.Money{}, folio.ErrPriceUnavailable
	})
	if src := cfg.PriceSource(); src != nil {
		oracle = src
	}
	agg := folio.NewAggregator(ledger, oracle)
	agg.PriceTimeout = cfg.Prices.Timeout

	coord := folio.NewCoordinator(ledger, agg, cfg.Normalizer(), cfg.GatePolicy(), Logger())
	if err := coord.SetPendingStore(store); err != nil {
		store.Close()
		return nil, err
	}
	return &engine{cfg: cfg, coord: coord, agg: agg, store: store}, nil
}

// printMarkdown renders markdown to the terminal.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
