package folio

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Oracle is the external market price source. It is read-only and may be slow
// or unavailable; the aggregator bounds every call and degrades the affected
// figure instead of failing the whole query.
type Oracle interface {
	CurrentPrice(ctx context.Context, symbol string) (Money, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, symbol string) (Money, error)

func (f OracleFunc) CurrentPrice(ctx context.Context, symbol string) (Money, error) {
	return f(ctx, symbol)
}

// ErrPriceUnavailable reports that the oracle has no current price for a
// symbol.
var ErrPriceUnavailable = errors.New("price unavailable")

// ScopeAll aggregates over every asset in the ledger.
const ScopeAll = "all"

// DefaultPriceTimeout bounds a single oracle call.
const DefaultPriceTimeout = 5 * time.Second

// AssetPnL is one asset's row in a snapshot.
type AssetPnL struct {
	Symbol           string
	Quantity         Quantity // held at window end
	AvgCost          Money    // meaningless when Quantity is zero
	Basis            Money    // at window start
	Realized         Money    // within the window
	Unrealized       Money    // at window end
	PriceUnavailable bool     // Unrealized could not be computed
}

// PnLSnapshot is a computed, cacheable aggregation result.
//
// Average-cost figures are only meaningful per asset and are never summed
// across assets; the snapshot totals carry basis and PnL only.
type PnLSnapshot struct {
	Scope      string // a symbol, or ScopeAll
	Window     Window
	From, To   time.Time
	Basis      Money // Σ quantity × average cost at window start
	Realized   Money // Σ realized PnL of sells inside the window
	Unrealized Money // Σ unrealized PnL at window end, available assets only
	Total      Money // Realized + Unrealized
	Incomplete bool  // true when at least one price was unavailable
	Assets     []AssetPnL
	Seq        uint64 // ledger sequence the snapshot was computed at
}

// Aggregator computes PnL snapshots from the ledger and current market
// prices. Snapshots are memoized by (scope, window, ledger sequence): any
// committed transaction bumps the sequence and so invalidates every cached
// snapshot.
type Aggregator struct {
	// PriceTimeout bounds each oracle call; DefaultPriceTimeout when zero.
	PriceTimeout time.Duration

	ledger *Ledger
	oracle Oracle
	now    func() time.Time

	mu   sync.Mutex
	memo map[memoKey]*PnLSnapshot
}

type memoKey struct {
	scope  string
	window Window
	seq    uint64
}

// NewAggregator creates an aggregator reading from ledger and pricing through
// oracle.
func NewAggregator(ledger *Ledger, oracle Oracle) *Aggregator {
	return &Aggregator{
		ledger: ledger,
		oracle: oracle,
		now:    time.Now,
		memo:   make(map[memoKey]*PnLSnapshot),
	}
}

// Snapshot computes the PnL snapshot for one symbol (or ScopeAll) over the
// given window.
//
// A price fetch failure for one asset marks that asset's unrealized figure
// unavailable and the snapshot incomplete, but never fails the query; the
// only error returned is a cancelled context.
func (a *Aggregator) Snapshot(ctx context.Context, scope string, window Window) (*PnLSnapshot, error) {
	seq := a.ledger.LastSeq()
	key := memoKey{scope: scope, window: window, seq: seq}

	a.mu.Lock()
	if snap, ok := a.memo[key]; ok {
		a.mu.Unlock()
		return snap, nil
	}
	a.mu.Unlock()

	snap, err := a.compute(ctx, scope, window, seq)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	// Drop snapshots from older ledger states; they can never be served again.
	for k := range a.memo {
		if k.seq != seq {
			delete(a.memo, k)
		}
	}
	a.memo[key] = snap
	a.mu.Unlock()
	return snap, nil
}

func (a *Aggregator) compute(ctx context.Context, scope string, window Window, seq uint64) (*PnLSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := a.now().UTC()
	first, _ := a.ledger.FirstTime()
	span := window.Span(now, first)

	symbols := []string{scope}
	if scope == ScopeAll {
		symbols = a.ledger.Symbols()
	}

	snap := &PnLSnapshot{
		Scope:  scope,
		Window: window,
		From:   span.From,
		To:     span.To,
		Seq:    seq,
		Assets: make([]AssetPnL, len(symbols)),
	}

	// Read every position before touching the oracle: a stuck price source
	// must never hold up ledger access.
	for i, symbol := range symbols {
		end := a.ledger.PositionAt(symbol, span.To)
		opening := a.ledger.PositionAt(symbol, span.From.Add(-time.Nanosecond))

		row := AssetPnL{Symbol: symbol, Quantity: end.Quantity, Basis: opening.Basis()}
		if cost, ok := end.AverageCost(); ok {
			row.AvgCost = cost
		}
		for tx := range a.ledger.SymbolTransactions(symbol, span.To) {
			if tx.Side == Sell && span.Contains(tx.Time) {
				row.Realized = row.Realized.Add(tx.RealizedPnL)
			}
		}
		snap.Assets[i] = row
	}

	// Fetch current prices concurrently; each call is bounded on its own.
	g, gctx := errgroup.WithContext(ctx)
	for i := range snap.Assets {
		row := &snap.Assets[i]
		if row.Quantity.IsZero() {
			continue // nothing held, unrealized is zero
		}
		g.Go(func() error {
			price, err := a.fetchPrice(gctx, row.Symbol)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				row.PriceUnavailable = true
				return nil
			}
			row.Unrealized = price.Sub(row.AvgCost).Mul(row.Quantity)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, row := range snap.Assets {
		snap.Basis = snap.Basis.Add(row.Basis)
		snap.Realized = snap.Realized.Add(row.Realized)
		if row.PriceUnavailable {
			snap.Incomplete = true
			continue
		}
		snap.Unrealized = snap.Unrealized.Add(row.Unrealized)
	}
	snap.Total = snap.Realized.Add(snap.Unrealized)
	return snap, nil
}

func (a *Aggregator) fetchPrice(ctx context.Context, symbol string) (Money, error) {
	timeout := a.PriceTimeout
	if timeout == 0 {
		timeout = DefaultPriceTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return a.oracle.CurrentPrice(ctx, symbol)
}
