package folio

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

// fixedPrices is an Oracle serving prices from a map and counting calls.
type fixedPrices struct {
	prices map[string]Money
	calls  atomic.Int64
}

func (o *fixedPrices) CurrentPrice(_ context.Context, symbol string) (Money, error) {
	o.calls.Add(1)
	price, ok := o.prices[symbol]
	if !ok {
		return Money{}, fmt.Errorf("%w for %q", ErrPriceUnavailable, symbol)
	}
	return price, nil
}

func testAggregator(t *testing.T, oracle Oracle) (*Ledger, *Aggregator) {
	t.Helper()
	ledger := NewLedger()
	agg := NewAggregator(ledger, oracle)
	agg.now = func() time.Time { return at("2025-06-15 12:00:00") }
	return ledger, agg
}

func TestAggregator_Snapshot(t *testing.T) {
	oracle := &fixedPrices{prices: map[string]Money{"AAPL": USD(160), "GOOG": USD(3000)}}
	ledger, agg := testAggregator(t, oracle)

	for _, tx := range []*Transaction{
		buy("AAPL", "2025-01-10", 10, 100, 5), // avg cost 100.50
		sell("AAPL", "2025-06-10", 4, 120, 2), // realized 76, inside 7d and 30d
		buy("GOOG", "2025-06-01", 2, 2800, 0),
	} {
		if _, err := ledger.Apply(tx); err != nil {
			t.Fatal(err)
		}
	}

	snap, err := agg.Snapshot(context.Background(), ScopeAll, Window7D)
	if err != nil {
		t.Fatal(err)
	}
	// AAPL: (160-100.50)*6 = 357 unrealized, 76 realized.
	// GOOG: (3000-2800)*2 = 400 unrealized, nothing realized.
	if !snap.Realized.Equal(USD(76)) {
		t.Errorf("Realized = %s, want %s", snap.Realized, USD(76))
	}
	if !snap.Unrealized.Equal(USD(757)) {
		t.Errorf("Unrealized = %s, want %s", snap.Unrealized, USD(757))
	}
	if !snap.Total.Equal(USD(833)) {
		t.Errorf("Total = %s, want %s", snap.Total, USD(833))
	}
	if snap.Incomplete {
		t.Error("Incomplete = true, want false")
	}

	// The same sell falls outside the 7d window when it is older.
	snap, err = agg.Snapshot(context.Background(), "AAPL", Window1Y)
	if err != nil {
		t.Fatal(err)
	}
	if !snap.Realized.Equal(USD(76)) {
		t.Errorf("1y Realized = %s, want %s", snap.Realized, USD(76))
	}
	if len(snap.Assets) != 1 || snap.Assets[0].Symbol != "AAPL" {
		t.Fatalf("single-symbol snapshot Assets = %v", snap.Assets)
	}
}

func TestAggregator_RealizedOutsideWindow(t *testing.T) {
	oracle := &fixedPrices{prices: map[string]Money{"AAPL": USD(160)}}
	ledger, agg := testAggregator(t, oracle)

	if _, err := ledger.Apply(buy("AAPL", "2024-01-10", 10, 100, 0)); err != nil {
		t.Fatal(err)
	}
	// Sold a year and a half before "now": realized in no rolling window.
	if _, err := ledger.Apply(sell("AAPL", "2024-02-01", 5, 150, 0)); err != nil {
		t.Fatal(err)
	}

	snap, err := agg.Snapshot(context.Background(), ScopeAll, Window30D)
	if err != nil {
		t.Fatal(err)
	}
	if !snap.Realized.IsZero() {
		t.Errorf("30d Realized = %s, want 0", snap.Realized)
	}

	snap, err = agg.Snapshot(context.Background(), ScopeAll, WindowAll)
	if err != nil {
		t.Fatal(err)
	}
	if !snap.Realized.Equal(USD(250)) {
		t.Errorf("all-time Realized = %s, want %s", snap.Realized, USD(250))
	}
}

func TestAggregator_PriceUnavailableDegrades(t *testing.T) {
	oracle := &fixedPrices{prices: map[string]Money{"AAPL": USD(160)}}
	ledger, agg := testAggregator(t, oracle)

	if _, err := ledger.Apply(buy("AAPL", "2025-01-10", 10, 100, 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.Apply(buy("DELISTED", "2025-01-10", 5, 50, 0)); err != nil {
		t.Fatal(err)
	}

	snap, err := agg.Snapshot(context.Background(), ScopeAll, WindowAll)
	if err != nil {
		t.Fatalf("Snapshot() = %v, want degraded result", err)
	}
	if !snap.Incomplete {
		t.Error("Incomplete = false, want true")
	}
	// The priced asset still contributes.
	if !snap.Unrealized.Equal(USD(600)) {
		t.Errorf("Unrealized = %s, want %s", snap.Unrealized, USD(600))
	}
	for _, row := range snap.Assets {
		if row.Symbol == "DELISTED" && !row.PriceUnavailable {
			t.Error("DELISTED row not marked unavailable")
		}
	}
}

func TestAggregator_Memoization(t *testing.T) {
	oracle := &fixedPrices{prices: map[string]Money{"AAPL": USD(160)}}
	ledger, agg := testAggregator(t, oracle)

	if _, err := ledger.Apply(buy("AAPL", "2025-01-10", 10, 100, 0)); err != nil {
		t.Fatal(err)
	}

	if _, err := agg.Snapshot(context.Background(), ScopeAll, WindowAll); err != nil {
		t.Fatal(err)
	}
	calls := oracle.calls.Load()
	if _, err := agg.Snapshot(context.Background(), ScopeAll, WindowAll); err != nil {
		t.Fatal(err)
	}
	if got := oracle.calls.Load(); got != calls {
		t.Errorf("cached Snapshot() hit the oracle: %d calls, want %d", got, calls)
	}

	// A new transaction invalidates the cache.
	if _, err := ledger.Apply(buy("AAPL", "2025-06-01", 1, 100, 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := agg.Snapshot(context.Background(), ScopeAll, WindowAll); err != nil {
		t.Fatal(err)
	}
	if got := oracle.calls.Load(); got == calls {
		t.Error("Snapshot() after a commit served stale cache")
	}
}

func TestAggregator_CancelledContext(t *testing.T) {
	oracle := &fixedPrices{prices: map[string]Money{"AAPL": USD(160)}}
	ledger, agg := testAggregator(t, oracle)
	if _, err := ledger.Apply(buy("AAPL", "2025-01-10", 10, 100, 0)); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := agg.Snapshot(ctx, ScopeAll, WindowAll); err == nil {
		t.Error("Snapshot(cancelled) = nil, want error")
	}
}

func TestAggregator_Summarize(t *testing.T) {
	oracle := &fixedPrices{prices: map[string]Money{"AAPL": USD(160)}}
	ledger, agg := testAggregator(t, oracle)

	if _, err := ledger.Apply(buy("AAPL", "2025-01-10", 10, 100, 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.Apply(sell("AAPL", "2025-06-12", 5, 150, 0)); err != nil {
		t.Fatal(err)
	}

	s, err := agg.Summarize(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s.Positions != 1 || s.Transactions != 2 {
		t.Errorf("Positions, Transactions = %d, %d, want 1, 2", s.Positions, s.Transactions)
	}
	// 5 units left at avg cost 100.
	if !s.Invested.Equal(USD(500)) {
		t.Errorf("Invested = %s, want %s", s.Invested, USD(500))
	}
	// 500 basis + (160-100)*5 unrealized.
	if !s.Value.Equal(USD(800)) {
		t.Errorf("Value = %s, want %s", s.Value, USD(800))
	}
	if len(s.Windows) != len(Windows) {
		t.Fatalf("Windows = %d rows, want %d", len(s.Windows), len(Windows))
	}
	for _, w := range s.Windows {
		// The recent sell realized 250 in every window.
		if !w.Realized.Equal(USD(250)) {
			t.Errorf("%s Realized = %s, want %s", w.Window, w.Realized, USD(250))
		}
		// (250 + 300) / 500 invested.
		if !w.Percent.Equal(Percent(110)) {
			t.Errorf("%s Percent = %s, want +110.00%%", w.Window, w.Percent)
		}
	}
}
