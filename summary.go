package folio

import (
	"context"
	"fmt"
)

// WindowPnL is one window's row in a portfolio summary.
type WindowPnL struct {
	Window     Window
	Realized   Money
	Unrealized Money
	Total      Money
	Percent    Percent // Total against the invested capital, for display
	Incomplete bool
}

// Summary is an at-a-glance overview of the whole portfolio: current value,
// invested capital, and PnL over every supported window.
type Summary struct {
	Currency     string
	Invested     Money // Σ quantity × average cost of open positions
	Value        Money // Σ quantity × current price, priced assets only
	Positions    int   // open positions
	Transactions int
	Incomplete   bool // some assets could not be priced
	Windows      []WindowPnL
}

// Summarize computes the portfolio summary across all windows. Like Snapshot,
// it degrades unpriceable assets instead of failing.
func (a *Aggregator) Summarize(ctx context.Context) (*Summary, error) {
	allTime, err := a.Snapshot(ctx, ScopeAll, WindowAll)
	if err != nil {
		return nil, fmt.Errorf("all-time snapshot: %w", err)
	}

	s := &Summary{Transactions: a.ledger.Len()}
	for _, row := range allTime.Assets {
		if row.Quantity.IsZero() {
			continue
		}
		s.Positions++
		basis := row.AvgCost.Mul(row.Quantity)
		s.Invested = s.Invested.Add(basis)
		if row.PriceUnavailable {
			s.Incomplete = true
			continue
		}
		s.Value = s.Value.Add(basis.Add(row.Unrealized))
	}
	s.Currency = s.Invested.Currency()

	for _, w := range Windows {
		snap, err := a.Snapshot(ctx, ScopeAll, w)
		if err != nil {
			return nil, fmt.Errorf("%s snapshot: %w", w, err)
		}
		row := WindowPnL{
			Window:     w,
			Realized:   snap.Realized,
			Unrealized: snap.Unrealized,
			Total:      snap.Total,
			Incomplete: snap.Incomplete,
		}
		if !s.Invested.IsZero() {
			ratio := snap.Total.Decimal().Div(s.Invested.Decimal())
			row.Percent = Percent(ratio.InexactFloat64() * 100)
		}
		s.Windows = append(s.Windows, row)
	}
	return s, nil
}
