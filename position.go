package folio

// Position is the derived holding state for one asset: quantity held,
// weighted-average cost basis, and cumulative realized PnL. Positions are
// immutable values; the ledger publishes a fresh one on every apply and the
// whole state is always reconstructible by replaying the transaction log.
type Position struct {
	Symbol   string
	Quantity Quantity
	Realized Money  // cumulative realized PnL
	Seq      uint64 // sequence of the last transaction applied
	avgCost  Money  // undefined when Quantity is zero
}

// AverageCost returns the weighted-average cost per unit of the held quantity,
// fees capitalized. The boolean is false when the quantity is zero: a closed
// position has no cost basis.
func (p Position) AverageCost() (Money, bool) {
	if p.Quantity.IsZero() {
		return Money{}, false
	}
	return p.avgCost, true
}

// Basis returns quantity × average cost, the net amount invested in the
// currently held units. Zero for a closed position.
func (p Position) Basis() Money {
	return p.avgCost.Mul(p.Quantity)
}

// MarshalJSON implements the json.Marshaler interface for Position.
func (p Position) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("symbol", p.Symbol)
	w.Append("quantity", p.Quantity)
	if cost, ok := p.AverageCost(); ok {
		w.Append("avg_cost", cost)
	} else {
		w.Append("avg_cost", nil)
	}
	w.Append("realized_pnl", p.Realized)
	return w.MarshalJSON()
}
