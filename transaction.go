package folio

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Side identifies the direction of a transaction.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// ParseSide parses a string into a Side. It is case-insensitive on the
// canonical forms only.
func ParseSide(s string) (Side, error) {
	switch s {
	case "buy", "BUY", "Buy":
		return Buy, nil
	case "sell", "SELL", "Sell":
		return Sell, nil
	default:
		return "", fmt.Errorf("unknown side: %q", s)
	}
}

// Source identifies where a transaction record came from. It is a closed tag:
// the confidence gate branches on it explicitly, and the confidence payload is
// present only for AI-extracted records.
type Source string

const (
	Manual      Source = "manual"
	AIExtracted Source = "ai"
)

// ParseSource parses a string into a Source.
func ParseSource(s string) (Source, error) {
	switch s {
	case "manual":
		return Manual, nil
	case "ai":
		return AIExtracted, nil
	default:
		return "", fmt.Errorf("unknown source: %q", s)
	}
}

// ExtractionConfidence carries the per-field scores reported by the AI
// extractor, plus its own aggregate score and the raw output kept for audit.
type ExtractionConfidence struct {
	Fields    map[string]float64 `json:"fields"`
	Aggregate float64            `json:"aggregate"`
	Raw       string             `json:"raw,omitempty"`
}

// Transaction is a single buy or sell, immutable once committed to the ledger.
//
// Seq and RealizedPnL are ledger-owned: Seq is the insertion sequence assigned
// on commit (the tie-break for equal timestamps), and RealizedPnL is computed
// by the ledger on sells, never trusted from input.
type Transaction struct {
	ID          string
	Seq         uint64
	Symbol      string
	Side        Side
	Quantity    Quantity
	Price       Money // per unit
	Fee         Money
	Time        time.Time
	Source      Source
	Confidence  *ExtractionConfidence // only for AIExtracted records
	RealizedPnL Money                 // only for sells
	Memo        string
}

// NewTransactionID returns a fresh ULID. ULIDs sort lexicographically in
// generation order, which keeps exported logs easy to eyeball.
func NewTransactionID() string { return ulid.Make().String() }

// Gross returns quantity × price, excluding the fee.
func (t Transaction) Gross() Money { return t.Price.Mul(t.Quantity) }

// Before reports whether t sorts before o in ledger order (timestamp first,
// insertion sequence as tie-break).
func (t Transaction) Before(o Transaction) bool {
	if !t.Time.Equal(o.Time) {
		return t.Time.Before(o.Time)
	}
	return t.Seq < o.Seq
}

func (t Transaction) String() string {
	return fmt.Sprintf("%s %s %s @ %s", t.Side, t.Quantity, t.Symbol, t.Price)
}

// MarshalJSON implements the json.Marshaler interface for Transaction.
func (t Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", t.ID)
	w.Append("seq", t.Seq)
	w.Append("symbol", t.Symbol)
	w.Append("side", t.Side)
	w.Append("quantity", t.Quantity)
	w.Append("price", t.Price)
	w.Append("fee", t.Fee)
	w.Append("time", t.Time.UTC().Format(time.RFC3339Nano))
	w.Append("source", t.Source)
	if t.Side == Sell {
		w.Append("realized_pnl", t.RealizedPnL)
	}
	if t.Confidence != nil {
		w.Append("confidence", t.Confidence)
	}
	w.Optional("memo", t.Memo)
	return w.MarshalJSON()
}
