package folio

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// RawRecord is a transaction as supplied by the outside world: manual entry or
// the AI extractor. All values are strings so that numbers can be parsed into
// exact decimals, never routed through binary floating point.
type RawRecord struct {
	Symbol     string                `json:"symbol"`
	Side       string                `json:"side"`
	Quantity   string                `json:"quantity"`
	Price      string                `json:"price"`
	Fee        string                `json:"fee,omitempty"`
	Timestamp  string                `json:"timestamp,omitempty"`
	Memo       string                `json:"memo,omitempty"`
	Confidence *ExtractionConfidence `json:"confidence,omitempty"`
}

// NormalizationError describes a single failing field of a raw record.
type NormalizationError struct {
	Field  string
	Reason string
}

func (e NormalizationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NormalizationErrors collects every failing field so the caller can present
// all problems at once instead of fixing them one by one.
type NormalizationErrors []NormalizationError

func (e NormalizationErrors) Error() string {
	reasons := make([]string, len(e))
	for i, fe := range e {
		reasons[i] = fe.Error()
	}
	return "invalid record: " + strings.Join(reasons, "; ")
}

// DefaultSkew is the tolerance for timestamps slightly in the future, to
// absorb clock drift between the record's origin and this machine.
const DefaultSkew = 5 * time.Minute

var symbolRE = regexp.MustCompile(`^[A-Z0-9.-]+$`)

// Normalizer validates and canonicalizes raw records into transactions.
// The zero value normalizes into currency-less money with the default skew.
type Normalizer struct {
	Currency string        // currency applied to price and fee
	Skew     time.Duration // future-timestamp tolerance, DefaultSkew if zero
}

// Normalize turns a raw record into a transaction, or reports every failing
// field. It is a pure function of (raw, now): fee defaults to zero, timestamp
// defaults to now, and timestamps beyond the skew tolerance in the future are
// rejected. The returned transaction has no ID and no sequence; those are
// assigned at commit.
func (n Normalizer) Normalize(raw RawRecord, now time.Time) (Transaction, error) {
	var errs NormalizationErrors
	fail := func(field, reason string) { errs = append(errs, NormalizationError{field, reason}) }

	tx := Transaction{Source: Manual, Memo: raw.Memo, Confidence: raw.Confidence}

	tx.Symbol = strings.ToUpper(strings.TrimSpace(raw.Symbol))
	switch {
	case tx.Symbol == "":
		fail("symbol", "missing")
	case !symbolRE.MatchString(tx.Symbol):
		fail("symbol", fmt.Sprintf("invalid characters in %q", tx.Symbol))
	}

	if raw.Side == "" {
		fail("side", "missing")
	} else if side, err := ParseSide(strings.TrimSpace(raw.Side)); err != nil {
		fail("side", err.Error())
	} else {
		tx.Side = side
	}

	if raw.Quantity == "" {
		fail("quantity", "missing")
	} else if q, err := ParseQuantity(strings.TrimSpace(raw.Quantity)); err != nil {
		fail("quantity", fmt.Sprintf("not a decimal number: %q", raw.Quantity))
	} else if !q.IsPositive() {
		fail("quantity", "must be positive")
	} else {
		tx.Quantity = q
	}

	if raw.Price == "" {
		fail("price", "missing")
	} else if p, err := ParseMoney(strings.TrimSpace(raw.Price), n.Currency); err != nil {
		fail("price", fmt.Sprintf("not a decimal number: %q", raw.Price))
	} else if !p.IsPositive() {
		fail("price", "must be positive")
	} else {
		tx.Price = p
	}

	if raw.Fee == "" {
		tx.Fee = M(0, n.Currency)
	} else if f, err := ParseMoney(strings.TrimSpace(raw.Fee), n.Currency); err != nil {
		fail("fee", fmt.Sprintf("not a decimal number: %q", raw.Fee))
	} else if f.IsNegative() {
		fail("fee", "must not be negative")
	} else {
		tx.Fee = f
	}

	skew := n.Skew
	if skew == 0 {
		skew = DefaultSkew
	}
	if raw.Timestamp == "" {
		tx.Time = now.UTC()
	} else if ts, err := ParseTime(strings.TrimSpace(raw.Timestamp)); err != nil {
		fail("timestamp", err.Error())
	} else if ts.After(now.Add(skew)) {
		fail("timestamp", fmt.Sprintf("%s is in the future", ts.Format(time.RFC3339)))
	} else {
		tx.Time = ts.UTC()
	}

	if len(errs) > 0 {
		return Transaction{}, errs
	}
	return tx, nil
}

// ParseTime accepts RFC3339 (with optional fractional seconds) and a few
// common date-only or date-time forms, always interpreted as UTC when no zone
// is given.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q, want RFC3339", s)
}
