package folio

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// this file contains functions to handle the import/export format.
// It should remain human readable, single file and easy to diff.

var csvHeader = []string{"id", "time", "symbol", "side", "quantity", "price", "fee", "currency", "source", "realized_pnl", "memo"}

// ExportTransactions writes the ledger's committed transactions to w as CSV,
// in ledger order. Amounts are exact decimal strings.
func ExportTransactions(w io.Writer, l *Ledger) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("cannot write export header: %w", err)
	}
	for _, tx := range l.Transactions() {
		record := []string{
			tx.ID,
			tx.Time.UTC().Format(time.RFC3339Nano),
			tx.Symbol,
			string(tx.Side),
			tx.Quantity.String(),
			tx.Price.Decimal().String(),
			tx.Fee.Decimal().String(),
			tx.Price.Currency(),
			string(tx.Source),
			tx.RealizedPnL.Decimal().String(),
			tx.Memo,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("cannot write transaction %s: %w", tx.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ImportRecords reads raw records from a CSV file with columns
// time, symbol, side, quantity, price, fee, memo (header required, fee and
// memo optional). The records are unvalidated: feed them through the
// coordinator.
func ImportRecords(r io.Reader) ([]RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("cannot read import header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"symbol", "side", "quantity", "price"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("import header misses column %q", required)
		}
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var out []RawRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cannot read import row: %w", err)
		}
		out = append(out, RawRecord{
			Symbol:    field(row, "symbol"),
			Side:      field(row, "side"),
			Quantity:  field(row, "quantity"),
			Price:     field(row, "price"),
			Fee:       field(row, "fee"),
			Timestamp: field(row, "time"),
			Memo:      field(row, "memo"),
		})
	}
	return out, nil
}
