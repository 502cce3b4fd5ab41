package folio

import (
	"strings"
	"testing"
)

func TestExportTransactions(t *testing.T) {
	ledger := NewLedger()
	if _, err := ledger.Apply(buy("AAPL", "2025-01-10", 10, 100, 5)); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.Apply(sell("AAPL", "2025-01-20", 4, 120, 2)); err != nil {
		t.Fatal(err)
	}

	var b strings.Builder
	if err := ExportTransactions(&b, ledger); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("export = %d lines, want header + 2 rows:\n%s", len(lines), b.String())
	}
	if !strings.HasPrefix(lines[0], "id,time,symbol,side") {
		t.Errorf("header = %q", lines[0])
	}
	// Amounts are exact decimal strings, and the sell carries its realized PnL.
	if !strings.Contains(lines[2], ",sell,4,120,2,USD,manual,76,") {
		t.Errorf("sell row = %q", lines[2])
	}
}

func TestImportRecords(t *testing.T) {
	in := `time,symbol,side,quantity,price,fee,memo
2025-01-10,AAPL,buy,10,100,5,first lot
2025-01-20,AAPL,sell,4,120,,
`
	records, err := ImportRecords(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("ImportRecords() = %d records, want 2", len(records))
	}
	if records[0].Memo != "first lot" || records[0].Fee != "5" {
		t.Errorf("first record = %+v", records[0])
	}
	if records[1].Fee != "" {
		t.Errorf("second record fee = %q, want empty", records[1].Fee)
	}

	// The records normalize cleanly.
	n := Normalizer{Currency: "USD"}
	for _, raw := range records {
		if _, err := n.Normalize(raw, at("2025-06-15")); err != nil {
			t.Errorf("Normalize(%+v) = %v", raw, err)
		}
	}

	if _, err := ImportRecords(strings.NewReader("time,symbol\n")); err == nil {
		t.Error("ImportRecords() without required columns succeeded")
	}
}
