package txlog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etnz/folio"
)

func openTestLog(t *testing.T) *SQLiteLog {
	t.Helper()
	log, err := Open(filepath.Join(t.TempDir(), "transactions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })
	return log
}

func mustQuantity(t *testing.T, s string) folio.Quantity {
	q, err := folio.ParseQuantity(s)
	require.NoError(t, err)
	return q
}

func mustMoney(t *testing.T, s string) folio.Money {
	m, err := folio.ParseMoney(s, "USD")
	require.NoError(t, err)
	return m
}

func TestSQLiteLog_AppendAll(t *testing.T) {
	log := openTestLog(t)

	buy := folio.Transaction{
		ID: folio.NewTransactionID(), Seq: 1, Symbol: "BTC-USD", Side: folio.Buy,
		Quantity: mustQuantity(t, "0.015"), Price: mustMoney(t, "64000.50"),
		Fee: mustMoney(t, "1.25"), Time: time.Date(2025, 1, 10, 14, 30, 0, 0, time.UTC),
		Source: folio.Manual, RealizedPnL: mustMoney(t, "0"), Memo: "first lot",
	}
	sell := folio.Transaction{
		ID: folio.NewTransactionID(), Seq: 2, Symbol: "BTC-USD", Side: folio.Sell,
		Quantity: mustQuantity(t, "0.005"), Price: mustMoney(t, "70000"),
		Fee: mustMoney(t, "1"), Time: time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC),
		Source: folio.AIExtracted, RealizedPnL: mustMoney(t, "28.58"),
		Confidence: &folio.ExtractionConfidence{
			Fields:    map[string]float64{"symbol": 0.99, "side": 0.98, "quantity": 0.97, "price": 0.96},
			Aggregate: 0.97,
		},
	}
	require.NoError(t, log.Append(buy))
	require.NoError(t, log.Append(sell))

	got, err := log.All()
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Exact decimal round trip, no float drift.
	assert.Equal(t, "0.015", got[0].Quantity.String())
	assert.Equal(t, "64000.5", got[0].Price.Decimal().String())
	assert.Equal(t, "USD", got[0].Price.Currency())
	assert.Equal(t, buy.Time, got[0].Time)
	assert.Equal(t, "first lot", got[0].Memo)
	assert.Nil(t, got[0].Confidence)

	assert.Equal(t, folio.AIExtracted, got[1].Source)
	assert.Equal(t, "28.58", got[1].RealizedPnL.Decimal().String())
	require.NotNil(t, got[1].Confidence)
	assert.InDelta(t, 0.97, got[1].Confidence.Fields["quantity"], 1e-9)
}

func TestSQLiteLog_OrderedByTimeThenSeq(t *testing.T) {
	log := openTestLog(t)

	when := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	base := folio.Transaction{
		Symbol: "AAPL", Side: folio.Buy, Quantity: mustQuantity(t, "1"),
		Price: mustMoney(t, "100"), Fee: mustMoney(t, "0"),
		Source: folio.Manual, RealizedPnL: mustMoney(t, "0"),
	}

	// Appended out of order: a backdated transaction with a later seq.
	late := base
	late.ID, late.Seq, late.Time = folio.NewTransactionID(), 2, when.AddDate(0, 1, 0)
	early := base
	early.ID, early.Seq, early.Time = folio.NewTransactionID(), 3, when
	tied := base
	tied.ID, tied.Seq, tied.Time = folio.NewTransactionID(), 1, when

	require.NoError(t, log.Append(late))
	require.NoError(t, log.Append(early))
	require.NoError(t, log.Append(tied))

	got, err := log.All()
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, tied.ID, got[0].ID)
	assert.Equal(t, early.ID, got[1].ID)
	assert.Equal(t, late.ID, got[2].ID)
}

func TestSQLiteLog_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.db")
	log, err := Open(path)
	require.NoError(t, err)

	tx := folio.Transaction{
		ID: folio.NewTransactionID(), Seq: 1, Symbol: "AAPL", Side: folio.Buy,
		Quantity: mustQuantity(t, "10"), Price: mustMoney(t, "150"),
		Fee: mustMoney(t, "0"), Time: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		Source: folio.Manual, RealizedPnL: mustMoney(t, "0"),
	}
	require.NoError(t, log.Append(tx))
	require.NoError(t, log.Close())

	log, err = Open(path)
	require.NoError(t, err)
	defer log.Close()
	got, err := log.All()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, tx.ID, got[0].ID)
}

func TestSQLiteLog_PendingQueue(t *testing.T) {
	log := openTestLog(t)

	p := folio.PendingExtraction{
		ID: "11111111-1111-1111-1111-111111111111",
		Raw: folio.RawRecord{
			Symbol: "AAPL", Side: "buy", Quantity: "10", Price: "150",
			Confidence: &folio.ExtractionConfidence{Fields: map[string]float64{"symbol": 0.6}},
		},
		Reasons: []string{"symbol: confidence 0.60 below 0.85"},
		Status:  folio.ReviewPending,
		Created: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, log.SavePending(p))

	got, err := log.PendingAll()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, p.ID, got[0].ID)
	assert.Equal(t, folio.ReviewPending, got[0].Status)
	assert.Equal(t, p.Reasons, got[0].Reasons)
	assert.Equal(t, "10", got[0].Raw.Quantity)
	require.NotNil(t, got[0].Raw.Confidence)

	p.Status = folio.ReviewConfirmed
	p.Reviewed = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, log.UpdatePending(p))

	got, err = log.PendingAll()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, folio.ReviewConfirmed, got[0].Status)
	assert.Equal(t, p.Reviewed, got[0].Reviewed)

	unknown := p
	unknown.ID = "22222222-2222-2222-2222-222222222222"
	assert.Error(t, log.UpdatePending(unknown))
}
