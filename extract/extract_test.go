package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modelOutput = `{
  "symbol": "AAPL",
  "side": "buy",
  "quantity": "10",
  "price": "150.25",
  "fee": "1.50",
  "timestamp": "2025-06-01T14:30:00Z",
  "memo": "Fidelity order #123",
  "confidence": {
    "fields": {"symbol": 0.99, "side": 0.98, "quantity": 0.92, "price": 0.95},
    "aggregate": 0.96
  }
}`

func TestParseRecord(t *testing.T) {
	rec, err := ParseRecord(modelOutput)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", rec.Symbol)
	assert.Equal(t, "buy", rec.Side)
	assert.Equal(t, "10", rec.Quantity)
	assert.Equal(t, "150.25", rec.Price)
	assert.Equal(t, "1.50", rec.Fee)
	assert.Equal(t, "Fidelity order #123", rec.Memo)
	require.NotNil(t, rec.Confidence)
	assert.InDelta(t, 0.92, rec.Confidence.Fields["quantity"], 1e-9)
	// The raw output is kept for audit.
	assert.Equal(t, modelOutput, rec.Confidence.Raw)
}

func TestParseRecord_CodeFences(t *testing.T) {
	fenced := "```json\n" + modelOutput + "\n```"
	rec, err := ParseRecord(fenced)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", rec.Symbol)

	chatty := "Here is the extracted trade:\n\n" + modelOutput + "\n\nLet me know if you need anything else."
	rec, err = ParseRecord(chatty)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", rec.Symbol)
}

func TestParseRecord_BareNumbers(t *testing.T) {
	// Models sometimes emit numbers instead of the requested strings.
	rec, err := ParseRecord(`{
		"symbol": "BTC-USD", "side": "sell",
		"quantity": 0.015, "price": 64000.50, "fee": null,
		"confidence": {"fields": {"symbol": 1, "side": 1, "quantity": 1, "price": 1}, "aggregate": 1}
	}`)
	require.NoError(t, err)
	assert.Equal(t, "0.015", rec.Quantity)
	assert.Equal(t, "64000.50", rec.Price)
	assert.Equal(t, "", rec.Fee)
}

func TestParseRecord_MissingConfidence(t *testing.T) {
	// No confidence payload: the record still parses, the gate defers it.
	rec, err := ParseRecord(`{"symbol": "AAPL", "side": "buy", "quantity": "10", "price": "150"}`)
	require.NoError(t, err)
	assert.Nil(t, rec.Confidence)
}

func TestParseRecord_Garbage(t *testing.T) {
	_, err := ParseRecord("I could not read the image, sorry.")
	assert.Error(t, err)
}
