package folio

import (
	"sync"
	"time"
)

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// NO is a helper for test to create money from const with no currency set
func NO(v float64) Money { return M(v, "") }

// at is a helper for test to parse a timestamp from const
func at(s string) time.Time {
	ts, err := ParseTime(s)
	if err != nil {
		panic(err)
	}
	return ts
}

// buy and sell build normalized transactions ready for Apply.
func buy(symbol, ts string, qty, price, fee float64) *Transaction {
	return &Transaction{
		ID: NewTransactionID(), Symbol: symbol, Side: Buy,
		Quantity: Q(qty), Price: USD(price), Fee: USD(fee),
		Time: at(ts), Source: Manual,
	}
}

func sell(symbol, ts string, qty, price, fee float64) *Transaction {
	tx := buy(symbol, ts, qty, price, fee)
	tx.Side = Sell
	return tx
}

// memLog is an in-memory Log for tests, optionally failing every append.
type memLog struct {
	mu   sync.Mutex
	txs  []Transaction
	fail error
}

func (m *memLog) Append(tx Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.txs = append(m.txs, tx)
	return nil
}

func (m *memLog) All() ([]Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Transaction(nil), m.txs...), nil
}
