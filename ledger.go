package folio

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Log is the durable append-only store backing a ledger. A transaction is
// committed only after the store accepted it; a store failure aborts the
// apply and nothing becomes visible.
type Log interface {
	// Append durably records one committed transaction.
	Append(tx Transaction) error
	// All returns every recorded transaction, ordered by (timestamp, seq).
	All() ([]Transaction, error)
}

// ErrOverdraw is the sentinel matched by errors.Is for sells exceeding the
// held quantity.
var ErrOverdraw = errors.New("overdraw")

// OverdrawError reports a sell exceeding the quantity held at the
// transaction's effective insertion point in the ledger order. It is fatal to
// that single transaction and never corrupts ledger state.
type OverdrawError struct {
	Symbol    string
	Attempted Quantity
	Available Quantity
}

func (e *OverdrawError) Error() string {
	return fmt.Sprintf("cannot sell %s %s: only %s held", e.Attempted, e.Symbol, e.Available)
}

func (e *OverdrawError) Is(target error) bool { return target == ErrOverdraw }

// Ledger is the append-only transaction log plus the derived per-asset
// positions, maintained incrementally.
//
// Writes to one asset are serialized; writes to different assets may proceed
// concurrently. Each apply is all-or-nothing: the new position is computed
// fully, persisted, and then published in one atomic replace, so concurrent
// readers observe either the pre- or the post-apply state, never a partial
// one.
type Ledger struct {
	store Log // optional durable store

	mu     sync.RWMutex // guards seq, all, and the shape of assets
	seq    uint64
	all    []Transaction
	assets map[string]*book
}

// book holds one asset's slice of the log and its current position.
type book struct {
	mu      sync.RWMutex  // serializes writers, guards txs
	txs     []Transaction // ordered by (timestamp, seq)
	current atomic.Pointer[Position]
}

// NewLedger creates an empty, memory-only ledger.
func NewLedger() *Ledger {
	return &Ledger{assets: make(map[string]*book)}
}

// OpenLedger rebuilds a ledger by replaying the store's transaction log, and
// attaches the store so that subsequent applies are durable. Replaying the
// log is the only recovery mechanism: positions are never persisted on their
// own.
func OpenLedger(store Log) (*Ledger, error) {
	txs, err := store.All()
	if err != nil {
		return nil, fmt.Errorf("cannot read transaction log: %w", err)
	}
	l := NewLedger()
	for _, tx := range txs {
		if _, err := l.Apply(&tx); err != nil {
			return nil, fmt.Errorf("corrupt transaction log at %s: %w", tx.ID, err)
		}
	}
	l.store = store
	return l, nil
}

// book returns the book for symbol, creating it if needed.
func (l *Ledger) book(symbol string) *book {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.assets[symbol]
	if !ok {
		b = new(book)
		l.assets[symbol] = b
	}
	return b
}

// Apply commits a single transaction and returns the post-apply position.
//
// The transaction is inserted at its (timestamp, seq) position in the asset's
// order and the position is recomputed by replay from that order, so a
// backdated record lands at its effective insertion point. A sell that would
// drive any prefix of the order negative is rejected with an OverdrawError
// and the ledger is left exactly as it was.
//
// Apply assigns the insertion sequence and, on sells, writes the computed
// realized PnL back onto tx; both fields are ledger-owned and never trusted
// from input.
func (l *Ledger) Apply(tx *Transaction) (Position, error) {
	if tx.Symbol == "" {
		return Position{}, errors.New("transaction has no symbol")
	}

	b := l.book(tx.Symbol)
	b.mu.Lock()
	defer b.mu.Unlock()

	l.mu.Lock()
	l.seq++
	tx.Seq = l.seq
	l.mu.Unlock()

	// Replay a candidate order including the new transaction. The candidate
	// is a full copy: nothing published is touched until it checks out.
	candidate := make([]Transaction, len(b.txs), len(b.txs)+1)
	copy(candidate, b.txs)
	candidate = insertOrdered(candidate, *tx)

	replayed, pos, err := replay(tx.Symbol, candidate)
	if err != nil {
		return Position{}, err
	}

	// The replay recomputed realized PnL for every sell in order; pick up the
	// figure belonging to the new transaction.
	for _, rtx := range replayed {
		if rtx.Seq == tx.Seq {
			tx.RealizedPnL = rtx.RealizedPnL
			break
		}
	}

	// Durable before committed.
	if l.store != nil {
		if err := l.store.Append(*tx); err != nil {
			return Position{}, fmt.Errorf("transaction log append: %w", err)
		}
	}

	b.txs = replayed
	b.current.Store(&pos)

	l.mu.Lock()
	l.all = append(l.all, *tx)
	l.mu.Unlock()
	return pos, nil
}

// insertOrdered inserts tx at its (timestamp, seq) position.
func insertOrdered(txs []Transaction, tx Transaction) []Transaction {
	at := sort.Search(len(txs), func(i int) bool { return tx.Before(txs[i]) })
	txs = append(txs, Transaction{})
	copy(txs[at+1:], txs[at:])
	txs[at] = tx
	return txs
}

// replay folds an ordered transaction slice into a position, filling each
// sell's realized PnL along the way. It works on its own copy and fails with
// an OverdrawError at the first sell exceeding the quantity held at that
// point.
func replay(symbol string, txs []Transaction) ([]Transaction, Position, error) {
	out := slices.Clone(txs)
	pos := Position{Symbol: symbol}
	for i := range out {
		t := &out[i]
		switch t.Side {
		case Buy:
			newQty := pos.Quantity.Add(t.Quantity)
			cost := pos.Basis().Add(t.Gross()).Add(t.Fee)
			pos.avgCost = cost.Div(newQty)
			pos.Quantity = newQty
		case Sell:
			if t.Quantity.GreaterThan(pos.Quantity) {
				return nil, Position{}, &OverdrawError{Symbol: symbol, Attempted: t.Quantity, Available: pos.Quantity}
			}
			realized := t.Price.Sub(pos.avgCost).Mul(t.Quantity).Sub(t.Fee)
			t.RealizedPnL = realized
			pos.Realized = pos.Realized.Add(realized)
			pos.Quantity = pos.Quantity.Sub(t.Quantity)
			if pos.Quantity.IsZero() {
				// A closed position has no cost basis.
				pos.avgCost = Money{}
			}
		default:
			return nil, Position{}, fmt.Errorf("unsupported side %q", t.Side)
		}
		pos.Seq = t.Seq
	}
	return out, pos, nil
}

// Position returns the current position for symbol. The boolean is false when
// the ledger holds no transaction for it.
func (l *Ledger) Position(symbol string) (Position, bool) {
	l.mu.RLock()
	b, ok := l.assets[symbol]
	l.mu.RUnlock()
	if !ok {
		return Position{}, false
	}
	p := b.current.Load()
	if p == nil {
		return Position{}, false
	}
	return *p, true
}

// PositionAt rebuilds the position for symbol by replaying the ordered log up
// to and including asOf. This is the mechanism behind point-in-time queries,
// windowed aggregation and crash recovery.
func (l *Ledger) PositionAt(symbol string, asOf time.Time) Position {
	l.mu.RLock()
	b, ok := l.assets[symbol]
	l.mu.RUnlock()
	if !ok {
		return Position{Symbol: symbol}
	}

	b.mu.RLock()
	prefix := make([]Transaction, 0, len(b.txs))
	for _, tx := range b.txs {
		if tx.Time.After(asOf) {
			break // txs are ordered by time
		}
		prefix = append(prefix, tx)
	}
	b.mu.RUnlock()

	// The prefix of a valid order cannot overdraw.
	_, pos, _ := replay(symbol, prefix)
	return pos
}

// SymbolTransactions yields symbol's transactions in (timestamp, seq) order,
// up to and including max.
func (l *Ledger) SymbolTransactions(symbol string, max time.Time) iter.Seq[Transaction] {
	return func(yield func(Transaction) bool) {
		l.mu.RLock()
		b, ok := l.assets[symbol]
		l.mu.RUnlock()
		if !ok {
			return
		}
		b.mu.RLock()
		txs := slices.Clone(b.txs)
		b.mu.RUnlock()
		for _, tx := range txs {
			if tx.Time.After(max) {
				return
			}
			if !yield(tx) {
				return
			}
		}
	}
}

// Transactions yields every committed transaction in ledger order
// (timestamp, then insertion sequence), across all assets.
func (l *Ledger) Transactions() iter.Seq2[int, Transaction] {
	l.mu.RLock()
	txs := slices.Clone(l.all)
	l.mu.RUnlock()
	slices.SortFunc(txs, func(a, b Transaction) int {
		if a.Before(b) {
			return -1
		}
		if b.Before(a) {
			return 1
		}
		return 0
	})
	return func(yield func(int, Transaction) bool) {
		for i, tx := range txs {
			if !yield(i, tx) {
				return
			}
		}
	}
}

// Symbols returns every asset symbol seen by the ledger, sorted.
func (l *Ledger) Symbols() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	symbols := slices.Collect(maps.Keys(l.assets))
	slices.Sort(symbols)
	return symbols
}

// Positions returns the current position of every asset, sorted by symbol.
// Closed positions (zero quantity) are included: they still carry realized
// PnL.
func (l *Ledger) Positions() []Position {
	var out []Position
	for _, symbol := range l.Symbols() {
		if p, ok := l.Position(symbol); ok {
			out = append(out, p)
		}
	}
	return out
}

// LastSeq returns the insertion sequence of the most recently committed
// transaction. It is the ledger's logical version: aggregation caches key on
// it.
func (l *Ledger) LastSeq() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.seq
}

// Len returns the number of committed transactions.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.all)
}

// FirstTime returns the timestamp of the earliest committed transaction. The
// boolean is false for an empty ledger.
func (l *Ledger) FirstTime() (time.Time, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var first time.Time
	for _, tx := range l.all {
		if first.IsZero() || tx.Time.Before(first) {
			first = tx.Time
		}
	}
	return first, !first.IsZero()
}
