package folio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// IngestStatus is the outcome class of an ingestion.
type IngestStatus string

const (
	Committed     IngestStatus = "committed"
	PendingReview IngestStatus = "pending-review"
	Rejected      IngestStatus = "rejected"
)

// IngestResult is the outcome of one ingestion. Exactly one of Transaction,
// Pending or Errs is set, matching Status. A rejection is a result, not an
// error: the error return of Ingest is reserved for infrastructure failures
// (cancelled context, broken log store).
type IngestResult struct {
	Status      IngestStatus
	Transaction *Transaction       // Committed
	Pending     *PendingExtraction // PendingReview
	Errs        error              // Rejected: NormalizationErrors or *OverdrawError
}

// ErrNotFound reports an unknown symbol or pending-extraction id.
var ErrNotFound = errors.New("not found")

// ErrAlreadyReviewed reports a second review action on the same pending
// extraction. Confirming twice never applies the record twice.
var ErrAlreadyReviewed = errors.New("already reviewed")

// PendingStore persists the pending-review queue across process restarts.
type PendingStore interface {
	// SavePending records a newly deferred extraction.
	SavePending(p PendingExtraction) error
	// UpdatePending records a review decision.
	UpdatePending(p PendingExtraction) error
	// PendingAll returns every recorded extraction, reviewed or not.
	PendingAll() ([]PendingExtraction, error)
}

// Coordinator is the single entry point for writes: every record goes through
// normalize → gate → apply in that order, so nothing reaches the ledger
// unvalidated. It also owns the pending-review parking lot.
type Coordinator struct {
	ledger *Ledger
	agg    *Aggregator
	norm   Normalizer
	gate   GatePolicy
	now    func() time.Time
	log    zerolog.Logger

	mu      sync.Mutex
	store   PendingStore // optional
	pending map[string]*PendingExtraction
}

// NewCoordinator wires the engine together.
func NewCoordinator(ledger *Ledger, agg *Aggregator, norm Normalizer, gate GatePolicy, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		ledger:  ledger,
		agg:     agg,
		norm:    norm,
		gate:    gate,
		now:     time.Now,
		log:     logger,
		pending: make(map[string]*PendingExtraction),
	}
}

// SetPendingStore attaches a durable pending-review queue and loads its
// content.
func (c *Coordinator) SetPendingStore(store PendingStore) error {
	all, err := store.PendingAll()
	if err != nil {
		return fmt.Errorf("cannot read pending queue: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range all {
		c.pending[p.ID] = &p
	}
	c.store = store
	return nil
}

// Ingest accepts one raw record from the given source and either commits it,
// parks it for human review (AI-extracted records that fail the confidence
// gate), or rejects it with the full list of problems.
func (c *Coordinator) Ingest(ctx context.Context, raw RawRecord, source Source) (IngestResult, error) {
	now := c.now()

	tx, err := c.norm.Normalize(raw, now)
	if err != nil {
		c.log.Warn().Str("symbol", raw.Symbol).Err(err).Msg("record rejected by normalizer")
		return IngestResult{Status: Rejected, Errs: err}, nil
	}
	tx.Source = source

	if source == AIExtracted {
		if adm := c.gate.Admit(raw.Confidence); !adm.Accepted {
			p := NewPendingExtraction(raw, adm.Reasons, now)
			c.mu.Lock()
			if c.store != nil {
				if err := c.store.SavePending(*p); err != nil {
					c.mu.Unlock()
					return IngestResult{}, fmt.Errorf("pending queue save: %w", err)
				}
			}
			c.pending[p.ID] = p
			c.mu.Unlock()
			c.log.Info().Str("pending_id", p.ID).Str("symbol", tx.Symbol).
				Strs("reasons", adm.Reasons).Msg("extraction deferred for review")
			return IngestResult{Status: PendingReview, Pending: p}, nil
		}
	}

	return c.commit(ctx, tx)
}

// commit applies a normalized transaction to the ledger. A cancelled context
// before the apply leaves the ledger unmodified.
func (c *Coordinator) commit(ctx context.Context, tx Transaction) (IngestResult, error) {
	if err := ctx.Err(); err != nil {
		return IngestResult{}, err
	}

	tx.ID = NewTransactionID()
	pos, err := c.ledger.Apply(&tx)
	var overdraw *OverdrawError
	if errors.As(err, &overdraw) {
		c.log.Warn().Str("symbol", tx.Symbol).
			Stringer("attempted", overdraw.Attempted).
			Stringer("available", overdraw.Available).Msg("transaction rejected")
		return IngestResult{Status: Rejected, Errs: overdraw}, nil
	}
	if err != nil {
		return IngestResult{}, fmt.Errorf("apply %s: %w", tx.ID, err)
	}

	c.log.Info().Str("id", tx.ID).Str("symbol", tx.Symbol).Str("side", string(tx.Side)).
		Stringer("quantity", tx.Quantity).Stringer("position", pos.Quantity).
		Msg("transaction committed")
	return IngestResult{Status: Committed, Transaction: &tx}, nil
}

// ConfirmPending commits a previously deferred extraction. The record
// re-enters at the normalizer with source forced to AIExtracted and its
// confidence scores retained for audit; the gate is not consulted again, the
// human decision supersedes it. A second confirmation of the same id returns
// ErrAlreadyReviewed, never a duplicate transaction.
func (c *Coordinator) ConfirmPending(ctx context.Context, id string) (IngestResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[id]
	if !ok {
		return IngestResult{}, fmt.Errorf("pending extraction %q: %w", id, ErrNotFound)
	}
	if p.Status != ReviewPending {
		return IngestResult{}, fmt.Errorf("pending extraction %q is %s: %w", id, p.Status, ErrAlreadyReviewed)
	}

	now := c.now()
	tx, err := c.norm.Normalize(p.Raw, now)
	if err != nil {
		// Left pending: the reviewer can only confirm or reject, a broken
		// record has to be re-captured.
		return IngestResult{Status: Rejected, Errs: err}, nil
	}
	tx.Source = AIExtracted

	res, err := c.commit(ctx, tx)
	if err != nil {
		return IngestResult{}, err
	}
	if res.Status == Committed {
		p.Status = ReviewConfirmed
		p.Reviewed = now.UTC()
		if c.store != nil {
			if err := c.store.UpdatePending(*p); err != nil {
				return res, fmt.Errorf("pending queue update: %w", err)
			}
		}
	}
	return res, nil
}

// RejectPending discards a deferred extraction. The record is kept, marked
// rejected, for audit.
func (c *Coordinator) RejectPending(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[id]
	if !ok {
		return fmt.Errorf("pending extraction %q: %w", id, ErrNotFound)
	}
	if p.Status != ReviewPending {
		return fmt.Errorf("pending extraction %q is %s: %w", id, p.Status, ErrAlreadyReviewed)
	}
	p.Status = ReviewRejected
	p.Reviewed = c.now().UTC()
	if c.store != nil {
		if err := c.store.UpdatePending(*p); err != nil {
			return fmt.Errorf("pending queue update: %w", err)
		}
	}
	c.log.Info().Str("pending_id", id).Msg("extraction rejected by reviewer")
	return nil
}

// Pending returns every pending extraction still awaiting review, oldest
// first.
func (c *Coordinator) Pending() []PendingExtraction {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []PendingExtraction
	for _, p := range c.pending {
		if p.Status == ReviewPending {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created) })
	return out
}

// GetPosition returns the current position for symbol.
func (c *Coordinator) GetPosition(symbol string) (Position, error) {
	p, ok := c.ledger.Position(symbol)
	if !ok {
		return Position{}, fmt.Errorf("position %q: %w", symbol, ErrNotFound)
	}
	return p, nil
}

// Positions returns the current position of every asset, sorted by symbol.
func (c *Coordinator) Positions() []Position {
	return c.ledger.Positions()
}

// Transactions yields every committed transaction in ledger order.
func (c *Coordinator) Transactions() iter.Seq2[int, Transaction] {
	return c.ledger.Transactions()
}

// Export writes the committed transaction log to w as CSV.
func (c *Coordinator) Export(w io.Writer) error {
	return ExportTransactions(w, c.ledger)
}

// GetSnapshot computes (or serves from cache) the PnL snapshot for one symbol
// or ScopeAll over the given window.
func (c *Coordinator) GetSnapshot(ctx context.Context, scope string, window Window) (*PnLSnapshot, error) {
	return c.agg.Snapshot(ctx, scope, window)
}

// ReplayLog rebuilds the position for symbol from the ordered transaction log
// up to and including upTo. Used for audits and backfills.
func (c *Coordinator) ReplayLog(symbol string, upTo time.Time) Position {
	return c.ledger.PositionAt(symbol, upTo)
}
