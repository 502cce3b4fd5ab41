// Package txlog persists the transaction log in a local SQLite database.
//
// Monetary amounts and quantities are stored as their exact decimal string
// representation, never as REAL: the log is the source of truth and must
// round-trip without loss.
package txlog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/etnz/folio"
)

// SQLiteLog is a durable append-only transaction log. It implements folio.Log.
type SQLiteLog struct {
	db *sql.DB
}

// Open opens (creating if needed) the transaction log at path.
func Open(path string) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("transaction log schema: %w", err)
	}
	return &SQLiteLog{db: db}, nil
}

// Append durably records one committed transaction.
func (l *SQLiteLog) Append(tx folio.Transaction) error {
	var conf sql.NullString
	if tx.Confidence != nil {
		data, err := json.Marshal(tx.Confidence)
		if err != nil {
			return fmt.Errorf("encode confidence: %w", err)
		}
		conf = sql.NullString{String: string(data), Valid: true}
	}

	_, err := l.db.Exec(`
		INSERT INTO transactions
		(id, seq, symbol, side, quantity, price, fee, currency, time, source, realized_pnl, confidence, memo)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.Seq, tx.Symbol, string(tx.Side),
		tx.Quantity.String(), tx.Price.Decimal().String(), tx.Fee.Decimal().String(),
		tx.Price.Currency(), tx.Time.UTC().Format(time.RFC3339Nano), string(tx.Source),
		tx.RealizedPnL.Decimal().String(), conf, tx.Memo,
	)
	if err != nil {
		return fmt.Errorf("append transaction %s: %w", tx.ID, err)
	}
	return nil
}

// All returns every recorded transaction ordered by (timestamp, seq), the
// ledger's replay order.
func (l *SQLiteLog) All() ([]folio.Transaction, error) {
	rows, err := l.db.Query(`
		SELECT id, seq, symbol, side, quantity, price, fee, currency, time, source, realized_pnl, confidence, memo
		FROM transactions ORDER BY time, seq`)
	if err != nil {
		return nil, fmt.Errorf("read transaction log: %w", err)
	}
	defer rows.Close()

	var out []folio.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func scanTransaction(rows *sql.Rows) (folio.Transaction, error) {
	var (
		tx                        folio.Transaction
		side, source              string
		qty, price, fee, realized string
		currency, ts              string
		conf                      sql.NullString
	)
	err := rows.Scan(&tx.ID, &tx.Seq, &tx.Symbol, &side, &qty, &price, &fee,
		&currency, &ts, &source, &realized, &conf, &tx.Memo)
	if err != nil {
		return folio.Transaction{}, err
	}

	if tx.Side, err = folio.ParseSide(side); err != nil {
		return folio.Transaction{}, fmt.Errorf("transaction %s: %w", tx.ID, err)
	}
	if tx.Source, err = folio.ParseSource(source); err != nil {
		return folio.Transaction{}, fmt.Errorf("transaction %s: %w", tx.ID, err)
	}
	if tx.Quantity, err = folio.ParseQuantity(qty); err != nil {
		return folio.Transaction{}, fmt.Errorf("transaction %s: quantity: %w", tx.ID, err)
	}
	if tx.Price, err = folio.ParseMoney(price, currency); err != nil {
		return folio.Transaction{}, fmt.Errorf("transaction %s: price: %w", tx.ID, err)
	}
	if tx.Fee, err = folio.ParseMoney(fee, currency); err != nil {
		return folio.Transaction{}, fmt.Errorf("transaction %s: fee: %w", tx.ID, err)
	}
	if tx.RealizedPnL, err = folio.ParseMoney(realized, currency); err != nil {
		return folio.Transaction{}, fmt.Errorf("transaction %s: realized_pnl: %w", tx.ID, err)
	}
	if tx.Time, err = time.Parse(time.RFC3339Nano, ts); err != nil {
		return folio.Transaction{}, fmt.Errorf("transaction %s: time: %w", tx.ID, err)
	}
	if conf.Valid {
		tx.Confidence = new(folio.ExtractionConfidence)
		if err := json.Unmarshal([]byte(conf.String), tx.Confidence); err != nil {
			return folio.Transaction{}, fmt.Errorf("transaction %s: confidence: %w", tx.ID, err)
		}
	}
	return tx, nil
}

// SavePending records a newly deferred extraction in the review queue.
func (l *SQLiteLog) SavePending(p folio.PendingExtraction) error {
	raw, err := json.Marshal(p.Raw)
	if err != nil {
		return fmt.Errorf("encode pending %s: %w", p.ID, err)
	}
	reasons, err := json.Marshal(p.Reasons)
	if err != nil {
		return fmt.Errorf("encode pending %s: %w", p.ID, err)
	}
	_, err = l.db.Exec(`
		INSERT INTO pending (id, raw, reasons, status, created, reviewed)
		VALUES (?, ?, ?, ?, ?, NULL)`,
		p.ID, string(raw), string(reasons), string(p.Status),
		p.Created.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save pending %s: %w", p.ID, err)
	}
	return nil
}

// UpdatePending records a review decision.
func (l *SQLiteLog) UpdatePending(p folio.PendingExtraction) error {
	res, err := l.db.Exec(`UPDATE pending SET status = ?, reviewed = ? WHERE id = ?`,
		string(p.Status), p.Reviewed.UTC().Format(time.RFC3339Nano), p.ID)
	if err != nil {
		return fmt.Errorf("update pending %s: %w", p.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update pending %s: unknown id", p.ID)
	}
	return nil
}

// PendingAll returns every recorded extraction, reviewed or not.
func (l *SQLiteLog) PendingAll() ([]folio.PendingExtraction, error) {
	rows, err := l.db.Query(`SELECT id, raw, reasons, status, created, reviewed FROM pending ORDER BY created`)
	if err != nil {
		return nil, fmt.Errorf("read pending queue: %w", err)
	}
	defer rows.Close()

	var out []folio.PendingExtraction
	for rows.Next() {
		var (
			p            folio.PendingExtraction
			raw, reasons string
			status, ts   string
			reviewed     sql.NullString
		)
		if err := rows.Scan(&p.ID, &raw, &reasons, &status, &ts, &reviewed); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &p.Raw); err != nil {
			return nil, fmt.Errorf("pending %s: raw: %w", p.ID, err)
		}
		if err := json.Unmarshal([]byte(reasons), &p.Reasons); err != nil {
			return nil, fmt.Errorf("pending %s: reasons: %w", p.ID, err)
		}
		p.Status = folio.ReviewStatus(status)
		if p.Created, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("pending %s: created: %w", p.ID, err)
		}
		if reviewed.Valid {
			if p.Reviewed, err = time.Parse(time.RFC3339Nano, reviewed.String); err != nil {
				return nil, fmt.Errorf("pending %s: reviewed: %w", p.ID, err)
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (l *SQLiteLog) Close() error {
	return l.db.Close()
}
