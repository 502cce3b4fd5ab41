// txlog/schema.go
package txlog

const Schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	seq INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	quantity TEXT NOT NULL,
	price TEXT NOT NULL,
	fee TEXT NOT NULL,
	currency TEXT NOT NULL,
	time DATETIME NOT NULL,
	source TEXT NOT NULL,
	realized_pnl TEXT NOT NULL,
	confidence TEXT,
	memo TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_symbol ON transactions(symbol);
CREATE INDEX IF NOT EXISTS idx_transactions_time ON transactions(time, seq);

CREATE TABLE IF NOT EXISTS pending (
	id TEXT PRIMARY KEY,
	raw TEXT NOT NULL,
	reasons TEXT NOT NULL,
	status TEXT NOT NULL,
	created DATETIME NOT NULL,
	reviewed DATETIME
);
`
