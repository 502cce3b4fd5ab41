// Package folio implements a transaction reconciliation and portfolio
// analytics engine for an individual investor. It turns a stream of raw,
// possibly noisy transaction records (entered manually or extracted from
// broker screenshots by an AI vision service) into a consistent position
// ledger, and derives realized and unrealized profit/loss figures.
//
// The core functionalities include:
//   - Normalization: validating and canonicalizing raw records into exact
//     decimal transactions, collecting every field problem at once.
//   - Confidence Gating: AI-extracted candidates are admitted to the ledger
//     only when every required field clears a configurable confidence
//     threshold; everything else is parked for human review.
//   - Position Ledger: an append-only transaction log with derived per-asset
//     positions (quantity, weighted-average cost basis, cumulative realized
//     PnL), always reconstructible by replaying the log.
//   - PnL Aggregation: realized/unrealized figures over rolling windows
//     (7d, 30d, 1y) and all-time, degrading gracefully when a market price
//     cannot be fetched.
//
// All monetary arithmetic is exact: quantities, prices, fees and PnL are
// decimal values, never binary floating point.
//
// This package serves as the foundational logic for the `fcs` command-line
// tool; persistence (package txlog) and AI extraction (package extract) plug
// in at the edges through small interfaces.
package folio
