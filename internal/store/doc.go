// Package store handles Postgres persistence for the trade log.
//
// Trades are append-only: the writer batches rows and inserts with
// ON CONFLICT DO NOTHING keyed on trade_id, so replays after a crash or
// reconnect never duplicate rows. Timestamps are stored as microseconds
// since epoch.
package store
