// Package store provides a SQLite-backed log of chat exchanges. Every
// answered (or failed) question is appended with its retrieval stats so the
// site owner can review what visitors ask and how well retrieval performed.
// The log is observational only — it is never injected back into prompts.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// Exchange is one question/answer round-trip through the chat endpoint.
type Exchange struct {
	// Question is the visitor's message as received.
	Question string
	// Reply is the generated answer, or empty when the request failed.
	Reply string
	// Matches is the number of chunks retrieved above the similarity threshold.
	Matches int
	// Duration is the wall-clock time of the pipeline run.
	Duration time.Duration
	// CreatedAt is when the exchange was persisted.
	CreatedAt time.Time
}

// ExchangeLog persists and retrieves chat exchanges. Implementations must be
// safe for concurrent use.
type ExchangeLog interface {
	// Append persists a single exchange.
	Append(ctx context.Context, ex Exchange) error
	// Recent returns the most recent n exchanges, newest-first.
	// If fewer than n exchanges exist, all are returned.
	Recent(ctx context.Context, n int) ([]Exchange, error)
	// Close releases any resources held by the log.
	Close() error
}

// SQLiteLog is an ExchangeLog backed by a local SQLite database.
type SQLiteLog struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default path for the exchange log database.
// It resolves to ~/.foliorag/exchanges.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".foliorag")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "exchanges.db"), nil
}

// Open opens (or creates) a SQLiteLog at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteLog, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteLog{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteLog) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS exchanges (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    question     TEXT    NOT NULL,
    reply        TEXT    NOT NULL,
    matches      INTEGER NOT NULL,
    duration_ms  INTEGER NOT NULL,
    created_at   INTEGER NOT NULL  -- Unix timestamp (seconds)
);
CREATE INDEX IF NOT EXISTS idx_exchanges_created
    ON exchanges (created_at);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Append persists a single exchange.
func (s *SQLiteLog) Append(ctx context.Context, ex Exchange) error {
	const q = `INSERT INTO exchanges (question, reply, matches, duration_ms, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, ex.Question, ex.Reply, ex.Matches, ex.Duration.Milliseconds(), time.Now().Unix()); err != nil {
		return fmt.Errorf("store: append: %w", err)
	}
	return nil
}

// Recent returns the most recent n exchanges, newest-first.
func (s *SQLiteLog) Recent(ctx context.Context, n int) ([]Exchange, error) {
	const q = `
SELECT question, reply, matches, duration_ms, created_at
FROM   exchanges
ORDER  BY created_at DESC, id DESC
LIMIT  ?`

	rows, err := s.db.QueryContext(ctx, q, n)
	if err != nil {
		return nil, fmt.Errorf("store: recent: %w", err)
	}
	defer rows.Close()

	var out []Exchange
	for rows.Next() {
		var ex Exchange
		var durMS, ts int64
		if err := rows.Scan(&ex.Question, &ex.Reply, &ex.Matches, &durMS, &ts); err != nil {
			return nil, fmt.Errorf("store: recent scan: %w", err)
		}
		ex.Duration = time.Duration(durMS) * time.Millisecond
		ex.CreatedAt = time.Unix(ts, 0)
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: recent rows: %w", err)
	}
	return out, nil
}

// Close releases the database connection pool.
func (s *SQLiteLog) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}
