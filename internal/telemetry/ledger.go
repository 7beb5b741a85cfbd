// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/hud/internal/stream"
)

// schema creates the usage table on first open.
const schema = `
CREATE TABLE IF NOT EXISTS usage (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at  INTEGER NOT NULL,
	model       TEXT    NOT NULL,
	provider    TEXT    NOT NULL,
	outcome     TEXT    NOT NULL,
	chunks      INTEGER NOT NULL,
	ttft_ms     INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_started_at ON usage(started_at);
`

// =============================================================================
// LEDGER
// =============================================================================

// Ledger persists one row per finished stream. It implements
// stream.Recorder.
type Ledger struct {
	mu sync.Mutex
	db *sql.DB
}

// DefaultPath returns ~/.hud/usage.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".hud", "usage.db"), nil
}

// Open opens (creating if needed) the ledger at path. An empty path uses
// DefaultPath.
func Open(path string) (*Ledger, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Ledger{db: db}, nil
}

// Close releases the database handle.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.db.Close()
}

// Record inserts one usage row. Recording is best-effort: a write failure
// must never take down the stream that produced the result, so errors are
// swallowed here.
func (l *Ledger) Record(r stream.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.db.Exec(
		`INSERT INTO usage (started_at, model, provider, outcome, chunks, ttft_ms, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.StartedAt.Unix(),
		r.Model,
		r.Provider,
		r.State.String(),
		r.Chunks,
		r.TTFT.Milliseconds(),
		r.Duration.Milliseconds(),
	)
}

// =============================================================================
// QUERIES
// =============================================================================

// Summary aggregates the ledger for display.
type Summary struct {
	Total       int
	Completed   int
	Cancelled   int
	Failed      int
	TotalChunks int
	AvgTTFT     time.Duration
	AvgDuration time.Duration
}

// Summarize aggregates all recorded streams.
func (l *Ledger) Summarize() (*Summary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	row := l.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN outcome = 'Completed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = 'Cancelled' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = 'Failed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(chunks), 0),
			COALESCE(AVG(CASE WHEN ttft_ms > 0 THEN ttft_ms END), 0),
			COALESCE(AVG(duration_ms), 0)
		FROM usage`)

	var s Summary
	var avgTTFT, avgDuration float64
	if err := row.Scan(&s.Total, &s.Completed, &s.Cancelled, &s.Failed, &s.TotalChunks, &avgTTFT, &avgDuration); err != nil {
		return nil, err
	}
	s.AvgTTFT = time.Duration(avgTTFT) * time.Millisecond
	s.AvgDuration = time.Duration(avgDuration) * time.Millisecond
	return &s, nil
}

// Entry is one recorded stream.
type Entry struct {
	StartedAt time.Time
	Model     string
	Provider  string
	Outcome   string
	Chunks    int
	TTFT      time.Duration
	Duration  time.Duration
}

// Recent returns the latest n entries, newest first.
func (l *Ledger) Recent(n int) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.db.Query(
		`SELECT started_at, model, provider, outcome, chunks, ttft_ms, duration_ms
		 FROM usage ORDER BY started_at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var startedAt, ttftMs, durationMs int64
		if err := rows.Scan(&startedAt, &e.Model, &e.Provider, &e.Outcome, &e.Chunks, &ttftMs, &durationMs); err != nil {
			return nil, err
		}
		e.StartedAt = time.Unix(startedAt, 0)
		e.TTFT = time.Duration(ttftMs) * time.Millisecond
		e.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}
