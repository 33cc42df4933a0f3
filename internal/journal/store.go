// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package journal persists terminal negotiation outcomes in SQLite for
// later inspection.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)
)

// Entry is one recorded outcome.
type Entry struct {
	ID            int64     `json:"id"`
	SessionID     string    `json:"session_id"`
	RequestID     string    `json:"request_id,omitempty"`
	Category      string    `json:"category"`
	Outcome       string    `json:"outcome"`
	SelectedURI   string    `json:"selected_uri,omitempty"`
	Candidates    int       `json:"candidates"`
	LastResortURI string    `json:"last_resort_uri,omitempty"`
	Platform      string    `json:"platform,omitempty"`
	Family        string    `json:"family,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store is a bounded outcome log. Only the newest retain entries are kept.
type Store struct {
	db     *sql.DB
	retain int
}

// Open opens or creates the journal at dbPath and runs migrations.
func Open(dbPath string, retain int) (*Store, error) {
	if retain <= 0 {
		return nil, fmt.Errorf("journal: retain must be positive, got %d", retain)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: open failed: %w", err)
	}
	// One writer keeps SQLITE_BUSY out of the insert-then-trim sequence.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: ping failed: %w", err)
	}

	s := &Store{db: db, retain: retain}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: run migrations: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		request_id TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		outcome TEXT NOT NULL CHECK(outcome IN ('ready', 'unsupported', 'no_capability')),
		selected_uri TEXT NOT NULL DEFAULT '',
		candidates INTEGER NOT NULL DEFAULT 0,
		last_resort_uri TEXT NOT NULL DEFAULT '',
		platform TEXT NOT NULL DEFAULT '',
		family TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_outcomes_outcome ON outcomes(outcome);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends e and trims the log to the retention bound. A zero
// CreatedAt is stamped with the current time.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.wrap("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO outcomes (session_id, request_id, category, outcome, selected_uri, candidates, last_resort_uri, platform, family, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.RequestID, e.Category, e.Outcome, e.SelectedURI, e.Candidates,
		e.LastResortURI, e.Platform, e.Family, e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return s.wrap("insert", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM outcomes WHERE id NOT IN (
			SELECT id FROM outcomes ORDER BY id DESC LIMIT ?
		)`, s.retain)
	if err != nil {
		return s.wrap("trim", err)
	}
	return s.wrap("commit", tx.Commit())
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, request_id, category, outcome, selected_uri, candidates, last_resort_uri, platform, family, created_at
		FROM outcomes ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, s.wrap("query", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			created string
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.RequestID, &e.Category, &e.Outcome, &e.SelectedURI,
			&e.Candidates, &e.LastResortURI, &e.Platform, &e.Family, &created); err != nil {
			return nil, s.wrap("scan", err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("journal: parse created_at %q: %w", created, err)
		}
		entries = append(entries, e)
	}
	return entries, s.wrap("iterate", rows.Err())
}

// Counts returns the number of retained entries per outcome.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM outcomes GROUP BY outcome`)
	if err != nil {
		return nil, s.wrap("count", err)
	}
	defer func() { _ = rows.Close() }()

	counts := map[string]int{}
	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, s.wrap("scan", err)
		}
		counts[outcome] = n
	}
	return counts, s.wrap("iterate", rows.Err())
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.wrap("ping", s.db.PingContext(ctx))
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("journal: %s: %w", op, err)
}
