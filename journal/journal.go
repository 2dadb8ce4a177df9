// Package journal records evaluations in a SQLite database so that REPL
// and server sessions can be reviewed later.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Outcome classifies a journaled evaluation.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeCompile Outcome = "compile"
	OutcomeRuntime Outcome = "runtime"
)

// Entry is one journaled evaluation.
type Entry struct {
	ID        int64
	Session   string
	Source    string
	Outcome   Outcome
	Value     string // printed result, empty unless Outcome is OutcomeOK
	Message   string // error text, empty on success
	CreatedAt time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS evaluations (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session    TEXT NOT NULL,
	source     TEXT NOT NULL,
	outcome    TEXT NOT NULL,
	value      TEXT NOT NULL DEFAULT '',
	message    TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS evaluations_session ON evaluations(session, id);
`

// Journal is a handle on the evaluation database. It is safe for
// concurrent use.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal at path. Use ":memory:" for
// a private in-memory journal.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends an entry and returns its ID. A zero CreatedAt is set to now.
func (j *Journal) Record(ctx context.Context, e Entry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	res, err := j.db.ExecContext(ctx,
		`INSERT INTO evaluations (session, source, outcome, value, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Session, e.Source, string(e.Outcome), e.Value, e.Message, e.CreatedAt.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("journal: record: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit entries, newest first. An empty session
// matches every session.
func (j *Journal) Recent(ctx context.Context, session string, limit int) ([]Entry, error) {
	query := `SELECT id, session, source, outcome, value, message, created_at
		FROM evaluations`
	var args []any
	if session != "" {
		query += ` WHERE session = ?`
		args = append(args, session)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var outcome string
		var created int64
		if err := rows.Scan(&e.ID, &e.Session, &e.Source, &outcome, &e.Value, &e.Message, &created); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		e.Outcome = Outcome(outcome)
		e.CreatedAt = time.Unix(0, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of entries for session, or all entries when
// session is empty.
func (j *Journal) Count(ctx context.Context, session string) (int, error) {
	query := `SELECT COUNT(*) FROM evaluations`
	var args []any
	if session != "" {
		query += ` WHERE session = ?`
		args = append(args, session)
	}
	var n int
	if err := j.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("journal: count: %w", err)
	}
	return n, nil
}
