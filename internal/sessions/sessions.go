// Package sessions persists chat history per session key in SQLite, so the
// composer can be handed a bounded window of past exchanges.
package sessions

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Turn is one stored question/answer exchange.
type Turn struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a SQLite-backed history store. Safe for concurrent use; SQLite
// serializes writers internally.
type Store struct {
	db *sql.DB
}

// Open creates or opens the session database at path. ":memory:" gives an
// ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sessions: open database: %w", err)
	}
	// One connection keeps ":memory:" stores coherent and sidesteps
	// SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("sessions: pragma failed: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS turns (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_key TEXT NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_key, id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("sessions: schema creation failed: %w", err)
	}
	return nil
}

// Append records one exchange for the session.
func (s *Store) Append(ctx context.Context, key, question, answer string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO turns (session_key, question, answer, created_at) VALUES (?, ?, ?, ?)",
		key, question, answer, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("sessions: append: %w", err)
	}
	return nil
}

// History returns the last n turns for the session, oldest first.
func (s *Store) History(ctx context.Context, key string, n int) ([]Turn, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT question, answer, created_at FROM turns WHERE session_key = ? ORDER BY id DESC LIMIT ?",
		key, n)
	if err != nil {
		return nil, fmt.Errorf("sessions: query history: %w", err)
	}
	defer rows.Close()

	var newestFirst []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.Question, &t.Answer, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("sessions: scan turn: %w", err)
		}
		newestFirst = append(newestFirst, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sessions: iterate history: %w", err)
	}

	// Reverse to oldest-first for prompt assembly.
	out := make([]Turn, len(newestFirst))
	for i, t := range newestFirst {
		out[len(out)-1-i] = t
	}
	return out, nil
}

// Clear drops all turns for the session.
func (s *Store) Clear(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM turns WHERE session_key = ?", key)
	if err != nil {
		return fmt.Errorf("sessions: clear: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
