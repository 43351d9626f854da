// Package catalog keeps a SQLite index of recorded sessions so they can be
// listed without scanning the data directory.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"motion-logger/models"
)

// ErrNotFound is returned by Get for an unknown session id.
var ErrNotFound = errors.New("session not found")

const (
	StatusActive   = "active"
	StatusComplete = "complete"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	path         TEXT NOT NULL,
	started_at   INTEGER NOT NULL,
	ended_at     INTEGER,
	duration_s   INTEGER NOT NULL DEFAULT 0,
	row_count    INTEGER NOT NULL DEFAULT 0,
	write_errors INTEGER NOT NULL DEFAULT 0,
	status       TEXT NOT NULL DEFAULT 'active'
);
CREATE INDEX IF NOT EXISTS sessions_started ON sessions(started_at);
`

// Entry is one catalogued session.
type Entry struct {
	ID          string
	Name        string
	Path        string
	StartedAt   time.Time
	EndedAt     *time.Time
	Duration    time.Duration
	Rows        uint64
	WriteErrors uint64
	Status      string
}

// Store is the session catalog.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the catalog at path. ":memory:" is accepted.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create catalog dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init catalog schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Begin records a newly opened session.
func (s *Store) Begin(info models.SessionInfo) error {
	_, err := s.db.Exec(`
		INSERT INTO sessions (id, name, path, started_at, status)
		VALUES (?, ?, ?, ?, ?)
	`, info.ID, info.Name, info.Path, info.Start.UnixMilli(), StatusActive)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Finish marks a session complete. A session never begun is inserted whole.
func (s *Store) Finish(sum models.SessionSummary) error {
	_, err := s.db.Exec(`
		INSERT INTO sessions (id, name, path, started_at, ended_at, duration_s, row_count, write_errors, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ended_at = excluded.ended_at,
			duration_s = excluded.duration_s,
			row_count = excluded.row_count,
			write_errors = excluded.write_errors,
			status = excluded.status
	`, sum.ID, sum.Name, sum.Path, sum.Start.UnixMilli(), sum.End.UnixMilli(),
		sum.DurationSeconds(), sum.Rows, sum.WriteErrors, StatusComplete)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	return nil
}

const selectEntry = `
	SELECT id, name, path, started_at, ended_at, duration_s, row_count, write_errors, status
	FROM sessions`

// List returns the most recent sessions first. limit <= 0 returns all.
func (s *Store) List(limit int) ([]Entry, error) {
	q := selectEntry + ` ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get returns one session by id.
func (s *Store) Get(id string) (Entry, error) {
	e, err := scanEntry(s.db.QueryRow(selectEntry+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		e        Entry
		started  int64
		ended    sql.NullInt64
		duration int64
	)
	err := sc.Scan(&e.ID, &e.Name, &e.Path, &started, &ended, &duration,
		&e.Rows, &e.WriteErrors, &e.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, err
	}
	if err != nil {
		return Entry{}, fmt.Errorf("scan session: %w", err)
	}
	e.StartedAt = time.UnixMilli(started).UTC()
	if ended.Valid {
		t := time.UnixMilli(ended.Int64).UTC()
		e.EndedAt = &t
	}
	e.Duration = time.Duration(duration) * time.Second
	return e, nil
}
