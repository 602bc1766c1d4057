// Package telemetry persists checkpoint progress to an SQLite database so
// long runs can be inspected while they are still going.
package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wildfunctions/evolving_images/pkg/checkpoint"
)

// Schema creates the checkpoint table. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS checkpoints (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    generation INTEGER NOT NULL,
    fitness REAL NOT NULL,
    speed REAL NOT NULL,
    written INTEGER NOT NULL DEFAULT 0,
    path TEXT,
    recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_checkpoints_generation ON checkpoints(generation DESC);
`

// Store records checkpoint progress. It implements checkpoint.Recorder.
type Store struct {
	db *sql.DB
}

var _ checkpoint.Recorder = (*Store)(nil)

// Open opens (or creates) the database at path and applies the schema.
// ":memory:" gives a private in-memory store.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("telemetry: empty database path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("telemetry: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open: %w", err)
	}
	// The supervisor is the only writer; one connection also keeps
	// ":memory:" databases from splitting per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("telemetry: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("telemetry: exec schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record inserts one checkpoint row.
func (s *Store) Record(ctx context.Context, p checkpoint.Progress) error {
	written := 0
	if p.Written {
		written = 1
	}
	at := p.Time
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO checkpoints (generation, fitness, speed, written, path, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.Generation, p.Fitness, p.Speed, written, p.Path, at.UnixMilli())
	if err != nil {
		return fmt.Errorf("telemetry: record generation %d: %w", p.Generation, err)
	}
	return nil
}

// Recent returns up to limit checkpoints, newest generation first.
func (s *Store) Recent(ctx context.Context, limit int) ([]checkpoint.Progress, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT generation, fitness, speed, written, COALESCE(path, ''), recorded_at
		 FROM checkpoints ORDER BY generation DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("telemetry: query: %w", err)
	}
	defer rows.Close()

	var out []checkpoint.Progress
	for rows.Next() {
		var (
			p       checkpoint.Progress
			written int
			at      int64
		)
		if err := rows.Scan(&p.Generation, &p.Fitness, &p.Speed, &written, &p.Path, &at); err != nil {
			return nil, fmt.Errorf("telemetry: scan: %w", err)
		}
		p.Written = written != 0
		p.Time = time.UnixMilli(at)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
