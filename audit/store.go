// Package audit persists an optional invocation trail for tool calls in
// a local SQLite database.
package audit

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const storeSchema = `
CREATE TABLE IF NOT EXISTS tool_calls (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	tool TEXT NOT NULL,
	status TEXT NOT NULL,
	exit_code INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tool_calls_created_at ON tool_calls(created_at);`

// Record is one audited tool invocation.
type Record struct {
	ID        string
	SessionID string
	Tool      string
	Status    string
	ExitCode  int
	Duration  time.Duration
	CreatedAt time.Time
}

// Store persists tool call records.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the default audit database location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve user home")
	}
	return filepath.Join(home, ".toolhub", "audit.db"), nil
}

// Open opens (or creates) the audit store at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("audit store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "create audit directory")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open audit store")
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "set WAL mode")
	}
	if _, err := db.Exec(storeSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create audit schema")
	}

	return &Store{db: db}, nil
}

// Record inserts one invocation record. A zero ID or CreatedAt is filled
// in.
func (s *Store) Record(ctx context.Context, rec Record) error {
	if s == nil || s.db == nil {
		return errors.New("audit store is nil")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO tool_calls (id, session_id, tool, status, exit_code, duration_ms, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.Tool, rec.Status, rec.ExitCode,
		rec.Duration.Milliseconds(), rec.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return errors.Wrap(err, "insert tool call")
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("audit store is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, session_id, tool, status, exit_code, duration_ms, created_at
FROM tool_calls
ORDER BY created_at DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query tool calls")
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var durationMs int64
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Tool, &rec.Status, &rec.ExitCode, &durationMs, &createdAt); err != nil {
			return nil, errors.Wrap(err, "scan tool call")
		}
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			rec.CreatedAt = ts
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "tool call rows")
	}
	return records, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
