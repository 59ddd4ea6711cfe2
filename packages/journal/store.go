package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const schema = `CREATE TABLE IF NOT EXISTS journal (
	id TEXT PRIMARY KEY,
	timestamp INTEGER NOT NULL,
	method TEXT NOT NULL,
	url TEXT NOT NULL,
	status INTEGER NOT NULL,
	duration_us INTEGER NOT NULL,
	error TEXT NOT NULL DEFAULT ''
)`

// Store persists journal entries in a SQLite database.
type Store struct {
	db      *sql.DB
	timeout time.Duration
}

// Open opens (and if needed creates) the store described by connStr.
// Supported formats:
// - sqlite://path/to/journal.db
// - sqlite:./journal.db
// - a bare file path
func Open(connStr string) (*Store, error) {
	dsn, err := parseConnectionString(connStr)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal store: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to journal store: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}

	return &Store{db: db, timeout: 30 * time.Second}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save inserts e, replacing an entry with the same ID.
func (s *Store) Save(e Entry) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO journal (id, timestamp, method, url, status, duration_us, error) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.UnixNano(), e.Method, e.URL, e.Status, e.Duration.Microseconds(), e.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to save journal entry %s: %w", e.ID, err)
	}
	return nil
}

// All returns every stored entry, oldest first.
func (s *Store) All() ([]Entry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, method, url, status, duration_us, error FROM journal ORDER BY timestamp, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e          Entry
			ts         int64
			durationUs int64
		)
		if err := rows.Scan(&e.ID, &ts, &e.Method, &e.URL, &e.Status, &durationUs, &e.Error); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		e.Timestamp = time.Unix(0, ts)
		e.Duration = time.Duration(durationUs) * time.Microsecond
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

func parseConnectionString(connStr string) (string, error) {
	connStr = strings.TrimSpace(connStr)
	switch {
	case connStr == "":
		return "", fmt.Errorf("journal connection string is empty")
	case strings.HasPrefix(connStr, "sqlite://"):
		return strings.TrimPrefix(connStr, "sqlite://"), nil
	case strings.HasPrefix(connStr, "sqlite:"):
		return strings.TrimPrefix(connStr, "sqlite:"), nil
	case strings.Contains(connStr, "://"):
		return "", fmt.Errorf("unsupported journal store: %s", connStr)
	}
	return connStr, nil
}
