package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// DefaultHistoryLimit is how many versions of a key SQLiteStore keeps.
const DefaultHistoryLimit = 5

// SQLiteStore implements Store using SQLite. Each Put inserts a new row that
// supersedes the previous version of the key; older rows beyond the history
// limit are pruned in the same transaction.
type SQLiteStore struct {
	db           *sql.DB
	historyLimit int
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Promotion goroutines write concurrently; serialise them on one connection.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, historyLimit: DefaultHistoryLimit}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// SetHistoryLimit changes how many versions per key are retained (minimum 1).
func (s *SQLiteStore) SetHistoryLimit(n int) {
	if n < 1 {
		n = 1
	}
	s.historyLimit = n
}

func newID() string {
	return ulid.Make().String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id          TEXT PRIMARY KEY,
		key         TEXT NOT NULL,
		value       TEXT NOT NULL,
		version     INTEGER NOT NULL,
		supersedes  TEXT,
		created_at  TEXT NOT NULL,
		deleted_at  TEXT
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_key_version ON entries(key, version);
	CREATE INDEX IF NOT EXISTS idx_entries_deleted ON entries(deleted_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT key, value, version, created_at FROM entries
		 WHERE key = ? AND deleted_at IS NULL
		 ORDER BY version DESC LIMIT 1`, key)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key, value string) (*Entry, error) {
	now := time.Now().UTC()
	id := newID()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Versions keep counting across deletes so epochs never repeat.
	var prevVersion int
	var prevID sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT id, version FROM entries WHERE key = ?
		 ORDER BY version DESC LIMIT 1`, key).Scan(&prevID, &prevVersion)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest version: %w", err)
	}

	version := prevVersion + 1
	var supersedes *string
	if prevID.Valid {
		supersedes = &prevID.String
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO entries (id, key, value, version, supersedes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, key, value, version, supersedes, now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM entries WHERE key = ? AND version <= ?`,
		key, version-s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("prune history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &Entry{Key: key, Value: value, Version: version, UpdatedAt: now}, nil
}

func (s *SQLiteStore) List(ctx context.Context, prefix string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.key, e.value, e.version, e.created_at
		FROM entries e
		INNER JOIN (
			SELECT key, MAX(version) AS max_ver
			FROM entries WHERE deleted_at IS NULL
			GROUP BY key
		) latest ON e.key = latest.key AND e.version = latest.max_ver
		WHERE e.deleted_at IS NULL AND substr(e.key, 1, ?) = ?
		ORDER BY e.key`, len(prefix), prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// History returns every retained version of key, newest first.
func (s *SQLiteStore) History(ctx context.Context, key string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value, version, created_at FROM entries
		 WHERE key = ? AND deleted_at IS NULL
		 ORDER BY version DESC`, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`UPDATE entries SET deleted_at = ? WHERE key = ? AND deleted_at IS NULL`, now, key)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	var createdAt string
	if err := row.Scan(&e.Key, &e.Value, &e.Version, &createdAt); err != nil {
		return e, err
	}
	e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return e, nil
}
