package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const (
	pageSize = 4096
	// Schema pages plus room for a small record.
	minPages = 8
)

// SQLiteBackend keeps records in a single SQLite table. A non-zero quota
// caps the database file size through max_page_count, so oversized writes
// fail with SQLITE_FULL.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens or creates the database at path. quota is the
// maximum database size in bytes; 0 disables the limit.
func NewSQLiteBackend(path string, quota int64) (*SQLiteBackend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	dsn := path + fmt.Sprintf("?_pragma=page_size(%d)&_pragma=busy_timeout(5000)", pageSize)
	if quota > 0 {
		dsn += fmt.Sprintf("&_pragma=max_page_count(%d)", max(quota/pageSize, minPages))
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer; pragmas apply per connection.
	db.SetMaxOpenConns(1)

	b := &SQLiteBackend{db: db}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return b, nil
}

// OpenSQLite returns an Opener for NewSQLiteBackend.
func OpenSQLite(path string, quota int64) Opener {
	return func() (Backend, error) {
		return NewSQLiteBackend(path, quota)
	}
}

func (b *SQLiteBackend) migrate() error {
	_, err := b.db.Exec(`
	CREATE TABLE IF NOT EXISTS save_slots (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`)
	return err
}

func (b *SQLiteBackend) Put(ctx context.Context, key string, value []byte) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO save_slots (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("put %s: %w", key, classify(err))
	}
	return nil
}

func (b *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.db.QueryRowContext(ctx, `SELECT value FROM save_slots WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (b *SQLiteBackend) Delete(ctx context.Context, key string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM save_slots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

// classify maps SQLITE_FULL to ErrQuotaExceeded.
func classify(err error) error {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code()&0xff == sqlite3lib.SQLITE_FULL {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	if strings.Contains(strings.ToLower(err.Error()), "database or disk is full") {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return err
}
