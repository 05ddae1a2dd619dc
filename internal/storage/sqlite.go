package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// SQLiteBackend keeps every document as a row of a single table, for
// installations that prefer one database file over a directory tree.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (or creates) the database at dbPath and runs
// migrations.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	b := &SQLiteBackend{db: db}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return b, nil
}

// NewMemoryBackend creates an in-memory SQLite backend for testing.
func NewMemoryBackend() (*SQLiteBackend, error) {
	return NewSQLiteBackend(":memory:")
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func (b *SQLiteBackend) migrate() error {
	var version int
	if err := b.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		const ddl = `
		CREATE TABLE IF NOT EXISTS documents (
			key         TEXT PRIMARY KEY,
			body        BLOB NOT NULL,
			updated_at  TEXT NOT NULL
		);`
		if _, err := b.db.Exec(ddl); err != nil {
			return fmt.Errorf("migrate v1: %w", err)
		}
	}

	_, err := b.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (b *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := b.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE key = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("storage error reading %s: %w", key, err)
	}
	return body, nil
}

func (b *SQLiteBackend) Put(ctx context.Context, key string, data []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO documents (key, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		key, data, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("storage error writing %s: %w", key, err)
	}
	return nil
}

func (b *SQLiteBackend) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT key FROM documents WHERE substr(key, 1, length(?)) = ? AND key LIKE '%.json' ORDER BY key`,
		prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("storage error listing %s: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Backup copies the row to <key>.corrupt-<timestamp>, adding a counter when
// that key is taken.
func (b *SQLiteBackend) Backup(ctx context.Context, key string) (string, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var body []byte
	if err := tx.QueryRowContext(ctx, `SELECT body FROM documents WHERE key = ?`, key).Scan(&body); err != nil {
		return "", fmt.Errorf("storage error backing up %s: %w", key, err)
	}

	var same string
	err = tx.QueryRowContext(ctx,
		`SELECT key FROM documents WHERE substr(key, 1, length(?)) = ? AND body = ? ORDER BY key LIMIT 1`,
		key+backupSuffix, key+backupSuffix, body).Scan(&same)
	switch {
	case err == nil:
		return same, nil
	case !errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("storage error backing up %s: %w", key, err)
	}

	now := time.Now()
	base := key + backupSuffix + backupStamp(now)
	for n := 0; ; n++ {
		name := base
		if n > 0 {
			name = fmt.Sprintf("%s-%d", base, n)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO documents (key, body, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO NOTHING`,
			name, body, now.UTC().Format(time.RFC3339))
		if err != nil {
			return "", fmt.Errorf("storage error backing up %s: %w", key, err)
		}
		added, err := res.RowsAffected()
		if err != nil {
			return "", err
		}
		if added == 0 {
			continue
		}
		if err := tx.Commit(); err != nil {
			return "", err
		}
		return name, nil
	}
}
