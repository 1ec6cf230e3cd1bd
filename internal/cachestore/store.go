// Package cachestore persists cache snapshots and poller state in a local
// SQLite database so restarts begin from the last known data instead of an
// empty screen.
package cachestore

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

// ErrNotFound reports a missing key or watermark.
var ErrNotFound = errors.New("cachestore: not found")

// Store is a keyed snapshot store over SQLite. Writes carry the snapshot's
// timestamp; only strictly newer snapshots overwrite, so a slow writer can
// never clobber fresher data.
type Store struct {
	db *sql.DB
}

// Open creates the database file if needed, migrates the schema, and
// returns a ready store.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the payload for key and the time it was written.
func (s *Store) Get(ctx context.Context, key string) ([]byte, time.Time, error) {
	var payload []byte
	var updatedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, updated_at FROM cache_entries WHERE key = ?`, key,
	).Scan(&payload, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("get cache entry %q: %w", key, err)
	}
	return payload, time.Unix(updatedAt, 0).UTC(), nil
}

// Set stores payload under key, stamped with updatedAt. An existing entry
// is overwritten only when updatedAt is strictly newer than what is stored.
func (s *Store) Set(ctx context.Context, key string, payload []byte, updatedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_entries (key, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET
		   payload = excluded.payload,
		   updated_at = excluded.updated_at
		 WHERE excluded.updated_at > cache_entries.updated_at`,
		key, payload, updatedAt.Unix())
	if err != nil {
		return fmt.Errorf("set cache entry %q: %w", key, err)
	}
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete cache entry %q: %w", key, err)
	}
	return nil
}

// DeletePrefix removes every key starting with prefix, returning how many
// entries were dropped.
func (s *Store) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE key LIKE ? || '%'`, prefix)
	if err != nil {
		return 0, fmt.Errorf("delete cache entries %q*: %w", prefix, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

// Watermark returns the stored cursor for a named poller.
func (s *Store) Watermark(ctx context.Context, name string) (string, error) {
	var watermark string
	err := s.db.QueryRowContext(ctx,
		`SELECT watermark FROM poll_state WHERE name = ?`, name,
	).Scan(&watermark)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get watermark %q: %w", name, err)
	}
	return watermark, nil
}

// SetWatermark stores the cursor for a named poller.
func (s *Store) SetWatermark(ctx context.Context, name, watermark string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO poll_state (name, watermark) VALUES (?, ?)
		 ON CONFLICT (name) DO UPDATE SET watermark = excluded.watermark`,
		name, watermark)
	if err != nil {
		return fmt.Errorf("set watermark %q: %w", name, err)
	}
	return nil
}
