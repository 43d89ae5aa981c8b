package datastores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// KVSQLite implements [KV] with a single SQLite table.
type KVSQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ KV = (*KVSQLite)(nil)

// NewKVSQLite opens or creates the database at path.
// Parent directories are created if needed.
func NewKVSQLite(path string, logger *slog.Logger) (*KVSQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("sqlite storage initialized", "path", path)
	return &KVSQLite{db: db, logger: logger}, nil
}

func (s *KVSQLite) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	switch {
	case err == nil:
		return value, nil
	case errors.Is(err, sql.ErrNoRows):
		return "", ErrKeyNotFound
	default:
		return "", fmt.Errorf("querying key %q: %w", key, err)
	}
}

func (s *KVSQLite) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting key %q: %w", key, err)
	}
	s.logger.Debug("key written", "key", key, "bytes", len(value))
	return nil
}

func (s *KVSQLite) Close() error { return s.db.Close() }
