package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/AI2HU/satlens/internal/db"
	"github.com/AI2HU/satlens/internal/models"
)

// Option keys understood by the SQLite store
const (
	// OptionMaxBytes caps the total size of stored values, like a browser storage quota
	OptionMaxBytes = "max_bytes"
)

// SQLite implements db.KVStore on a single SQLite file
type SQLite struct {
	db       *sql.DB
	config   *models.Config
	maxBytes int64
}

// New creates a new SQLite store instance
func New(config *models.Config) (*SQLite, error) {
	s := &SQLite{config: config}

	if raw, ok := config.Options[OptionMaxBytes]; ok && raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid %s option %q", OptionMaxBytes, raw)
		}
		s.maxBytes = n
	}

	return s, nil
}

// Connect opens the database file and applies migrations
func (s *SQLite) Connect(ctx context.Context) error {
	conn, err := Open(ctx, s.config.URI)
	if err != nil {
		return err
	}

	if err := db.RunMigrations(ctx, conn); err != nil {
		conn.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	s.db = conn
	return nil
}

// Open opens and pings the SQLite file at uri without touching its schema
func Open(ctx context.Context, uri string) (*sql.DB, error) {
	dbPath, err := resolvePath(uri)
	if err != nil {
		return nil, err
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database at path '%s': %w", dbPath, err)
	}
	// one connection keeps :memory: databases alive and serializes writers
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping SQLite database at path '%s': %w", dbPath, err)
	}
	return conn, nil
}

// resolvePath expands ~ and makes relative paths absolute
func resolvePath(uri string) (string, error) {
	switch {
	case uri == "" || uri == ":memory:":
		return ":memory:", nil
	case strings.HasPrefix(uri, "~"):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, uri[1:]), nil
	case !filepath.IsAbs(uri):
		absPath, err := filepath.Abs(uri)
		if err != nil {
			return "", fmt.Errorf("failed to resolve absolute path: %w", err)
		}
		return absPath, nil
	default:
		return uri, nil
	}
}

// Disconnect closes the SQLite connection
func (s *SQLite) Disconnect(ctx context.Context) error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Ping checks the database connection
func (s *SQLite) Ping(ctx context.Context) error {
	if s.db == nil {
		return db.ErrUnavailable
	}
	return s.db.PingContext(ctx)
}

// DB exposes the underlying handle for migration tooling
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// Get returns the value stored under key
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	if s.db == nil {
		return nil, db.ErrUnavailable
	}

	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value
func (s *SQLite) Set(ctx context.Context, key string, value []byte) error {
	if s.db == nil {
		return db.ErrUnavailable
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if s.maxBytes > 0 {
		var others int64
		err := tx.QueryRowContext(ctx, `SELECT COALESCE(SUM(size), 0) FROM kv WHERE key != ?`, key).Scan(&others)
		if err != nil {
			return fmt.Errorf("failed to compute store size: %w", err)
		}
		if others+int64(len(value)) > s.maxBytes {
			return db.NewQuotaError(fmt.Errorf("%d bytes for %s exceeds quota of %d (%d in use)", len(value), key, s.maxBytes, others))
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO kv (key, value, size, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, size = excluded.size, updated_at = excluded.updated_at`,
		key, value, len(value), time.Now().UTC())
	if err != nil {
		return mapError(fmt.Errorf("failed to write key %s: %w", key, err))
	}

	if err := tx.Commit(); err != nil {
		return mapError(fmt.Errorf("failed to commit key %s: %w", key, err))
	}
	return nil
}

// mapError turns SQLITE_FULL into the storage quota error
func mapError(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrFull {
		return db.NewQuotaError(err)
	}
	return err
}

// Delete removes the given keys. Missing keys are ignored.
func (s *SQLite) Delete(ctx context.Context, keys ...string) error {
	if s.db == nil {
		return db.ErrUnavailable
	}
	if len(keys) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]interface{}, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}

// Keys lists stored keys starting with prefix, sorted
func (s *SQLite) Keys(ctx context.Context, prefix string) ([]string, error) {
	if s.db == nil {
		return nil, db.ErrUnavailable
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key FROM kv WHERE substr(key, 1, ?) = ? ORDER BY key`, len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Size returns the number of value bytes stored
func (s *SQLite) Size(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, db.ErrUnavailable
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size), 0) FROM kv`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to compute store size: %w", err)
	}
	return total, nil
}
