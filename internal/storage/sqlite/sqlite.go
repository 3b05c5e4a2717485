// Package sqlite implements the storage interfaces over a single-file
// SQLite database using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"fog-fraud-lab/internal/observability"
	"fog-fraud-lab/internal/storage"
)

// DB wraps *sql.DB for dependency injection.
type DB struct {
	*sql.DB

	metrics *observability.Metrics
}

// Open opens (creating if necessary) the database file at path with foreign
// keys enforced. The connection pool is capped at a single connection: the
// file store allows one writer at a time and the listener is the only writer.
func Open(ctx context.Context, path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	return &DB{DB: db}, nil
}

// SetMetrics attaches metric counters to the handle. Without it the stores
// still work, they just count nothing.
func (d *DB) SetMetrics(m *observability.Metrics) {
	d.metrics = m
}

// countError bumps the per-operation query error counter. Sentinel errors
// callers handle themselves (not found, invalid input, unknown node) are
// not database failures and are skipped.
func (d *DB) countError(operation string, err error) {
	if err == nil || d.metrics == nil {
		return
	}
	if errors.Is(err, storage.ErrNotFound) ||
		errors.Is(err, storage.ErrNodeNotFound) ||
		errors.Is(err, storage.ErrInvalidInput) {
		return
	}
	d.metrics.DBQueryErrors.WithLabelValues(operation).Inc()
}

// Close closes the underlying database handle.
func (d *DB) Close() error {
	return d.DB.Close()
}

// isForeignKeyError checks if error is a foreign-key constraint violation.
func isForeignKeyError(err error) bool {
	if err == nil {
		return false
	}
	var se *sqlite3.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return false
}

// nowMillis returns the current wall clock in unix milliseconds, the unit
// used for every persisted timestamp column.
func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// millisToTime converts a persisted timestamp column back to time.Time.
func millisToTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}
