package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"stockwizard/internal/domain"
)

const sqliteCacheSchema = `
CREATE TABLE IF NOT EXISTS stock_cache (
	symbol     TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	cached_at  INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_stock_cache_expires ON stock_cache (expires_at);`

// SQLiteQuoteCache is a file-backed quote cache for single-node deployments.
// Timestamps are stored as unix nanoseconds.
type SQLiteQuoteCache struct {
	db *sql.DB
}

// NewSQLiteQuoteCache opens (or creates) the cache database at path
func NewSQLiteQuoteCache(path string) (*SQLiteQuoteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite cache: %w", err)
	}
	// Single writer avoids SQLITE_BUSY under concurrent refreshes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteCacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sqlite cache schema: %w", err)
	}
	return &SQLiteQuoteCache{db: db}, nil
}

// Close closes the underlying database
func (c *SQLiteQuoteCache) Close() error {
	return c.db.Close()
}

// Get returns the cached quote for symbol, or nil when missing or expired
func (c *SQLiteQuoteCache) Get(ctx context.Context, symbol string, now time.Time) (*domain.Quote, error) {
	var data string
	err := c.db.QueryRowContext(ctx,
		`SELECT data FROM stock_cache WHERE symbol = ? AND expires_at > ?`,
		symbol, now.UnixNano(),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read quote cache %s: %w", symbol, err)
	}

	var quote domain.Quote
	if err := json.Unmarshal([]byte(data), &quote); err != nil {
		return nil, fmt.Errorf("failed to decode cached quote %s: %w", symbol, err)
	}
	return &quote, nil
}

// Put updates or creates the cache entry for quote.Symbol
func (c *SQLiteQuoteCache) Put(ctx context.Context, quote domain.Quote, expiresAt time.Time) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("failed to encode quote %s: %w", quote.Symbol, err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO stock_cache (symbol, data, cached_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (symbol) DO UPDATE SET
			data = excluded.data,
			cached_at = excluded.cached_at,
			expires_at = excluded.expires_at`,
		quote.Symbol, string(data), time.Now().UnixNano(), expiresAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to cache quote %s: %w", quote.Symbol, err)
	}
	return nil
}

// Purge deletes expired entries
func (c *SQLiteQuoteCache) Purge(ctx context.Context, now time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM stock_cache WHERE expires_at <= ?`, now.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to purge quote cache: %w", err)
	}
	return res.RowsAffected()
}
