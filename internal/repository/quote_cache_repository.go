package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stockwizard/internal/domain"
)

// QuoteCacheRepository stores latest quotes in the stock_cache table
type QuoteCacheRepository struct {
	db *pgxpool.Pool
}

// NewQuoteCacheRepository creates a new Postgres-backed quote cache
func NewQuoteCacheRepository(db *pgxpool.Pool) *QuoteCacheRepository {
	return &QuoteCacheRepository{db: db}
}

// Get returns the cached quote for symbol, or nil when missing or expired
func (r *QuoteCacheRepository) Get(ctx context.Context, symbol string, now time.Time) (*domain.Quote, error) {
	var data []byte
	err := r.db.QueryRow(ctx, `
		SELECT data
		FROM stock_cache
		WHERE symbol = $1 AND expires_at > $2
	`, symbol, now).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read quote cache %s: %w", symbol, err)
	}

	var quote domain.Quote
	if err := json.Unmarshal(data, &quote); err != nil {
		return nil, fmt.Errorf("failed to decode cached quote %s: %w", symbol, err)
	}
	return &quote, nil
}

// Put updates or creates the cache entry for quote.Symbol
func (r *QuoteCacheRepository) Put(ctx context.Context, quote domain.Quote, expiresAt time.Time) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("failed to encode quote %s: %w", quote.Symbol, err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO stock_cache (symbol, data, cached_at, expires_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP, $3)
		ON CONFLICT (symbol) DO UPDATE SET
			data = EXCLUDED.data,
			cached_at = CURRENT_TIMESTAMP,
			expires_at = EXCLUDED.expires_at
	`, quote.Symbol, data, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to cache quote %s: %w", quote.Symbol, err)
	}
	return nil
}

// Purge deletes expired entries
func (r *QuoteCacheRepository) Purge(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM stock_cache WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge quote cache: %w", err)
	}
	return tag.RowsAffected(), nil
}
