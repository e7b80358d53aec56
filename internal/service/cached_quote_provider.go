package service

import (
	"context"
	"log"
	"time"

	"stockwizard/internal/domain"
)

// CachedQuoteProvider is a read-through cache over a QuoteProvider backed
// by the relational stock_cache table. Cache failures are logged and
// bypassed; they never fail a quote request.
type CachedQuoteProvider struct {
	next  domain.QuoteProvider
	cache domain.QuoteCacheRepository
	ttl   time.Duration
	now   func() time.Time
}

// NewCachedQuoteProvider wraps next with cache
func NewCachedQuoteProvider(next domain.QuoteProvider, cache domain.QuoteCacheRepository, ttl time.Duration) *CachedQuoteProvider {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedQuoteProvider{
		next:  next,
		cache: cache,
		ttl:   ttl,
		now:   time.Now,
	}
}

// GetLatest serves fresh cached quotes and fetches the rest in one call
func (p *CachedQuoteProvider) GetLatest(ctx context.Context, symbols []string) ([]domain.Quote, error) {
	symbols = domain.NormalizeSymbols(symbols)
	if len(symbols) == 0 {
		return []domain.Quote{}, nil
	}

	now := p.now()
	found := make(map[string]domain.Quote, len(symbols))
	var missing []string
	for _, symbol := range symbols {
		q, err := p.cache.Get(ctx, symbol, now)
		if err != nil {
			log.Printf("[WARN] Quote cache read failed, bypassing: %v", err)
		}
		if q != nil {
			found[symbol] = *q
			continue
		}
		missing = append(missing, symbol)
	}

	if len(missing) > 0 {
		fetched, err := p.next.GetLatest(ctx, missing)
		if err != nil {
			return nil, err
		}
		expiresAt := now.Add(p.ttl)
		for _, q := range fetched {
			found[q.Symbol] = q
			if err := p.cache.Put(ctx, q, expiresAt); err != nil {
				log.Printf("[WARN] Quote cache write failed: %v", err)
			}
		}
	}

	quotes := make([]domain.Quote, 0, len(found))
	for _, symbol := range symbols {
		if q, ok := found[symbol]; ok {
			quotes = append(quotes, q)
		}
	}
	return quotes, nil
}

// History is not cached
func (p *CachedQuoteProvider) History(ctx context.Context, symbol string, r domain.HistoryRange) ([]domain.Quote, error) {
	return p.next.History(ctx, symbol, r)
}
