package domain

import "context"

// QuoteProvider fetches end-of-day market data
type QuoteProvider interface {
	// GetLatest returns the latest quote of every known symbol.
	// An empty symbol set returns an empty result without a network call.
	GetLatest(ctx context.Context, symbols []string) ([]Quote, error)

	// History returns end-of-day quotes for symbol, oldest first
	History(ctx context.Context, symbol string, r HistoryRange) ([]Quote, error)
}

// TickerSearcher performs free-text ticker lookups
type TickerSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]TickerMatch, error)
}

// NewsProvider fetches business news for a symbol
type NewsProvider interface {
	GetNews(ctx context.Context, symbol string, size int) ([]NewsArticle, error)
}

// Notifier delivers out-of-band user notifications
type Notifier interface {
	SendAlert(alert PriceAlert, price float64) error
}
