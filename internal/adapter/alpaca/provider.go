package alpaca

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"stockwizard/internal/domain"
)

// latestWindow is how far back GetLatest looks for the most recent daily bar,
// long enough to span weekends and market holidays.
const latestWindow = 10 * 24 * time.Hour

// dataClient is the subset of *marketdata.Client used here
type dataClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
	GetMultiBars(symbols []string, req marketdata.GetBarsRequest) (map[string][]marketdata.Bar, error)
	GetNews(req marketdata.GetNewsRequest) ([]marketdata.News, error)
}

// Provider implements domain.QuoteProvider and domain.NewsProvider with the
// Alpaca market data API. Only US equities are covered.
type Provider struct {
	client dataClient
	now    func() time.Time
}

// NewProvider creates a Provider with the given Alpaca credentials
func NewProvider(apiKey, apiSecret, dataURL string) *Provider {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return &Provider{
		client: marketdata.NewClient(opts),
		now:    time.Now,
	}
}

// GetLatest returns the most recent daily bar of each symbol
func (p *Provider) GetLatest(ctx context.Context, symbols []string) ([]domain.Quote, error) {
	symbols = domain.NormalizeSymbols(symbols)
	if len(symbols) == 0 {
		return []domain.Quote{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	end := p.now()
	multiBars, err := p.client.GetMultiBars(symbols, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     end.Add(-latestWindow),
		End:       end,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: alpaca GetMultiBars: %v", domain.ErrFetchFailed, err)
	}

	// Keep input order
	quotes := make([]domain.Quote, 0, len(symbols))
	for _, symbol := range symbols {
		bars := multiBars[symbol]
		if len(bars) == 0 {
			continue
		}
		quotes = append(quotes, toQuote(symbol, bars[len(bars)-1]))
	}
	return quotes, nil
}

// History returns up to r.Points() daily bars, oldest first
func (p *Provider) History(ctx context.Context, symbol string, r domain.HistoryRange) ([]domain.Quote, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", domain.ErrValidationFailed)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	points := r.Points()
	end := p.now()
	// Trading days are roughly 5/7 of calendar days; pad to be safe
	start := end.AddDate(0, 0, -points*2)

	bars, err := p.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: alpaca GetBars: %v", domain.ErrFetchFailed, err)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	if len(bars) > points {
		bars = bars[len(bars)-points:]
	}
	if len(bars) < 2 {
		return nil, fmt.Errorf("%w: not enough history for %s", domain.ErrFetchFailed, symbol)
	}

	quotes := make([]domain.Quote, len(bars))
	for i, b := range bars {
		quotes[i] = toQuote(symbol, b)
	}
	return quotes, nil
}

// GetNews returns the newest articles mentioning symbol
func (p *Provider) GetNews(ctx context.Context, symbol string, size int) ([]domain.NewsArticle, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return []domain.NewsArticle{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	news, err := p.client.GetNews(marketdata.GetNewsRequest{
		Symbols:    []string{symbol},
		TotalLimit: size,
		Sort:       marketdata.SortDesc,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: alpaca GetNews: %v", domain.ErrFetchFailed, err)
	}

	articles := make([]domain.NewsArticle, 0, len(news))
	for _, n := range news {
		a := domain.NewsArticle{
			Title:       n.Headline,
			Description: n.Summary,
			Source:      strings.ToLower(n.Source),
			PublishedAt: n.CreatedAt,
			Link:        n.URL,
		}
		if len(n.Images) > 0 {
			a.ImageURL = n.Images[0].URL
		}
		articles = append(articles, a)
	}
	return articles, nil
}

func toQuote(symbol string, b marketdata.Bar) domain.Quote {
	return domain.Quote{
		Symbol: symbol,
		Open:   b.Open,
		Close:  b.Close,
		High:   b.High,
		Low:    b.Low,
		Volume: float64(b.Volume),
		Date:   b.Timestamp,
	}
}
