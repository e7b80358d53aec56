package view

import (
	"slices"
	"time"

	"stockwizard/internal/domain"
)

// QuoteCard is the rendered form of one quote
type QuoteCard struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Category      domain.Category `json:"category"`
	Price         float64         `json:"price"`
	Open          float64         `json:"open"`
	High          float64         `json:"high"`
	Low           float64         `json:"low"`
	Volume        float64         `json:"volume"`
	Change        float64         `json:"change"`
	ChangePercent float64         `json:"changePercent"`
	Display       CardDisplay     `json:"display"`
	Date          time.Time       `json:"date"`
	Tracked       bool            `json:"tracked"`
}

// CardDisplay holds the formatted strings of a QuoteCard
type CardDisplay struct {
	Price         string `json:"price"`
	ChangePercent string `json:"changePercent"`
	Volume        string `json:"volume"`
	Trend         string `json:"trend"`
}

// NewQuoteCard renders q. Prices are always shown in USD, the quote currency.
func NewQuoteCard(q domain.Quote, tracked bool) QuoteCard {
	name := q.Name
	if name == "" {
		name = q.Symbol
	}
	pct := q.ChangePercent()
	return QuoteCard{
		Symbol:        q.Symbol,
		Name:          name,
		Category:      domain.Categorize(q.Symbol),
		Price:         q.Close,
		Open:          q.Open,
		High:          q.High,
		Low:           q.Low,
		Volume:        q.Volume,
		Change:        q.Change(),
		ChangePercent: pct,
		Display: CardDisplay{
			Price:         FormatMoney(q.Close, DefaultCurrency),
			ChangePercent: FormatPercent(pct),
			Volume:        FormatVolume(q.Volume),
			Trend:         Trend(q.Change()),
		},
		Date:    q.Date,
		Tracked: tracked,
	}
}

// CategoryGroup is one section of the categorized watchlist
type CategoryGroup struct {
	Category domain.Category `json:"category"`
	Count    int             `json:"count"`
	Cards    []QuoteCard     `json:"cards"`
}

// WatchlistView is the categorized watchlist grid
type WatchlistView struct {
	Symbols   []string              `json:"symbols"`
	Count     int                   `json:"count"`
	Counts    domain.CategoryCounts `json:"counts"`
	Groups    []CategoryGroup       `json:"groups"`
	Missing   []string              `json:"missing"`
	Empty     bool                  `json:"empty"`
	Error     string                `json:"error,omitempty"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

// Watchlist renders the tracked symbols grouped by category. Quotes for
// symbols outside the watchlist are ignored and tracked symbols without a
// quote are listed as missing. Counts come from the symbols, not the quotes.
func Watchlist(symbols []string, quotes []domain.Quote, fetchErr error, at time.Time) WatchlistView {
	symbols = domain.NormalizeSymbols(symbols)

	v := WatchlistView{
		Symbols:   symbols,
		Count:     len(symbols),
		Counts:    domain.CountCategories(symbols),
		Groups:    make([]CategoryGroup, 0, len(domain.Categories)),
		Missing:   []string{},
		Empty:     len(symbols) == 0,
		UpdatedAt: at,
	}
	if fetchErr != nil {
		v.Error = FetchErrorNotice
	}

	tracked := watchlistQuotes(symbols, quotes)
	groups := domain.GroupQuotes(tracked)
	for _, c := range domain.Categories {
		g := CategoryGroup{Category: c, Cards: make([]QuoteCard, 0, len(groups[c]))}
		for _, q := range groups[c] {
			g.Cards = append(g.Cards, NewQuoteCard(q, true))
		}
		g.Count = len(g.Cards)
		v.Groups = append(v.Groups, g)
	}

	if fetchErr == nil {
		for _, s := range symbols {
			if !slices.ContainsFunc(tracked, func(q domain.Quote) bool { return q.Symbol == s }) {
				v.Missing = append(v.Missing, s)
			}
		}
	}
	return v
}

// watchlistQuotes keeps the first quote of every tracked symbol, in watchlist order
func watchlistQuotes(symbols []string, quotes []domain.Quote) []domain.Quote {
	bySymbol := make(map[string]domain.Quote, len(quotes))
	for _, q := range quotes {
		sym := domain.NormalizeSymbol(q.Symbol)
		if _, dup := bySymbol[sym]; dup {
			continue
		}
		q.Symbol = sym
		bySymbol[sym] = q
	}

	out := make([]domain.Quote, 0, len(symbols))
	for _, s := range symbols {
		if q, ok := bySymbol[s]; ok {
			out = append(out, q)
		}
	}
	return out
}
