package view

import (
	"time"

	"stockwizard/internal/domain"
)

// StockView is the header of a stock detail page
type StockView struct {
	Symbol   string               `json:"symbol"`
	Category domain.Category      `json:"category"`
	Tracked  bool                 `json:"tracked"`
	Action   string               `json:"action"`
	Quote    *QuoteCard           `json:"quote"`
	News     []domain.NewsArticle `json:"news"`
	Error    string               `json:"error,omitempty"`
}

// Stock renders the detail header of symbol. The toggle action is
// "remove" for a tracked symbol and "add" otherwise.
func Stock(symbol string, quotes []domain.Quote, tracked bool, fetchErr error, news []domain.NewsArticle) StockView {
	symbol = domain.NormalizeSymbol(symbol)
	v := StockView{
		Symbol:   symbol,
		Category: domain.Categorize(symbol),
		Tracked:  tracked,
		Action:   "add",
		News:     news,
	}
	if tracked {
		v.Action = "remove"
	}
	if v.News == nil {
		v.News = []domain.NewsArticle{}
	}

	for _, q := range quotes {
		if domain.NormalizeSymbol(q.Symbol) == symbol {
			card := NewQuoteCard(q, tracked)
			v.Quote = &card
			break
		}
	}
	switch {
	case fetchErr != nil:
		v.Error = FetchErrorNotice
	case v.Quote == nil:
		v.Error = "No market data available for " + symbol
	}
	return v
}

// HistoryPoint is one chart point
type HistoryPoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// HistoryView is the price chart of a stock detail page
type HistoryView struct {
	Symbol        string              `json:"symbol"`
	Range         domain.HistoryRange `json:"range"`
	Points        []HistoryPoint      `json:"points"`
	Change        float64             `json:"change"`
	ChangePercent float64             `json:"changePercent"`
	Trend         string              `json:"trend"`
	Error         string              `json:"error,omitempty"`
}

// History renders quotes (oldest first) as a close-price series. Change is
// measured from the first to the last close.
func History(symbol string, r domain.HistoryRange, quotes []domain.Quote, fetchErr error) HistoryView {
	v := HistoryView{
		Symbol: domain.NormalizeSymbol(symbol),
		Range:  r,
		Points: make([]HistoryPoint, 0, len(quotes)),
		Trend:  TrendNeutral,
	}
	if fetchErr != nil {
		v.Error = "Unable to load chart data."
		return v
	}
	for _, q := range quotes {
		v.Points = append(v.Points, HistoryPoint{Date: q.Date.Format(time.DateOnly), Close: q.Close})
	}
	if len(quotes) >= 2 {
		first, last := quotes[0].Close, quotes[len(quotes)-1].Close
		v.Change = last - first
		if first != 0 {
			v.ChangePercent = v.Change / first * 100
		}
		v.Trend = Trend(v.Change)
	}
	return v
}
