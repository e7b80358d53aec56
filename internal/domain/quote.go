package domain

import "time"

// Quote is a provider snapshot of a symbol's most recent trading session
type Quote struct {
	Symbol string    `json:"symbol"`
	Name   string    `json:"name,omitempty"`
	Open   float64   `json:"open"`
	Close  float64   `json:"close"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Volume float64   `json:"volume"`
	Date   time.Time `json:"date"`
}

// Change returns close minus open
func (q Quote) Change() float64 {
	return q.Close - q.Open
}

// ChangePercent returns the session change relative to the open, 0 when open is 0
func (q Quote) ChangePercent() float64 {
	if q.Open == 0 {
		return 0
	}
	return q.Change() / q.Open * 100
}

// TickerMatch is a single ticker search hit
type TickerMatch struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
}

// NewsArticle is a single item returned by the news provider
type NewsArticle struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url,omitempty"`
	Source      string    `json:"source_id"`
	PublishedAt time.Time `json:"pubDate"`
	Link        string    `json:"link"`
}

// HistoryRange names a chart window on the stock detail page
type HistoryRange string

// HistoryRange constants
const (
	Range1D HistoryRange = "1D"
	Range1W HistoryRange = "1W"
	Range1M HistoryRange = "1M"
	Range3M HistoryRange = "3M"
	Range1Y HistoryRange = "1Y"
)

// Points returns how many end-of-day points the range spans
func (r HistoryRange) Points() int {
	switch r {
	case Range1D:
		return 7
	case Range1W:
		return 30
	case Range1M:
		return 90
	case Range3M:
		return 180
	default:
		return 365
	}
}
