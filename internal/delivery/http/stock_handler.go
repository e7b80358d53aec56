package http

import (
	"context"
	"log"
	"strings"

	"github.com/labstack/echo/v4"

	"stockwizard/internal/delivery/http/dto"
	"stockwizard/internal/domain"
	"stockwizard/internal/usecase"
	"stockwizard/internal/view"
)

// newsSize is how many articles the detail page shows
const newsSize = 5

// StockHandler serves the stock detail page
type StockHandler struct {
	sessions *usecase.SessionManager
	quotes   domain.QuoteProvider
	news     domain.NewsProvider
}

// NewStockHandler creates a new StockHandler. news may be nil.
func NewStockHandler(sessions *usecase.SessionManager, quotes domain.QuoteProvider, news domain.NewsProvider) *StockHandler {
	return &StockHandler{
		sessions: sessions,
		quotes:   quotes,
		news:     news,
	}
}

// GetStock mounts and renders the detail header with news
// GET /api/stocks/:symbol
func (h *StockHandler) GetStock(c echo.Context) error {
	symbol := domain.NormalizeSymbol(c.Param("symbol"))
	if symbol == "" {
		return BadRequestResponse(c, "Symbol is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), viewTimeout)
	defer cancel()

	session, err := currentSession(ctx, c, h.sessions)
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to load stock")
	}

	snap, err := session.Open(ctx, usecase.StockView(symbol))
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to load stock")
	}

	var news []domain.NewsArticle
	if h.news != nil {
		news, err = h.news.GetNews(ctx, symbol, newsSize)
		if err != nil {
			log.Printf("[WARN] News unavailable for %s: %v", symbol, err)
		}
	}

	return SuccessResponse(c, view.Stock(symbol, snap.Quotes, session.Watchlist.Contains(symbol), snap.Err, news))
}

// GetHistory renders the price chart for a range
// GET /api/stocks/:symbol/history?range=1D|1W|1M|3M|1Y
func (h *StockHandler) GetHistory(c echo.Context) error {
	symbol := domain.NormalizeSymbol(c.Param("symbol"))
	if symbol == "" {
		return BadRequestResponse(c, "Symbol is required")
	}

	r := domain.HistoryRange(strings.ToUpper(c.QueryParam("range")))
	if r == "" {
		r = domain.Range1M
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), viewTimeout)
	defer cancel()

	quotes, err := h.quotes.History(ctx, symbol, r)
	if err != nil {
		log.Printf("[WARN] History unavailable for %s (%s): %v", symbol, r, err)
	}

	return SuccessResponse(c, view.History(symbol, r, quotes, err))
}

// ToggleWatchlist adds or removes the symbol of the detail page
// POST /api/stocks/:symbol/watchlist
func (h *StockHandler) ToggleWatchlist(c echo.Context) error {
	symbol := domain.NormalizeSymbol(c.Param("symbol"))
	if symbol == "" {
		return BadRequestResponse(c, "Symbol is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), viewTimeout)
	defer cancel()

	session, err := currentSession(ctx, c, h.sessions)
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to update watchlist")
	}

	tracked, err := session.Toggle(ctx, symbol)
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to update watchlist")
	}

	message := symbol + " removed from watchlist"
	if tracked {
		message = symbol + " added to watchlist"
	}
	return SuccessMessageResponse(c, message, dto.ToggleOutput{Symbol: symbol, Tracked: tracked})
}
