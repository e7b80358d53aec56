package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"stockwizard/internal/delivery/http/dto"
	"stockwizard/internal/domain"
	"stockwizard/internal/middleware"
	"stockwizard/internal/service"
	"stockwizard/internal/usecase"
	"stockwizard/internal/view"
)

// viewTimeout bounds requests that fetch market data
const viewTimeout = 10 * time.Second

// WatchlistHandler serves the dashboard, the watchlist and ticker search
type WatchlistHandler struct {
	sessions         *usecase.SessionManager
	authService      *service.AuthService
	portfolioService *service.PortfolioService
}

// NewWatchlistHandler creates a new WatchlistHandler
func NewWatchlistHandler(sessions *usecase.SessionManager, authService *service.AuthService, portfolioService *service.PortfolioService) *WatchlistHandler {
	return &WatchlistHandler{
		sessions:         sessions,
		authService:      authService,
		portfolioService: portfolioService,
	}
}

// currentSession returns the session of the authenticated user
func currentSession(ctx context.Context, c echo.Context, sessions *usecase.SessionManager) (*usecase.Session, error) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return nil, fmt.Errorf("%w: user not authenticated", domain.ErrAuthRequired)
	}
	return sessions.Session(ctx, userID)
}

// GetWatchlist mounts and renders the categorized watchlist
// GET /api/watchlist
func (h *WatchlistHandler) GetWatchlist(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), viewTimeout)
	defer cancel()

	session, err := currentSession(ctx, c, h.sessions)
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to load watchlist")
	}

	snap, err := session.Open(ctx, usecase.ViewWatchlist)
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to load watchlist")
	}

	return SuccessResponse(c, view.Watchlist(session.Watchlist.Symbols(), snap.Quotes, snap.Err, snap.FetchedAt))
}

// AddToWatchlist tracks a symbol
// POST /api/watchlist
func (h *WatchlistHandler) AddToWatchlist(c echo.Context) error {
	var req dto.SymbolRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), viewTimeout)
	defer cancel()

	session, err := currentSession(ctx, c, h.sessions)
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to add to watchlist")
	}

	if err := session.Track(ctx, req.Symbol); err != nil {
		return DomainErrorResponse(c, err, "Failed to add to watchlist")
	}

	symbol := domain.NormalizeSymbol(req.Symbol)
	return SuccessMessageResponse(c, symbol+" added to watchlist", h.renderWatchlist(session))
}

// RemoveFromWatchlist stops tracking a symbol
// DELETE /api/watchlist/:symbol
func (h *WatchlistHandler) RemoveFromWatchlist(c echo.Context) error {
	symbol := domain.NormalizeSymbol(c.Param("symbol"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), viewTimeout)
	defer cancel()

	session, err := currentSession(ctx, c, h.sessions)
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to remove from watchlist")
	}

	removed, err := session.Untrack(ctx, symbol)
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to remove from watchlist")
	}

	message := symbol + " removed from watchlist"
	if !removed {
		message = symbol + " is not in your watchlist"
	}
	return SuccessMessageResponse(c, message, h.renderWatchlist(session))
}

// renderWatchlist renders from the latest applied snapshot. A session
// without a mounted watchlist gets symbols only.
func (h *WatchlistHandler) renderWatchlist(session *usecase.Session) view.WatchlistView {
	snap, _ := session.View(usecase.ViewWatchlist)
	return view.Watchlist(session.Watchlist.Symbols(), snap.Quotes, snap.Err, snap.FetchedAt)
}

// GetDashboard mounts and renders the dashboard
// GET /api/dashboard
func (h *WatchlistHandler) GetDashboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), viewTimeout)
	defer cancel()

	session, err := currentSession(ctx, c, h.sessions)
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to load dashboard")
	}

	user, err := h.authService.CurrentUser(ctx, session.UID)
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to load dashboard")
	}

	assets, err := h.portfolioService.List(ctx, session.UID)
	if err != nil {
		log.Printf("[WARN] Failed to load assets for dashboard of %s: %v", session.UID, err)
	}

	snap, err := session.Open(ctx, usecase.ViewDashboard)
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to load dashboard")
	}

	return SuccessResponse(c, view.Dashboard(user, session.Watchlist.Symbols(), snap.Quotes, snap.Err, assets, snap.FetchedAt))
}

// CloseView unmounts a view so background refreshes stop rendering it
// DELETE /api/views/:kind
func (h *WatchlistHandler) CloseView(c echo.Context) error {
	key, err := usecase.ParseViewKey(c.Param("kind"))
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to close view")
	}

	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	unmounted := false
	if session, ok := h.sessions.Lookup(userID); ok {
		unmounted = session.Unmount(key)
	}
	return SuccessResponse(c, map[string]interface{}{
		"view":      key,
		"unmounted": unmounted,
	})
}

// Search runs a debounced ticker lookup. A response superseded by a newer
// query or a dismiss comes back with stale=true.
// GET /api/search?q=
func (h *WatchlistHandler) Search(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), viewTimeout)
	defer cancel()

	session, err := currentSession(ctx, c, h.sessions)
	if err != nil {
		return DomainErrorResponse(c, err, "Search failed")
	}

	result, err := session.Search.Search(ctx, c.QueryParam("q"), session.Watchlist.Contains)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return SuccessResponse(c, usecase.SearchResult{Query: c.QueryParam("q"), Matches: []usecase.SearchMatch{}, Stale: true})
		}
		return DomainErrorResponse(c, err, "Search failed")
	}
	return SuccessResponse(c, result)
}

// DismissSearch closes the search dropdown
// DELETE /api/search
func (h *WatchlistHandler) DismissSearch(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}
	if session, ok := h.sessions.Lookup(userID); ok {
		session.Search.Dismiss()
	}
	return SuccessMessageResponse(c, "Search dismissed", nil)
}

// SelectSearch acts on a search match: adds it or navigates to it
// POST /api/search/select
func (h *WatchlistHandler) SelectSearch(c echo.Context) error {
	var req dto.SymbolRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), viewTimeout)
	defer cancel()

	session, err := currentSession(ctx, c, h.sessions)
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to add to watchlist")
	}

	outcome, err := session.Search.Select(ctx, req.Symbol, session.Watchlist)
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to add to watchlist")
	}
	if outcome.Action == usecase.ActionView {
		return SuccessResponse(c, outcome)
	}

	if err := session.Refresh(ctx); err != nil && !errors.Is(err, domain.ErrFetchFailed) {
		log.Printf("[WARN] Refresh after search add failed for %s: %v", session.UID, err)
	}
	return SuccessMessageResponse(c, outcome.Symbol+" added to watchlist", outcome)
}
