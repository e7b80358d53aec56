package view

import (
	"strings"
	"time"

	"stockwizard/internal/domain"
)

// DashboardCardLimit is the most watchlist cards the dashboard shows
const DashboardCardLimit = 6

// DashboardView is the landing page summary
type DashboardView struct {
	Welcome        string           `json:"welcome"`
	AvatarBase64   *string          `json:"avatarBase64"`
	ProStatus      bool             `json:"proStatus"`
	WatchlistCount int              `json:"watchlistCount"`
	Cards          []QuoteCard      `json:"cards"`
	Empty          bool             `json:"empty"`
	PortfolioValue float64          `json:"portfolioValue"`
	Currency       string           `json:"currency"`
	Display        DashboardDisplay `json:"display"`
	Error          string           `json:"error,omitempty"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// DashboardDisplay holds the formatted strings of a DashboardView
type DashboardDisplay struct {
	PortfolioValue string `json:"portfolioValue"`
}

// Dashboard renders the greeting, the first watchlist cards and the
// portfolio value in the user's preferred currency.
func Dashboard(user *domain.UserProfile, symbols []string, quotes []domain.Quote, fetchErr error, assets []*domain.Asset, at time.Time) DashboardView {
	symbols = domain.NormalizeSymbols(symbols)
	tracked := watchlistQuotes(symbols, quotes)
	if len(tracked) > DashboardCardLimit {
		tracked = tracked[:DashboardCardLimit]
	}

	var total float64
	for _, a := range assets {
		total += a.Value
	}

	v := DashboardView{
		Welcome:        Welcome(user),
		WatchlistCount: len(symbols),
		Cards:          make([]QuoteCard, 0, len(tracked)),
		Empty:          len(symbols) == 0,
		PortfolioValue: total,
		Currency:       DefaultCurrency,
		UpdatedAt:      at,
	}
	if user != nil {
		v.AvatarBase64 = user.AvatarBase64
		v.ProStatus = user.ProStatus
		if user.Preferences.Currency != "" {
			v.Currency = user.Preferences.Currency
		}
	}
	v.Display.PortfolioValue = FormatMoney(total, v.Currency)

	for _, q := range tracked {
		v.Cards = append(v.Cards, NewQuoteCard(q, true))
	}
	if fetchErr != nil {
		v.Error = FetchErrorNotice
	}
	return v
}

// Welcome greets the user by first name, falling back to the email's
// local part.
func Welcome(user *domain.UserProfile) string {
	if user == nil {
		return "Welcome to StockWizard"
	}
	name := strings.TrimSpace(user.DisplayName)
	if name != "" {
		name = strings.Fields(name)[0]
	} else {
		name, _, _ = strings.Cut(user.Email, "@")
	}
	return "Welcome back, " + name
}
