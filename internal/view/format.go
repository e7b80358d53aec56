// Package view turns quotes, watchlist membership and portfolio data into
// the view models served to clients. Every builder is a pure function of
// its inputs.
package view

import (
	"fmt"
	"math"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrency is used when a preference names no known currency
const DefaultCurrency = "USD"

// Trend labels
const (
	TrendUp      = "up"
	TrendDown    = "down"
	TrendNeutral = "neutral"
)

// FetchErrorNotice is shown in place of quotes when market data is unavailable
const FetchErrorNotice = "Unable to load market data. Please try again later."

var printer = message.NewPrinter(language.English)

// FormatMoney renders amount with the symbol and separators of currency
func FormatMoney(amount float64, currency string) string {
	if money.GetCurrency(currency) == nil {
		currency = DefaultCurrency
	}
	cur := money.GetCurrency(currency)
	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, currency).Display()
}

// FormatPercent renders p with two decimals and an explicit sign for gains
func FormatPercent(p float64) string {
	if p >= 0 {
		return fmt.Sprintf("+%.2f%%", p)
	}
	return fmt.Sprintf("%.2f%%", p)
}

// FormatVolume renders v as a whole number with thousands separators
func FormatVolume(v float64) string {
	return printer.Sprintf("%d", int64(math.Round(v)))
}

// Trend classifies a change
func Trend(change float64) string {
	switch {
	case change > 0:
		return TrendUp
	case change < 0:
		return TrendDown
	default:
		return TrendNeutral
	}
}
