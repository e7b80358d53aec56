package domain

import "strings"

// Category groups watchlist symbols for display
type Category string

// Category constants
const (
	CategoryCrypto    Category = "crypto"
	CategoryStock     Category = "stock"
	CategoryCommodity Category = "commodity"
)

// Categories lists every category in display order
var Categories = []Category{CategoryCrypto, CategoryStock, CategoryCommodity}

var cryptoSymbols = map[string]bool{
	"BTC": true, "ETH": true, "XRP": true, "SOL": true, "DOGE": true,
	"AVAX": true, "SUI": true, "ADA": true, "DOT": true, "LINK": true,
}

var commoditySymbols = map[string]bool{
	"USOIL": true, "GOLD": true, "SILVER": true, "PALLADIUM": true,
	"PLATINUM": true, "COPPER": true, "NATURAL_GAS": true,
}

// Categorize maps a symbol to its category. Unknown symbols are stocks.
func Categorize(symbol string) Category {
	s := NormalizeSymbol(symbol)
	switch {
	case cryptoSymbols[s]:
		return CategoryCrypto
	case commoditySymbols[s]:
		return CategoryCommodity
	default:
		return CategoryStock
	}
}

// NormalizeSymbol returns the canonical (trimmed, uppercase) form of a ticker
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// NormalizeSymbols uppercases every entry and drops blanks and duplicates,
// keeping first-seen order.
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		n := NormalizeSymbol(s)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
