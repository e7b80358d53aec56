package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// RiskLevel constants
const (
	RiskHigh   = "High"
	RiskMedium = "Medium"
	RiskLow    = "Low"
)

// PortfolioMetrics are the aggregates shown on the wealth overview
type PortfolioMetrics struct {
	TotalValue      float64 `json:"totalValue"`
	TotalCost       float64 `json:"totalCost"`
	TotalGains      float64 `json:"totalGains"`
	TotalPercentage float64 `json:"totalPercentage"`
	AssetCount      int     `json:"assetCount"`
	BestPerformer   *string `json:"bestPerformer"`
	AvgReturn       float64 `json:"avgReturn"`
	RiskLevel       string  `json:"riskLevel"`
}

// CalculatePortfolioMetrics reduces a set of assets to display metrics.
// AvgReturn is the total percentage divided by the asset count, not the
// mean of per-asset returns.
func CalculatePortfolioMetrics(assets []*Asset) PortfolioMetrics {
	m := PortfolioMetrics{
		AssetCount: len(assets),
		RiskLevel:  RiskLevelFor(len(assets)),
	}
	if len(assets) == 0 {
		return m
	}

	best := math.Inf(-1)
	for _, a := range assets {
		m.TotalValue += a.Value
		m.TotalCost += a.Cost()

		// Strictly greater: the first asset wins ties
		if p := a.ProfitPercent(); p > best {
			best = p
			name := a.Name
			m.BestPerformer = &name
		}
	}

	m.TotalGains = m.TotalValue - m.TotalCost
	if m.TotalCost > 0 {
		m.TotalPercentage = m.TotalGains / m.TotalCost * 100
	}
	m.AvgReturn = m.TotalPercentage / float64(len(assets))
	return m
}

// RiskLevelFor derives the risk label from the number of holdings
func RiskLevelFor(count int) string {
	switch {
	case count < 3:
		return RiskHigh
	case count < 6:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Allocation returns value as a percentage of totalValue, 0 when totalValue is 0
func Allocation(value, totalValue float64) float64 {
	if totalValue == 0 {
		return 0
	}
	return value / totalValue * 100
}

// SortField names the column an asset table is sorted by
type SortField string

// SortField constants
const (
	SortByName   SortField = "name"
	SortByValue  SortField = "value"
	SortByProfit SortField = "profit"
)

// SortOrder is a parsed "field-direction" selector such as "value-desc"
type SortOrder struct {
	Field      SortField
	Descending bool
}

// ParseSortOrder parses selectors of the form "<name|value|profit>-<asc|desc>"
func ParseSortOrder(s string) (SortOrder, error) {
	field, dir, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "-")
	if !ok {
		return SortOrder{}, fmt.Errorf("%w: invalid sort %q", ErrValidationFailed, s)
	}
	switch SortField(field) {
	case SortByName, SortByValue, SortByProfit:
	default:
		return SortOrder{}, fmt.Errorf("%w: unknown sort field %q", ErrValidationFailed, field)
	}
	switch dir {
	case "asc", "desc":
	default:
		return SortOrder{}, fmt.Errorf("%w: unknown sort direction %q", ErrValidationFailed, dir)
	}
	return SortOrder{Field: SortField(field), Descending: dir == "desc"}, nil
}

// String renders the selector back to its "field-direction" form
func (o SortOrder) String() string {
	dir := "asc"
	if o.Descending {
		dir = "desc"
	}
	return string(o.Field) + "-" + dir
}

// SortAssets sorts assets in place. Equal keys keep their relative order.
func SortAssets(assets []*Asset, order SortOrder) {
	less := func(a, b *Asset) bool {
		switch order.Field {
		case SortByName:
			return a.Name < b.Name
		case SortByValue:
			return a.Value < b.Value
		default:
			return a.Profit() < b.Profit()
		}
	}
	sort.SliceStable(assets, func(i, j int) bool {
		if order.Descending {
			return less(assets[j], assets[i])
		}
		return less(assets[i], assets[j])
	})
}

// CategoryCounts holds how many watchlist symbols fall in each category
type CategoryCounts struct {
	Crypto    int `json:"crypto"`
	Stock     int `json:"stock"`
	Commodity int `json:"commodity"`
}

// GroupQuotes partitions quotes by category, preserving input order within a group
func GroupQuotes(quotes []Quote) map[Category][]Quote {
	groups := map[Category][]Quote{
		CategoryCrypto:    {},
		CategoryStock:     {},
		CategoryCommodity: {},
	}
	for _, q := range quotes {
		c := Categorize(q.Symbol)
		groups[c] = append(groups[c], q)
	}
	return groups
}

// CountCategories counts symbols per category
func CountCategories(symbols []string) CategoryCounts {
	var counts CategoryCounts
	for _, s := range symbols {
		switch Categorize(s) {
		case CategoryCrypto:
			counts.Crypto++
		case CategoryCommodity:
			counts.Commodity++
		default:
			counts.Stock++
		}
	}
	return counts
}
