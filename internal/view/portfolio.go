package view

import (
	"time"

	"stockwizard/internal/domain"
	"stockwizard/internal/utils"
)

// AssetRow is one rendered line of the portfolio table
type AssetRow struct {
	*domain.Asset
	Cost          float64         `json:"cost"`
	Profit        float64         `json:"profit"`
	ProfitPercent float64         `json:"profitPercent"`
	Allocation    float64         `json:"allocation"`
	Trend         string          `json:"trend"`
	Display       AssetRowDisplay `json:"display"`
}

// AssetRowDisplay holds the formatted strings of an AssetRow
type AssetRowDisplay struct {
	Value         string `json:"value"`
	Profit        string `json:"profit"`
	ProfitPercent string `json:"profitPercent"`
	PurchaseDate  string `json:"purchaseDate"`
}

// PortfolioView is the wealth overview and asset table
type PortfolioView struct {
	Metrics       domain.PortfolioMetrics `json:"metrics"`
	Rows          []AssetRow              `json:"rows"`
	HoldingPeriod string                  `json:"holdingPeriod"`
	Sort          string                  `json:"sort"`
	Currency      string                  `json:"currency"`
	Empty         bool                    `json:"empty"`
	Display       PortfolioDisplay        `json:"display"`
}

// PortfolioDisplay holds the formatted metric strings of a PortfolioView
type PortfolioDisplay struct {
	TotalValue      string `json:"totalValue"`
	TotalCost       string `json:"totalCost"`
	TotalGains      string `json:"totalGains"`
	TotalPercentage string `json:"totalPercentage"`
	AvgReturn       string `json:"avgReturn"`
}

// Portfolio renders assets sorted by order. Metrics are computed over the
// whole set; allocation is each asset's share of the total value. Amounts
// are formatted in currency.
func Portfolio(assets []*domain.Asset, order domain.SortOrder, currency string, now time.Time) PortfolioView {
	if currency == "" {
		currency = DefaultCurrency
	}

	sorted := make([]*domain.Asset, len(assets))
	copy(sorted, assets)
	domain.SortAssets(sorted, order)

	m := domain.CalculatePortfolioMetrics(sorted)

	v := PortfolioView{
		Metrics:  m,
		Rows:     make([]AssetRow, 0, len(sorted)),
		Sort:     order.String(),
		Currency: currency,
		Empty:    len(sorted) == 0,
		Display: PortfolioDisplay{
			TotalValue:      FormatMoney(m.TotalValue, currency),
			TotalCost:       FormatMoney(m.TotalCost, currency),
			TotalGains:      FormatMoney(m.TotalGains, currency),
			TotalPercentage: FormatPercent(m.TotalPercentage),
			AvgReturn:       FormatPercent(m.AvgReturn),
		},
	}

	dates := make([]time.Time, 0, len(sorted))
	for _, a := range sorted {
		dates = append(dates, a.PurchaseDate)
		v.Rows = append(v.Rows, AssetRow{
			Asset:         a,
			Cost:          a.Cost(),
			Profit:        a.Profit(),
			ProfitPercent: a.ProfitPercent(),
			Allocation:    domain.Allocation(a.Value, m.TotalValue),
			Trend:         Trend(a.Profit()),
			Display: AssetRowDisplay{
				Value:         FormatMoney(a.Value, currency),
				Profit:        FormatMoney(a.Profit(), currency),
				ProfitPercent: FormatPercent(a.ProfitPercent()),
				PurchaseDate:  utils.FormatLocaleDate(a.PurchaseDate),
			},
		})
	}
	v.HoldingPeriod = utils.FormatHoldingPeriod(utils.AverageHoldingDays(dates, now))
	return v
}
