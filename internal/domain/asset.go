package domain

import (
	"time"

	"github.com/google/uuid"
)

// Asset represents a held position in the user's portfolio
type Asset struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"-"`
	Name          string    `json:"name"`
	Symbol        string    `json:"symbol"`
	Quantity      float64   `json:"quantity"`
	PurchasePrice float64   `json:"purchasePrice"`
	CurrentPrice  float64   `json:"currentPrice"`
	Value         float64   `json:"value"`
	PurchaseDate  time.Time `json:"purchaseDate"`
	CreatedAt     time.Time `json:"createdAt"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

// Cost returns the cost basis of the position
func (a *Asset) Cost() float64 {
	return a.Quantity * a.PurchasePrice
}

// Profit returns the unrealized gain against the cost basis
func (a *Asset) Profit() float64 {
	return a.Value - a.Cost()
}

// ProfitPercent returns the unrealized gain as a percentage of cost, 0 without cost
func (a *Asset) ProfitPercent() float64 {
	cost := a.Cost()
	if cost <= 0 {
		return 0
	}
	return a.Profit() / cost * 100
}

// Reprice sets the current price and recomputes the value.
// Value is never trusted from the caller.
func (a *Asset) Reprice(price float64, at time.Time) {
	a.CurrentPrice = price
	a.Value = a.Quantity * price
	a.LastUpdated = at
}
