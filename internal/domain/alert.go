package domain

import (
	"time"

	"github.com/google/uuid"
)

// PriceAlert notifies the user when a symbol crosses a target price
type PriceAlert struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"-"`
	Symbol      string     `json:"symbol"`
	TargetPrice float64    `json:"targetPrice"`
	Direction   string     `json:"direction"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	TriggeredAt *time.Time `json:"triggeredAt,omitempty"`
}

// AlertDirection constants
const (
	DirectionAbove = "above"
	DirectionBelow = "below"
)

// AlertStatus constants
const (
	AlertActive    = "ACTIVE"
	AlertTriggered = "TRIGGERED"
)

// IsHit reports whether price satisfies the alert condition
func (a *PriceAlert) IsHit(price float64) bool {
	if price <= 0 {
		return false
	}
	if a.Direction == DirectionBelow {
		return price <= a.TargetPrice
	}
	return price >= a.TargetPrice
}
