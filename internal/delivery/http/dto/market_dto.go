package dto

// SymbolRequest carries a single ticker
type SymbolRequest struct {
	Symbol string `json:"symbol"`
}

// ToggleOutput reports watchlist membership after a toggle
type ToggleOutput struct {
	Symbol  string `json:"symbol"`
	Tracked bool   `json:"tracked"`
}

// AssetRequest represents the add/edit asset form
type AssetRequest struct {
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	Quantity      float64 `json:"quantity"`
	PurchasePrice float64 `json:"purchasePrice"`
	PurchaseDate  string  `json:"purchaseDate"` // YYYY-MM-DD
}

// AlertRequest represents a new price alert
type AlertRequest struct {
	Symbol      string  `json:"symbol"`
	TargetPrice float64 `json:"targetPrice"`
	Direction   string  `json:"direction"` // "above" or "below"
}
