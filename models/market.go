package models

// MarketIndex is one normalized market index quote.
type MarketIndex struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Value         float64 `json:"value"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	IsPositive    bool    `json:"is_positive"`
	UpdatedAt     *string `json:"updated_at,omitempty"`
}
