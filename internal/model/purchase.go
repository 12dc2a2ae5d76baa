package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Purchase struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"user_id"`
	ItemID       int64           `json:"item_id"`
	LocationID   int64           `json:"location_id"`
	PricePaid    decimal.Decimal `json:"price_paid"`
	Quantity     int             `json:"quantity"`
	PurchaseDate string          `json:"purchase_date"`
	Notes        string          `json:"notes"`
	CreatedAt    time.Time       `json:"created_at"`
	Item         *Item           `json:"item,omitempty"`
	Location     *Location       `json:"location,omitempty"`
}

// Spent is the amount paid for the purchase, price times quantity.
func (p Purchase) Spent() decimal.Decimal {
	return p.PricePaid.Mul(decimal.NewFromInt(int64(p.Quantity)))
}
