package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Location types.
const (
	LocationSupermarket  = "supermarket"
	LocationNightMarket  = "night_market"
	LocationGroceryStore = "grocery_store"
	LocationFoodBank     = "food_bank"
)

// DateLayout is the layout of observation and purchase dates.
const DateLayout = "2006-01-02"

type Item struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Brand     string    `json:"brand"`
	Unit      string    `json:"unit"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

type Location struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	Type      string    `json:"type"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
}

// PriceObservation is one crowd-sourced sighting of an item's price at a location.
type PriceObservation struct {
	ID          int64           `json:"id"`
	ItemID      int64           `json:"item_id"`
	LocationID  int64           `json:"location_id"`
	Price       decimal.Decimal `json:"price"`
	ObservedOn  string          `json:"date"`
	ReceiptURL  string          `json:"receipt_url"`
	SubmittedBy *int64          `json:"submitted_by"`
	CreatedAt   time.Time       `json:"created_at"`
	Item        Item            `json:"item"`
	Location    Location        `json:"location"`
}

// ShoppingListEntry is a denormalized copy of an item plus the desired quantity.
type ShoppingListEntry struct {
	ID        string `json:"id"`
	ItemID    int64  `json:"item_id"`
	ItemName  string `json:"item_name"`
	ItemBrand string `json:"item_brand"`
	Quantity  int    `json:"quantity"`
	Unit      string `json:"unit"`
}

type Submission struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"user_id"`
	Type       string          `json:"submission_type"`
	Status     string          `json:"status"`
	PriceID    int64           `json:"price_id"`
	ItemID     int64           `json:"item_id"`
	LocationID int64           `json:"location_id"`
	Price      decimal.Decimal `json:"price"`
	ObservedOn string          `json:"date"`
	ReceiptURL string          `json:"receipt_image_url"`
	CreatedAt  time.Time       `json:"created_at"`
}
