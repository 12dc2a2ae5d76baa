package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Notification type constants
const (
	NotifTypePriceDrop   = "price_drop"
	NotifTypePriceUpdate = "price_update"
)

type PushSubscription struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Endpoint   string    `json:"endpoint"`
	P256dhKey  string    `json:"p256dh_key"`
	AuthKey    string    `json:"auth_key"`
	DeviceName string    `json:"device_name"`
	CreatedAt  time.Time `json:"created_at"`
}

type Favorite struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	LocationID   int64     `json:"location_id"`
	ItemID       int64     `json:"item_id"`
	LocationName string    `json:"location_name"`
	ItemName     string    `json:"item_name"`
	CreatedAt    time.Time `json:"created_at"`
}

type Notification struct {
	ID           int64               `json:"id"`
	UserID       int64               `json:"user_id"`
	Type         string              `json:"type"`
	Title        string              `json:"title"`
	Message      string              `json:"message"`
	LocationID   *int64              `json:"location_id"`
	ItemID       *int64              `json:"item_id"`
	LocationName string              `json:"location_name"`
	ItemName     string              `json:"item_name"`
	OldPrice     decimal.NullDecimal `json:"old_price"`
	NewPrice     decimal.NullDecimal `json:"new_price"`
	IsRead       bool                `json:"is_read"`
	CreatedAt    time.Time           `json:"created_at"`
}
