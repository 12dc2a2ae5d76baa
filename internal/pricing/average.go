// Package pricing compares shopping lists across locations and measures
// purchase savings against crowd-sourced market averages.
package pricing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places currency values are rounded to
// at the presentation boundary.
const MoneyPlaces = 2

// AverageSource supplies every recorded price for one item, across all
// locations and dates.
type AverageSource interface {
	PricesForItem(ctx context.Context, itemID int64) ([]decimal.Decimal, error)
}

// Average is the outcome of reducing an item's price observations. Value is
// only meaningful when Available is true.
type Average struct {
	Value     decimal.Decimal `json:"value"`
	Available bool            `json:"available"`
}

// Rounded returns the average rounded to two decimal places.
func (a Average) Rounded() decimal.Decimal {
	return a.Value.Round(MoneyPlaces)
}

// MarketAverage returns the arithmetic mean of prices in full precision, or
// an unavailable Average when prices is empty.
func MarketAverage(prices []decimal.Decimal) Average {
	if len(prices) == 0 {
		return Average{}
	}
	return Average{
		Value:     decimal.Avg(prices[0], prices[1:]...),
		Available: true,
	}
}

// Calculator computes market averages and purchase savings from an injected
// price source. Nothing is cached between calls.
type Calculator struct {
	source AverageSource
	logger *slog.Logger
}

// NewCalculator returns a Calculator reading from source.
func NewCalculator(source AverageSource, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{source: source, logger: logger}
}

// MarketAverage fetches the item's observations and averages them.
func (c *Calculator) MarketAverage(ctx context.Context, itemID int64) (Average, error) {
	prices, err := c.source.PricesForItem(ctx, itemID)
	if err != nil {
		return Average{}, fmt.Errorf("fetch prices for item %d: %w", itemID, err)
	}
	return MarketAverage(prices), nil
}
