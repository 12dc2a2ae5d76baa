package pricing

import (
	"time"

	"github.com/dukerupert/savesmart/internal/model"
	"github.com/shopspring/decimal"
)

// Freshness buckets the age of a price observation.
type Freshness string

const (
	FreshnessFresh    Freshness = "fresh"
	FreshnessModerate Freshness = "moderate"
	FreshnessOld      Freshness = "old"
	FreshnessNone     Freshness = "none"
)

// FreshnessOf classifies an observation date relative to now. Unparseable or
// empty dates report FreshnessNone.
func FreshnessOf(observedOn string, now time.Time) Freshness {
	if observedOn == "" {
		return FreshnessNone
	}
	d, err := time.ParseInLocation(model.DateLayout, observedOn, now.Location())
	if err != nil {
		return FreshnessNone
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	days := int(today.Sub(d).Hours() / 24)
	switch {
	case days <= 7:
		return FreshnessFresh
	case days <= 30:
		return FreshnessModerate
	default:
		return FreshnessOld
	}
}

// PriceCategory places a location's average price within a result set.
type PriceCategory string

const (
	PriceLow    PriceCategory = "low"
	PriceMedium PriceCategory = "medium"
	PriceHigh   PriceCategory = "high"
)

// Categorize splits the [min, max] range into thirds and reports which third
// value falls in. A degenerate range is always low.
func Categorize(value, min, max decimal.Decimal) PriceCategory {
	span := max.Sub(min)
	if !span.IsPositive() {
		return PriceLow
	}
	third := span.Div(decimal.NewFromInt(3))
	switch {
	case value.LessThanOrEqual(min.Add(third)):
		return PriceLow
	case value.LessThanOrEqual(min.Add(third).Add(third)):
		return PriceMedium
	default:
		return PriceHigh
	}
}
