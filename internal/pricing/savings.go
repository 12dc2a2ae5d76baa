package pricing

import (
	"context"

	"github.com/dukerupert/savesmart/internal/model"
	"github.com/shopspring/decimal"
)

// Status reports whether a savings comparison could be made.
type Status int

const (
	// StatusUnavailable means no market price exists for the item.
	StatusUnavailable Status = iota
	// StatusAvailable means Savings and MarketAverage are populated.
	StatusAvailable
	// StatusError means the price source failed for the item.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusError:
		return "error"
	default:
		return "unavailable"
	}
}

// MarshalText renders the status by name in JSON output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// PurchaseSavings is the comparison of one purchase against the market
// average. Positive Savings means the shopper paid below average.
type PurchaseSavings struct {
	Status        Status `json:"status"`
	Savings       Money  `json:"savings"`
	MarketAverage Money  `json:"market_average"`
}

// Available reports whether a market comparison was possible.
func (p PurchaseSavings) Available() bool {
	return p.Status == StatusAvailable
}

// Deal is a purchase annotated with its savings.
type Deal struct {
	model.Purchase
	Savings       Money `json:"savings"`
	MarketAverage Money `json:"market_average"`
}

// SavingsSummary aggregates savings over a set of purchases.
type SavingsSummary struct {
	TotalSavings              Money `json:"total_savings"`
	TotalSpent                Money `json:"total_spent"`
	TotalPurchases            int   `json:"total_purchases"`
	PurchasesWithComparison   int   `json:"purchases_with_comparison"`
	AverageSavingsPerPurchase Money `json:"average_savings_per_purchase"`
	BestDeal                  *Deal `json:"best_deal"`
	WorstDeal                 *Deal `json:"worst_deal"`
}

// Savings returns (average - paid) * quantity.
func Savings(average, paid decimal.Decimal, quantity int) decimal.Decimal {
	return average.Sub(paid).Mul(decimal.NewFromInt(int64(quantity)))
}

// PurchaseSavings compares a price paid per unit against the item's market
// average. A source failure is logged and reported as StatusError.
func (c *Calculator) PurchaseSavings(ctx context.Context, itemID int64, pricePaid decimal.Decimal, quantity int) PurchaseSavings {
	res := c.purchaseSavings(ctx, itemID, pricePaid, quantity)
	if res.Available() {
		res.Savings = NewMoney(res.Savings.Decimal)
		res.MarketAverage = NewMoney(res.MarketAverage.Decimal)
	}
	return res
}

// purchaseSavings is PurchaseSavings without rounding.
func (c *Calculator) purchaseSavings(ctx context.Context, itemID int64, pricePaid decimal.Decimal, quantity int) PurchaseSavings {
	avg, err := c.MarketAverage(ctx, itemID)
	if err != nil {
		c.logger.Warn("market average unavailable", "item_id", itemID, "error", err)
		return PurchaseSavings{Status: StatusError}
	}
	if !avg.Available {
		return PurchaseSavings{Status: StatusUnavailable}
	}
	return PurchaseSavings{
		Status:        StatusAvailable,
		Savings:       Money{Savings(avg.Value, pricePaid, quantity)},
		MarketAverage: Money{avg.Value},
	}
}

// Summarize computes savings statistics over purchases in input order. A
// purchase whose market data cannot be fetched counts towards TotalSpent but
// not towards the comparison figures.
func (c *Calculator) Summarize(ctx context.Context, purchases []model.Purchase) SavingsSummary {
	totalSpent := decimal.Zero
	totalSavings := decimal.Zero
	compared := 0
	var best, worst *Deal

	for _, p := range purchases {
		totalSpent = totalSpent.Add(p.Spent())

		res := c.purchaseSavings(ctx, p.ItemID, p.PricePaid, p.Quantity)
		if !res.Available() {
			continue
		}
		totalSavings = totalSavings.Add(res.Savings.Decimal)
		compared++

		deal := &Deal{Purchase: p, Savings: res.Savings, MarketAverage: res.MarketAverage}
		if best == nil || deal.Savings.GreaterThan(best.Savings.Decimal) {
			best = deal
		}
		if worst == nil || deal.Savings.LessThan(worst.Savings.Decimal) {
			worst = deal
		}
	}

	avgPer := decimal.Zero
	if compared > 0 {
		avgPer = totalSavings.Div(decimal.NewFromInt(int64(compared)))
	}

	return SavingsSummary{
		TotalSavings:              NewMoney(totalSavings),
		TotalSpent:                NewMoney(totalSpent),
		TotalPurchases:            len(purchases),
		PurchasesWithComparison:   compared,
		AverageSavingsPerPurchase: NewMoney(avgPer),
		BestDeal:                  roundDeal(best),
		WorstDeal:                 roundDeal(worst),
	}
}

func roundDeal(d *Deal) *Deal {
	if d == nil {
		return nil
	}
	out := *d
	out.Savings = NewMoney(out.Savings.Decimal)
	out.MarketAverage = NewMoney(out.MarketAverage.Decimal)
	return &out
}
