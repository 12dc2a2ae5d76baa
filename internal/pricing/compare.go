package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/dukerupert/savesmart/internal/model"
	"github.com/shopspring/decimal"
)

// Recommendation thresholds.
const (
	MinCoveragePercent = 50
	MinLocations       = 2
)

// PriceLookup returns every observation of the given items with the
// observation's Item and Location populated.
type PriceLookup interface {
	PricesForItems(ctx context.Context, itemIDs []int64) ([]model.PriceObservation, error)
}

// ComparisonLine is one priced list entry at a location.
type ComparisonLine struct {
	ItemID     int64           `json:"item_id"`
	ItemName   string          `json:"item_name"`
	Quantity   int             `json:"quantity"`
	Unit       string          `json:"unit"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	LineTotal  decimal.Decimal `json:"line_total"`
	ObservedOn string          `json:"date"`
}

// LocationTotal is the cost of the priced subset of a list at one location.
// Items is only populated for the cheapest location.
type LocationTotal struct {
	Location  model.Location   `json:"location"`
	Total     decimal.Decimal  `json:"total"`
	ItemCount int              `json:"item_count"`
	Items     []ComparisonLine `json:"items,omitempty"`
}

// Comparison ranks locations by the total cost of a shopping list.
type Comparison struct {
	HasEnoughData   bool            `json:"has_enough_data"`
	Locations       []LocationTotal `json:"locations"`
	ItemsWithPrices int             `json:"items_with_prices"`
	TotalItems      int             `json:"total_items"`
	CoveragePercent int             `json:"coverage_percent"`
	Error           string          `json:"error,omitempty"`
}

// Cheapest returns the top-ranked location, or nil when there is none.
func (c Comparison) Cheapest() *LocationTotal {
	if len(c.Locations) == 0 {
		return nil
	}
	return &c.Locations[0]
}

// Comparer ranks locations for a shopping list.
type Comparer struct {
	prices PriceLookup
	logger *slog.Logger
}

// NewComparer returns a Comparer reading observations from prices.
func NewComparer(prices PriceLookup, logger *slog.Logger) *Comparer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Comparer{prices: prices, logger: logger}
}

// Compare totals the list at every location that prices at least one of its
// items and ranks those locations cheapest first. Locations only count an
// item's most recent observation. Failures are reported in Comparison.Error.
func (c *Comparer) Compare(ctx context.Context, list []model.ShoppingListEntry) Comparison {
	if len(list) == 0 {
		return Comparison{Locations: []LocationTotal{}}
	}

	list = MergeEntries(list)
	ids := make([]int64, 0, len(list))
	entries := make(map[int64]model.ShoppingListEntry, len(list))
	for _, e := range list {
		ids = append(ids, e.ItemID)
		entries[e.ItemID] = e
	}

	obs, err := c.prices.PricesForItems(ctx, ids)
	if err != nil {
		c.logger.Error("comparison price fetch failed", "items", len(ids), "error", err)
		return Comparison{
			Locations:  []LocationTotal{},
			TotalItems: len(ids),
			Error:      fmt.Sprintf("fetch prices: %v", err),
		}
	}

	latest := latestPerLocationItem(obs)

	var order []int64
	totals := make(map[int64]*LocationTotal)
	matched := make(map[int64]struct{})

	for _, o := range latest {
		entry, ok := entries[o.ItemID]
		if !ok {
			continue
		}
		lt, seen := totals[o.LocationID]
		if !seen {
			loc := o.Location
			loc.ID = o.LocationID
			lt = &LocationTotal{Location: loc, Total: decimal.Zero}
			totals[o.LocationID] = lt
			order = append(order, o.LocationID)
		}
		line := o.Price.Mul(decimal.NewFromInt(int64(entry.Quantity)))
		lt.Total = lt.Total.Add(line)
		lt.ItemCount++
		lt.Items = append(lt.Items, ComparisonLine{
			ItemID:     entry.ItemID,
			ItemName:   entry.ItemName,
			Quantity:   entry.Quantity,
			Unit:       entry.Unit,
			UnitPrice:  o.Price,
			LineTotal:  line,
			ObservedOn: o.ObservedOn,
		})
		matched[o.ItemID] = struct{}{}
	}

	locations := make([]LocationTotal, 0, len(order))
	for _, id := range order {
		if lt := totals[id]; lt.ItemCount > 0 {
			locations = append(locations, *lt)
		}
	}
	sort.SliceStable(locations, func(i, j int) bool {
		return locations[i].Total.LessThan(locations[j].Total)
	})
	for i := 1; i < len(locations); i++ {
		locations[i].Items = nil
	}

	total := len(ids)
	return Comparison{
		HasEnoughData:   len(matched)*100 >= MinCoveragePercent*total && len(locations) >= MinLocations,
		Locations:       locations,
		ItemsWithPrices: len(matched),
		TotalItems:      total,
		CoveragePercent: int(math.Round(100 * float64(len(matched)) / float64(total))),
	}
}

// MergeEntries folds entries for the same item into the first one, summing
// quantities. Order follows each item's first appearance.
func MergeEntries(list []model.ShoppingListEntry) []model.ShoppingListEntry {
	out := make([]model.ShoppingListEntry, 0, len(list))
	idx := make(map[int64]int, len(list))
	for _, e := range list {
		if i, ok := idx[e.ItemID]; ok {
			out[i].Quantity += e.Quantity
			continue
		}
		idx[e.ItemID] = len(out)
		out = append(out, e)
	}
	return out
}

// latestPerLocationItem keeps, for each (location, item) pair, the
// observation with the latest observed date, breaking ties by highest id.
// Result order follows the first appearance of each pair.
func latestPerLocationItem(obs []model.PriceObservation) []model.PriceObservation {
	type key struct{ loc, item int64 }
	idx := make(map[key]int)
	out := make([]model.PriceObservation, 0, len(obs))
	for _, o := range obs {
		k := key{o.LocationID, o.ItemID}
		i, ok := idx[k]
		if !ok {
			idx[k] = len(out)
			out = append(out, o)
			continue
		}
		cur := out[i]
		if o.ObservedOn > cur.ObservedOn || (o.ObservedOn == cur.ObservedOn && o.ID > cur.ID) {
			out[i] = o
		}
	}
	return out
}
