package pricing

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/dukerupert/savesmart/internal/model"
	"github.com/shopspring/decimal"
)

type fakeSource struct {
	prices map[int64][]decimal.Decimal
	errs   map[int64]error
	calls  int
}

func (f *fakeSource) PricesForItem(_ context.Context, itemID int64) ([]decimal.Decimal, error) {
	f.calls++
	if err := f.errs[itemID]; err != nil {
		return nil, err
	}
	return f.prices[itemID], nil
}

type fakeLookup struct {
	obs   []model.PriceObservation
	err   error
	calls int
	ids   []int64
}

func (f *fakeLookup) PricesForItems(_ context.Context, itemIDs []int64) ([]model.PriceObservation, error) {
	f.calls++
	f.ids = itemIDs
	if f.err != nil {
		return nil, f.err
	}
	return f.obs, nil
}

var errUpstream = errors.New("upstream unavailable")

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decs(ss ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(ss))
	for i, s := range ss {
		out[i] = dec(s)
	}
	return out
}

func obs(id, locID, itemID int64, price, date string) model.PriceObservation {
	return model.PriceObservation{
		ID:         id,
		ItemID:     itemID,
		LocationID: locID,
		Price:      dec(price),
		ObservedOn: date,
		Location:   model.Location{ID: locID, Name: "Loc"},
		Item:       model.Item{ID: itemID},
	}
}

func entry(itemID int64, qty int) model.ShoppingListEntry {
	return model.ShoppingListEntry{ID: "e", ItemID: itemID, ItemName: "item", Quantity: qty, Unit: "unit"}
}
