package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

func mustCreatePrice(t *testing.T, ps *PriceStore, in NewPrice) *PriceChange {
	t.Helper()
	ch, err := ps.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create price: %v", err)
	}
	return ch
}

func TestPriceCreateRecordsSubmission(t *testing.T) {
	db := setupTestDB(t)
	ps := NewPriceStore(db)
	ctx := context.Background()
	userID := createTestUser(t, db, "aisyah@example.com")

	ch := mustCreatePrice(t, ps, NewPrice{
		ItemID: 1, LocationID: 2, Price: decimal.RequireFromString("25.90"),
		ObservedOn: "2026-03-01", ReceiptURL: "https://cdn.example.com/r.jpg", SubmittedBy: userID,
	})

	obs := ch.Observation
	if obs.Price.StringFixed(2) != "25.90" {
		t.Errorf("price = %s, want 25.90", obs.Price)
	}
	if obs.Item.Name != "Beras Wangi" {
		t.Errorf("item name = %q, want %q", obs.Item.Name, "Beras Wangi")
	}
	if obs.Location.ID != 2 || obs.Location.Name == "" {
		t.Errorf("location = %+v", obs.Location)
	}
	if obs.SubmittedBy == nil || *obs.SubmittedBy != userID {
		t.Errorf("submitted_by = %v, want %d", obs.SubmittedBy, userID)
	}
	if ch.Previous.Valid {
		t.Error("first observation should have no previous price")
	}
	if ch.Changed() {
		t.Error("first observation should not count as a change")
	}

	subs, err := ps.ListSubmissions(ctx, userID)
	if err != nil {
		t.Fatalf("list submissions: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("submissions = %d, want 1", len(subs))
	}
	if subs[0].PriceID != obs.ID || subs[0].Status != "approved" || subs[0].Type != "price" {
		t.Errorf("submission = %+v", subs[0])
	}
}

func TestPriceCreateAnonymousSkipsSubmission(t *testing.T) {
	db := setupTestDB(t)
	ps := NewPriceStore(db)

	ch := mustCreatePrice(t, ps, NewPrice{ItemID: 1, LocationID: 1, Price: decimal.NewFromInt(3), ObservedOn: "2026-03-01"})
	if ch.Observation.SubmittedBy != nil {
		t.Error("expected nil submitter")
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM user_submissions`).Scan(&n); err != nil {
		t.Fatalf("count submissions: %v", err)
	}
	if n != 0 {
		t.Errorf("submissions = %d, want 0", n)
	}
}

func TestPriceCreatePreviousIsLatest(t *testing.T) {
	ps := NewPriceStore(setupTestDB(t))

	mustCreatePrice(t, ps, NewPrice{ItemID: 6, LocationID: 1, Price: decimal.RequireFromString("7.00"), ObservedOn: "2026-03-05"})
	mustCreatePrice(t, ps, NewPrice{ItemID: 6, LocationID: 1, Price: decimal.RequireFromString("9.00"), ObservedOn: "2026-03-01"})
	// Another location must not leak into the comparison.
	mustCreatePrice(t, ps, NewPrice{ItemID: 6, LocationID: 2, Price: decimal.RequireFromString("1.00"), ObservedOn: "2026-03-09"})

	ch := mustCreatePrice(t, ps, NewPrice{ItemID: 6, LocationID: 1, Price: decimal.RequireFromString("6.50"), ObservedOn: "2026-03-10"})
	if !ch.Previous.Valid || ch.Previous.Decimal.StringFixed(2) != "7.00" {
		t.Errorf("previous = %+v, want 7.00", ch.Previous)
	}
	if !ch.Changed() {
		t.Error("expected change")
	}

	same := mustCreatePrice(t, ps, NewPrice{ItemID: 6, LocationID: 1, Price: decimal.RequireFromString("6.5"), ObservedOn: "2026-03-11"})
	if same.Changed() {
		t.Error("equal price should not count as a change")
	}
}

func TestPricesForItems(t *testing.T) {
	ps := NewPriceStore(setupTestDB(t))
	ctx := context.Background()

	mustCreatePrice(t, ps, NewPrice{ItemID: 1, LocationID: 1, Price: decimal.NewFromInt(25), ObservedOn: "2026-03-01"})
	mustCreatePrice(t, ps, NewPrice{ItemID: 2, LocationID: 1, Price: decimal.NewFromInt(6), ObservedOn: "2026-03-01"})
	mustCreatePrice(t, ps, NewPrice{ItemID: 3, LocationID: 2, Price: decimal.NewFromInt(3), ObservedOn: "2026-03-01"})

	obs, err := ps.PricesForItems(ctx, []int64{1, 3})
	if err != nil {
		t.Fatalf("prices for items: %v", err)
	}
	if len(obs) != 2 {
		t.Fatalf("observations = %d, want 2", len(obs))
	}
	if obs[0].ItemID != 1 || obs[1].ItemID != 3 {
		t.Errorf("item ids = %d, %d; want 1, 3", obs[0].ItemID, obs[1].ItemID)
	}
	if obs[1].Location.ID != 2 {
		t.Errorf("location = %d, want 2", obs[1].Location.ID)
	}

	empty, err := ps.PricesForItems(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("empty ids = %v, %v", empty, err)
	}
}

func TestPricesForItem(t *testing.T) {
	ps := NewPriceStore(setupTestDB(t))
	ctx := context.Background()

	mustCreatePrice(t, ps, NewPrice{ItemID: 4, LocationID: 1, Price: decimal.RequireFromString("2.80"), ObservedOn: "2026-03-01"})
	mustCreatePrice(t, ps, NewPrice{ItemID: 4, LocationID: 5, Price: decimal.RequireFromString("3.20"), ObservedOn: "2026-02-01"})

	prices, err := ps.PricesForItem(ctx, 4)
	if err != nil {
		t.Fatalf("prices for item: %v", err)
	}
	if len(prices) != 2 {
		t.Fatalf("prices = %d, want 2", len(prices))
	}
	if !prices[0].Add(prices[1]).Equal(decimal.NewFromInt(6)) {
		t.Errorf("sum = %s, want 6", prices[0].Add(prices[1]))
	}

	none, err := ps.PricesForItem(ctx, 5)
	if err != nil {
		t.Fatalf("prices for item: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("prices = %d, want 0", len(none))
	}
}

func TestPriceSearch(t *testing.T) {
	ps := NewPriceStore(setupTestDB(t))
	ctx := context.Background()

	// Location 12 is in Penang, location 1 in Kuala Lumpur.
	mustCreatePrice(t, ps, NewPrice{ItemID: 6, LocationID: 12, Price: decimal.NewFromInt(7), ObservedOn: "2026-03-01"})
	mustCreatePrice(t, ps, NewPrice{ItemID: 6, LocationID: 1, Price: decimal.NewFromInt(8), ObservedOn: "2026-03-02"})
	mustCreatePrice(t, ps, NewPrice{ItemID: 1, LocationID: 1, Price: decimal.NewFromInt(25), ObservedOn: "2026-03-03"})

	byCity, err := ps.Search(ctx, PriceFilter{City: "Penang"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(byCity) != 1 || byCity[0].LocationID != 12 {
		t.Errorf("by city = %+v", byCity)
	}

	byItem, err := ps.Search(ctx, PriceFilter{ItemQuery: "susu"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(byItem) != 2 {
		t.Fatalf("by item = %d, want 2", len(byItem))
	}
	if byItem[0].ObservedOn != "2026-03-02" {
		t.Errorf("first date = %q, want newest first", byItem[0].ObservedOn)
	}

	byLocation, err := ps.Search(ctx, PriceFilter{LocationID: 1})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(byLocation) != 2 {
		t.Errorf("by location = %d, want 2", len(byLocation))
	}
}
