package handler

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/savesmart/internal/model"
	"github.com/dukerupert/savesmart/internal/pricing"
	"github.com/dukerupert/savesmart/internal/store"
)

func setupCatalogHandler(t *testing.T) (*CatalogHandler, *sql.DB) {
	t.Helper()
	db := setupTestDB(t)
	prices := store.NewPriceStore(db)
	h := NewCatalogHandler(
		store.NewItemStore(db),
		store.NewLocationStore(db),
		prices,
		pricing.NewCalculator(prices, quietLogger()),
		quietLogger(),
	)
	h.now = func() time.Time { return mustTime(t, "2026-10-15") }
	return h, db
}

type locationResponse struct {
	model.Location
	Prices []struct {
		ItemID    int64           `json:"item_id"`
		ItemName  string          `json:"item_name"`
		Price     decimal.Decimal `json:"price"`
		Freshness string          `json:"freshness"`
	} `json:"prices"`
	AveragePrice  decimal.NullDecimal `json:"average_price"`
	PriceCategory string              `json:"price_category"`
}

func TestListItems(t *testing.T) {
	h, _ := setupCatalogHandler(t)

	rec := httptest.NewRecorder()
	h.ListItems(rec, httptest.NewRequest(http.MethodGet, "/api/items", nil))
	assertStatus(t, rec, http.StatusOK)

	var items []model.Item
	decodeBody(t, rec, &items)
	if len(items) != 15 {
		t.Fatalf("items = %d, want 15", len(items))
	}
	if items[0].Name != "Ayam Segar" {
		t.Errorf("first item = %q, want %q", items[0].Name, "Ayam Segar")
	}
}

func TestCreateItemCategorizes(t *testing.T) {
	h, _ := setupCatalogHandler(t)

	rec := httptest.NewRecorder()
	h.CreateItem(rec, asUser(newRequest(t, http.MethodPost, "/api/items", map[string]string{"name": "Susu Pekat"}), 1))
	assertStatus(t, rec, http.StatusCreated)

	var item model.Item
	decodeBody(t, rec, &item)
	if item.Category != "Dairy & Eggs" {
		t.Errorf("category = %q, want %q", item.Category, "Dairy & Eggs")
	}
	if item.Unit != "unit" {
		t.Errorf("unit = %q, want %q", item.Unit, "unit")
	}

	rec = httptest.NewRecorder()
	h.CreateItem(rec, newRequest(t, http.MethodPost, "/api/items", map[string]string{"name": "Susu Pekat"}))
	assertStatus(t, rec, http.StatusUnauthorized)
}

func TestListCities(t *testing.T) {
	h, _ := setupCatalogHandler(t)

	rec := httptest.NewRecorder()
	h.ListCities(rec, httptest.NewRequest(http.MethodGet, "/api/cities", nil))
	assertStatus(t, rec, http.StatusOK)

	var cities []string
	decodeBody(t, rec, &cities)
	if len(cities) == 0 || cities[0] != "Ipoh" {
		t.Errorf("cities = %v, want sorted starting with Ipoh", cities)
	}
}

func TestListLocationsWithPrices(t *testing.T) {
	h, db := setupCatalogHandler(t)

	addPrice(t, db, berasWangi, tescoPenang, "20.00", "2026-10-14")
	addPrice(t, db, berasWangi, aeonPenang, "26.00", "2026-09-20")
	addPrice(t, db, berasWangi, giantPenang, "23.10", "2026-01-01")
	addPrice(t, db, gulaPasir, giantPenang, "3.00", "2026-10-01")

	rec := httptest.NewRecorder()
	h.ListLocations(rec, httptest.NewRequest(http.MethodGet, "/api/locations?city=Penang&item=beras", nil))
	assertStatus(t, rec, http.StatusOK)

	var locs []locationResponse
	decodeBody(t, rec, &locs)
	if len(locs) != 3 {
		t.Fatalf("locations = %d, want 3", len(locs))
	}

	byID := make(map[int64]locationResponse)
	for _, l := range locs {
		byID[l.ID] = l
		if len(l.Prices) != 1 || l.Prices[0].ItemID != berasWangi {
			t.Errorf("location %d prices = %+v, want only Beras Wangi", l.ID, l.Prices)
		}
	}

	tests := []struct {
		id        int64
		category  string
		freshness string
	}{
		{tescoPenang, "low", "fresh"},
		{giantPenang, "medium", "old"},
		{aeonPenang, "high", "moderate"},
	}
	for _, tt := range tests {
		l := byID[tt.id]
		if l.PriceCategory != tt.category {
			t.Errorf("location %d category = %q, want %q", tt.id, l.PriceCategory, tt.category)
		}
		if len(l.Prices) > 0 && l.Prices[0].Freshness != tt.freshness {
			t.Errorf("location %d freshness = %q, want %q", tt.id, l.Prices[0].Freshness, tt.freshness)
		}
	}
}

func TestListLocationsWithoutItemFilterKeepsUnpriced(t *testing.T) {
	h, db := setupCatalogHandler(t)
	addPrice(t, db, berasWangi, tescoPenang, "20.00", "2026-10-14")

	rec := httptest.NewRecorder()
	h.ListLocations(rec, httptest.NewRequest(http.MethodGet, "/api/locations?city=Penang", nil))
	assertStatus(t, rec, http.StatusOK)

	var locs []locationResponse
	decodeBody(t, rec, &locs)
	if len(locs) != 3 {
		t.Fatalf("locations = %d, want 3", len(locs))
	}
	for _, l := range locs {
		if l.ID == tescoPenang {
			if !l.AveragePrice.Valid || !l.AveragePrice.Decimal.Equal(decimal.RequireFromString("20")) {
				t.Errorf("average = %v, want 20", l.AveragePrice)
			}
			continue
		}
		if l.AveragePrice.Valid || l.PriceCategory != "" {
			t.Errorf("unpriced location %d = %+v", l.ID, l)
		}
	}
}

func TestGetLocation(t *testing.T) {
	h, db := setupCatalogHandler(t)
	addPrice(t, db, berasWangi, tescoPenang, "20.00", "2026-10-14")
	addPrice(t, db, minyakMasak, tescoPenang, "7.00", "2026-10-14")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/locations/12", nil)
	req.SetPathValue("id", "12")
	h.GetLocation(rec, req)
	assertStatus(t, rec, http.StatusOK)

	var l locationResponse
	decodeBody(t, rec, &l)
	if l.Name != "Tesco Tanjung Pinang" {
		t.Errorf("name = %q", l.Name)
	}
	if len(l.Prices) != 2 {
		t.Errorf("prices = %d, want 2", len(l.Prices))
	}
	if !l.AveragePrice.Decimal.Equal(decimal.RequireFromString("13.5")) {
		t.Errorf("average = %v, want 13.5", l.AveragePrice)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/locations/9999", nil)
	req.SetPathValue("id", "9999")
	h.GetLocation(rec, req)
	assertError(t, rec, http.StatusNotFound, "location not found")

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/locations/abc", nil)
	req.SetPathValue("id", "abc")
	h.GetLocation(rec, req)
	assertError(t, rec, http.StatusBadRequest, "invalid id")
}

func TestItemAverage(t *testing.T) {
	h, db := setupCatalogHandler(t)

	get := func() map[string]any {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/items/1/average", nil)
		req.SetPathValue("id", "1")
		h.ItemAverage(rec, req)
		assertStatus(t, rec, http.StatusOK)
		var body map[string]any
		decodeBody(t, rec, &body)
		return body
	}

	if body := get(); body["available"] != false || body["average"] != nil {
		t.Errorf("no prices body = %v", body)
	}

	addPrice(t, db, berasWangi, tescoPenang, "10.00", "2026-10-01")
	addPrice(t, db, berasWangi, aeonPenang, "10.00", "2026-10-01")
	addPrice(t, db, berasWangi, giantPenang, "10.01", "2026-10-01")

	body := get()
	if body["available"] != true {
		t.Fatalf("available = %v, want true", body["available"])
	}
	if body["average"] != "10" {
		t.Errorf("average = %v, want 10 (rounded to cents)", body["average"])
	}
}

func TestItemSavings(t *testing.T) {
	h, db := setupCatalogHandler(t)
	addPrice(t, db, berasWangi, tescoPenang, "25.00", "2026-10-01")
	addPrice(t, db, berasWangi, aeonPenang, "27.00", "2026-10-01")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/items/1/savings?price_paid=23&quantity=3", nil)
	req.SetPathValue("id", "1")
	h.ItemSavings(rec, req)
	assertStatus(t, rec, http.StatusOK)

	var got struct {
		Status        string          `json:"status"`
		Savings       decimal.Decimal `json:"savings"`
		MarketAverage decimal.Decimal `json:"market_average"`
	}
	decodeBody(t, rec, &got)
	if got.Status != "available" {
		t.Errorf("status = %q, want available", got.Status)
	}
	if !got.Savings.Equal(decimal.RequireFromString("9")) {
		t.Errorf("savings = %s, want 9", got.Savings)
	}
	if !got.MarketAverage.Equal(decimal.RequireFromString("26")) {
		t.Errorf("market average = %s, want 26", got.MarketAverage)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/items/1/savings?price_paid=abc", nil)
	req.SetPathValue("id", "1")
	h.ItemSavings(rec, req)
	assertStatus(t, rec, http.StatusBadRequest)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/items/9999/savings?price_paid=1", nil)
	req.SetPathValue("id", "9999")
	h.ItemSavings(rec, req)
	assertError(t, rec, http.StatusNotFound, "item not found")
}
