package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/savesmart/internal/catalog"
	"github.com/dukerupert/savesmart/internal/model"
	"github.com/dukerupert/savesmart/internal/pricing"
	"github.com/dukerupert/savesmart/internal/store"
)

type CatalogHandler struct {
	items     *store.ItemStore
	locations *store.LocationStore
	prices    *store.PriceStore
	calc      *pricing.Calculator
	now       func() time.Time
	logger    *slog.Logger
}

func NewCatalogHandler(items *store.ItemStore, locations *store.LocationStore, prices *store.PriceStore, calc *pricing.Calculator, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		items:     items,
		locations: locations,
		prices:    prices,
		calc:      calc,
		now:       time.Now,
		logger:    logger,
	}
}

// priceView is a price observation as listed under a location.
type priceView struct {
	ID         int64             `json:"id"`
	ItemID     int64             `json:"item_id"`
	ItemName   string            `json:"item_name"`
	ItemBrand  string            `json:"item_brand"`
	ItemUnit   string            `json:"item_unit"`
	Category   string            `json:"category"`
	Price      decimal.Decimal   `json:"price"`
	Date       string            `json:"date"`
	ReceiptURL string            `json:"receipt_url,omitempty"`
	Freshness  pricing.Freshness `json:"freshness"`
}

type locationView struct {
	model.Location
	Prices        []priceView           `json:"prices"`
	AveragePrice  decimal.NullDecimal   `json:"average_price"`
	PriceCategory pricing.PriceCategory `json:"price_category,omitempty"`
}

// ListItems handles GET /api/items
func (h *CatalogHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List(r.Context())
	if err != nil {
		h.logger.Error("list items", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

type createItemRequest struct {
	Name     string `json:"name"`
	Brand    string `json:"brand"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
}

// CreateItem handles POST /api/items. A missing category is inferred from
// the name.
func (h *CatalogHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	var req createItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Unit == "" {
		req.Unit = "unit"
	}
	if req.Category == "" {
		req.Category = catalog.Categorize(req.Name)
	}

	item, err := h.items.Create(r.Context(), req.Name, strings.TrimSpace(req.Brand), req.Unit, req.Category)
	if err != nil {
		h.logger.Error("create item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create item")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// ListCities handles GET /api/cities
func (h *CatalogHandler) ListCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.locations.Cities(r.Context())
	if err != nil {
		h.logger.Error("list cities", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list cities")
		return
	}
	if cities == nil {
		cities = []string{}
	}
	writeJSON(w, http.StatusOK, cities)
}

// ListLocations handles GET /api/locations?type=&city=&item=
//
// With an item filter only locations pricing a matching item are returned.
func (h *CatalogHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	locType := q.Get("type")
	city := q.Get("city")
	itemQuery := strings.TrimSpace(q.Get("item"))

	locations, err := h.locations.Search(r.Context(), store.LocationFilter{Type: locType, City: city})
	if err != nil {
		h.logger.Error("search locations", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list locations")
		return
	}

	obs, err := h.prices.Search(r.Context(), store.PriceFilter{LocationType: locType, City: city, ItemQuery: itemQuery})
	if err != nil {
		h.logger.Error("search prices", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list locations")
		return
	}

	byLocation := make(map[int64][]model.PriceObservation)
	for _, o := range obs {
		byLocation[o.LocationID] = append(byLocation[o.LocationID], o)
	}

	now := h.now()
	views := make([]locationView, 0, len(locations))
	for _, l := range locations {
		prices := byLocation[l.ID]
		if itemQuery != "" && len(prices) == 0 {
			continue
		}
		views = append(views, newLocationView(l, prices, now))
	}
	categorize(views)

	writeJSON(w, http.StatusOK, views)
}

// GetLocation handles GET /api/locations/{id}
func (h *CatalogHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	loc, err := h.locations.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get location", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load location")
		return
	}
	if loc == nil {
		writeError(w, http.StatusNotFound, "location not found")
		return
	}

	obs, err := h.prices.Search(r.Context(), store.PriceFilter{LocationID: id})
	if err != nil {
		h.logger.Error("location prices", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load location")
		return
	}
	writeJSON(w, http.StatusOK, newLocationView(*loc, obs, h.now()))
}

// ItemAverage handles GET /api/items/{id}/average
func (h *CatalogHandler) ItemAverage(w http.ResponseWriter, r *http.Request) {
	item, ok := h.loadItem(w, r)
	if !ok {
		return
	}

	avg, err := h.calc.MarketAverage(r.Context(), item.ID)
	if err != nil {
		h.logger.Error("market average", "item_id", item.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute market average")
		return
	}

	resp := map[string]any{
		"item_id":   item.ID,
		"item_name": item.Name,
		"available": avg.Available,
		"average":   nil,
	}
	if avg.Available {
		resp["average"] = avg.Rounded()
	}
	writeJSON(w, http.StatusOK, resp)
}

// ItemSavings handles GET /api/items/{id}/savings?price_paid=&quantity=
func (h *CatalogHandler) ItemSavings(w http.ResponseWriter, r *http.Request) {
	item, ok := h.loadItem(w, r)
	if !ok {
		return
	}

	paid, err := decimal.NewFromString(r.URL.Query().Get("price_paid"))
	if err != nil || paid.IsNegative() {
		writeError(w, http.StatusBadRequest, "price_paid must be a non-negative number")
		return
	}
	quantity := 1
	if s := r.URL.Query().Get("quantity"); s != "" {
		quantity, err = strconv.Atoi(s)
		if err != nil || quantity < 1 {
			writeError(w, http.StatusBadRequest, "quantity must be a positive integer")
			return
		}
	}

	writeJSON(w, http.StatusOK, h.calc.PurchaseSavings(r.Context(), item.ID, paid, quantity))
}

func (h *CatalogHandler) loadItem(w http.ResponseWriter, r *http.Request) (*model.Item, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	item, err := h.items.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load item")
		return nil, false
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "item not found")
		return nil, false
	}
	return item, true
}

func newLocationView(l model.Location, obs []model.PriceObservation, now time.Time) locationView {
	v := locationView{Location: l, Prices: make([]priceView, 0, len(obs))}
	var sum []decimal.Decimal
	for _, o := range obs {
		v.Prices = append(v.Prices, priceView{
			ID:         o.ID,
			ItemID:     o.ItemID,
			ItemName:   o.Item.Name,
			ItemBrand:  o.Item.Brand,
			ItemUnit:   o.Item.Unit,
			Category:   o.Item.Category,
			Price:      o.Price,
			Date:       o.ObservedOn,
			ReceiptURL: o.ReceiptURL,
			Freshness:  pricing.FreshnessOf(o.ObservedOn, now),
		})
		sum = append(sum, o.Price)
	}
	if avg := pricing.MarketAverage(sum); avg.Available {
		v.AveragePrice = decimal.NewNullDecimal(avg.Rounded())
	}
	return v
}

// categorize assigns each priced location a category by thirds of the
// min-max range of averages across views.
func categorize(views []locationView) {
	var lo, hi decimal.Decimal
	found := false
	for _, v := range views {
		if !v.AveragePrice.Valid {
			continue
		}
		a := v.AveragePrice.Decimal
		if !found {
			lo, hi, found = a, a, true
			continue
		}
		lo = decimal.Min(lo, a)
		hi = decimal.Max(hi, a)
	}
	for i := range views {
		if views[i].AveragePrice.Valid {
			views[i].PriceCategory = pricing.Categorize(views[i].AveragePrice.Decimal, lo, hi)
		}
	}
}
