package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/savesmart/internal/model"
	"github.com/dukerupert/savesmart/internal/pricing"
	"github.com/dukerupert/savesmart/internal/store"
)

type PurchaseHandler struct {
	purchases *store.PurchaseStore
	items     *store.ItemStore
	locations *store.LocationStore
	calc      *pricing.Calculator
	now       func() time.Time
	logger    *slog.Logger
}

func NewPurchaseHandler(purchases *store.PurchaseStore, items *store.ItemStore, locations *store.LocationStore, calc *pricing.Calculator, logger *slog.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		purchases: purchases,
		items:     items,
		locations: locations,
		calc:      calc,
		now:       time.Now,
		logger:    logger,
	}
}

type createPurchaseRequest struct {
	ItemID       int64           `json:"item_id"`
	LocationID   int64           `json:"location_id"`
	PricePaid    decimal.Decimal `json:"price_paid"`
	Quantity     *int            `json:"quantity"`
	PurchaseDate string          `json:"purchase_date"`
	Notes        string          `json:"notes"`
}

// Create handles POST /api/purchases
func (h *PurchaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createPurchaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.ItemID == 0 || req.LocationID == 0 {
		writeError(w, http.StatusBadRequest, "item_id and location_id are required")
		return
	}
	if !req.PricePaid.IsPositive() {
		writeError(w, http.StatusBadRequest, "price_paid must be a positive number")
		return
	}
	if !pricing.WithinMoneyPlaces(req.PricePaid) {
		writeError(w, http.StatusBadRequest, "price_paid must have at most 2 decimal places")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity < 1 {
		writeError(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}
	date, ok := parseDate(req.PurchaseDate, h.now())
	if !ok {
		writeError(w, http.StatusBadRequest, "purchase_date must be YYYY-MM-DD")
		return
	}

	item, err := h.items.GetByID(r.Context(), req.ItemID)
	if err != nil {
		h.logger.Error("get item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record purchase")
		return
	}
	loc, err := h.locations.GetByID(r.Context(), req.LocationID)
	if err != nil {
		h.logger.Error("get location", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record purchase")
		return
	}
	if item == nil || loc == nil {
		writeError(w, http.StatusBadRequest, "unknown item or location")
		return
	}

	p, err := h.purchases.Create(r.Context(), userID, store.NewPurchase{
		ItemID:       req.ItemID,
		LocationID:   req.LocationID,
		PricePaid:    req.PricePaid,
		Quantity:     quantity,
		PurchaseDate: date,
		Notes:        strings.TrimSpace(req.Notes),
	})
	if err != nil {
		h.logger.Error("create purchase", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record purchase")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"purchase": p,
		"savings":  h.calc.PurchaseSavings(r.Context(), p.ItemID, p.PricePaid, p.Quantity),
	})
}

// List handles GET /api/purchases
func (h *PurchaseHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	purchases, err := h.purchases.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("list purchases", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list purchases")
		return
	}
	if purchases == nil {
		purchases = []model.Purchase{}
	}
	writeJSON(w, http.StatusOK, purchases)
}

// Delete handles DELETE /api/purchases/{id}
func (h *PurchaseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	deleted, err := h.purchases.Delete(r.Context(), id, userID)
	if err != nil {
		h.logger.Error("delete purchase", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete purchase")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "purchase not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Summary handles GET /api/purchases/summary
func (h *PurchaseHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	purchases, err := h.purchases.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("list purchases", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to summarize purchases")
		return
	}
	writeJSON(w, http.StatusOK, h.calc.Summarize(r.Context(), purchases))
}
