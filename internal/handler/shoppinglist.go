package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/savesmart/internal/auth"
	"github.com/dukerupert/savesmart/internal/pricing"
	"github.com/dukerupert/savesmart/internal/shoppinglist"
	"github.com/dukerupert/savesmart/internal/store"
)

type ShoppingListHandler struct {
	lists    *shoppinglist.Registry
	items    *store.ItemStore
	comparer *pricing.Comparer
	logger   *slog.Logger
}

func NewShoppingListHandler(lists *shoppinglist.Registry, items *store.ItemStore, comparer *pricing.Comparer, logger *slog.Logger) *ShoppingListHandler {
	return &ShoppingListHandler{lists: lists, items: items, comparer: comparer, logger: logger}
}

type addEntryRequest struct {
	ItemID   int64 `json:"item_id"`
	Quantity *int  `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// comparisonResponse carries the recommendation thresholds next to the
// comparison so clients can explain a missing recommendation.
type comparisonResponse struct {
	pricing.Comparison
	MinCoveragePercent int `json:"min_coverage_percent"`
	MinLocations       int `json:"min_locations"`
}

// list returns the shopping list of the requesting device.
func (h *ShoppingListHandler) list(r *http.Request) *shoppinglist.Store {
	return h.lists.For(auth.DeviceID(r.Context()))
}

// List handles GET /api/shopping-list
func (h *ShoppingListHandler) List(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, http.StatusOK)
}

// Add handles POST /api/shopping-list
func (h *ShoppingListHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	item, err := h.items.GetByID(r.Context(), req.ItemID)
	if err != nil {
		h.logger.Error("get item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add item")
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}

	if _, err := h.list(r).Add(r.Context(), *item, quantity); err != nil {
		h.writeListError(w, err, "failed to add item")
		return
	}
	h.writeList(w, r, http.StatusCreated)
}

// SetQuantity handles PUT /api/shopping-list/{id}. Zero removes the entry.
func (h *ShoppingListHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.list(r).SetQuantity(r.Context(), r.PathValue("id"), req.Quantity); err != nil {
		h.writeListError(w, err, "failed to update item")
		return
	}
	h.writeList(w, r, http.StatusOK)
}

// Remove handles DELETE /api/shopping-list/{id}
func (h *ShoppingListHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.list(r).Remove(r.Context(), r.PathValue("id")); err != nil {
		h.writeListError(w, err, "failed to remove item")
		return
	}
	h.writeList(w, r, http.StatusOK)
}

// Clear handles DELETE /api/shopping-list
func (h *ShoppingListHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.list(r).Clear(r.Context()); err != nil {
		h.writeListError(w, err, "failed to clear list")
		return
	}
	h.writeList(w, r, http.StatusOK)
}

// Compare handles GET /api/shopping-list/compare
func (h *ShoppingListHandler) Compare(w http.ResponseWriter, r *http.Request) {
	entries, err := h.list(r).List(r.Context())
	if err != nil {
		h.writeListError(w, err, "failed to load list")
		return
	}

	writeJSON(w, http.StatusOK, comparisonResponse{
		Comparison:         h.comparer.Compare(r.Context(), entries),
		MinCoveragePercent: pricing.MinCoveragePercent,
		MinLocations:       pricing.MinLocations,
	})
}

func (h *ShoppingListHandler) writeList(w http.ResponseWriter, r *http.Request, status int) {
	entries, err := h.list(r).List(r.Context())
	if err != nil {
		h.writeListError(w, err, "failed to load list")
		return
	}
	writeJSON(w, status, entries)
}

func (h *ShoppingListHandler) writeListError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, shoppinglist.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shoppinglist.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(msg, "error", err)
		writeError(w, http.StatusInternalServerError, msg)
	}
}
