package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/savesmart/internal/model"
	"github.com/dukerupert/savesmart/internal/store"
)

type FavoriteHandler struct {
	favorites *store.FavoriteStore
	logger    *slog.Logger
}

func NewFavoriteHandler(fs *store.FavoriteStore, logger *slog.Logger) *FavoriteHandler {
	return &FavoriteHandler{favorites: fs, logger: logger}
}

type favoriteRequest struct {
	LocationID int64 `json:"location_id"`
	ItemID     int64 `json:"item_id"`
}

func (req favoriteRequest) valid() bool {
	return req.LocationID > 0 && req.ItemID > 0
}

// List handles GET /api/favorites
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	favs, err := h.favorites.ListByUser(r.Context(), userID)
	h.writeFavorites(w, favs, err)
}

// ListByLocation handles GET /api/favorites/locations/{id}
func (h *FavoriteHandler) ListByLocation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	favs, err := h.favorites.ListByLocation(r.Context(), userID, id)
	h.writeFavorites(w, favs, err)
}

// ListByItem handles GET /api/favorites/items/{id}
func (h *FavoriteHandler) ListByItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	favs, err := h.favorites.ListByItem(r.Context(), userID, id)
	h.writeFavorites(w, favs, err)
}

// Check handles GET /api/favorites/check?location_id=&item_id=
func (h *FavoriteHandler) Check(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	locationID, ok1 := queryInt64(r, "location_id")
	itemID, ok2 := queryInt64(r, "item_id")
	if !ok1 || !ok2 {
		writeError(w, http.StatusBadRequest, "location_id and item_id are required")
		return
	}

	fav, err := h.favorites.IsFavorite(r.Context(), userID, locationID, itemID)
	if err != nil {
		h.logger.Error("check favorite", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to check favorite")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_favorite": fav})
}

// Add handles POST /api/favorites. Adding an existing favorite returns it
// unchanged.
func (h *FavoriteHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req favoriteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.valid() {
		writeError(w, http.StatusBadRequest, "location_id and item_id are required")
		return
	}

	fav, err := h.favorites.Add(r.Context(), userID, req.LocationID, req.ItemID)
	if err != nil {
		h.logger.Error("add favorite", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add favorite")
		return
	}
	if fav == nil {
		writeError(w, http.StatusNotFound, "unknown location or item")
		return
	}
	writeJSON(w, http.StatusCreated, fav)
}

// Toggle handles POST /api/favorites/toggle
func (h *FavoriteHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req favoriteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.valid() {
		writeError(w, http.StatusBadRequest, "location_id and item_id are required")
		return
	}

	fav, err := h.favorites.Toggle(r.Context(), userID, req.LocationID, req.ItemID)
	if err != nil {
		h.logger.Error("toggle favorite", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to toggle favorite")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_favorite": fav})
}

// Remove handles DELETE /api/favorites/{location_id}/{item_id}
func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	locationID, err1 := parsePathID(r, "location_id")
	itemID, err2 := parsePathID(r, "item_id")
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.favorites.Remove(r.Context(), userID, locationID, itemID); err != nil {
		h.logger.Error("remove favorite", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove favorite")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /api/favorites
func (h *FavoriteHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.favorites.Clear(r.Context(), userID); err != nil {
		h.logger.Error("clear favorites", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear favorites")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FavoriteHandler) writeFavorites(w http.ResponseWriter, favs []model.Favorite, err error) {
	if err != nil {
		h.logger.Error("list favorites", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list favorites")
		return
	}
	if favs == nil {
		favs = []model.Favorite{}
	}
	writeJSON(w, http.StatusOK, favs)
}
