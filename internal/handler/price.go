package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/savesmart/internal/model"
	"github.com/dukerupert/savesmart/internal/pricing"
	"github.com/dukerupert/savesmart/internal/receipt"
	"github.com/dukerupert/savesmart/internal/store"
)

// maxSubmissionBody bounds a multipart price submission: the receipt plus
// room for the form fields.
const maxSubmissionBody = receipt.MaxSize + 1<<20

// ReceiptStore keeps uploaded receipt images.
type ReceiptStore interface {
	Enabled() bool
	Upload(ctx context.Context, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

// PriceNotifier is told about every recorded price.
type PriceNotifier interface {
	PriceChanged(ctx context.Context, change *store.PriceChange, submitterID int64) (int, error)
}

type PriceHandler struct {
	prices    *store.PriceStore
	items     *store.ItemStore
	locations *store.LocationStore
	receipts  ReceiptStore
	notifier  PriceNotifier
	now       func() time.Time
	logger    *slog.Logger
}

func NewPriceHandler(prices *store.PriceStore, items *store.ItemStore, locations *store.LocationStore, receipts ReceiptStore, notifier PriceNotifier, logger *slog.Logger) *PriceHandler {
	return &PriceHandler{
		prices:    prices,
		items:     items,
		locations: locations,
		receipts:  receipts,
		notifier:  notifier,
		now:       time.Now,
		logger:    logger,
	}
}

// Submit handles POST /api/prices (multipart: item_id, location_id, price,
// date, optional receipt).
func (h *PriceHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSubmissionBody)
	if err := r.ParseMultipartForm(maxSubmissionBody); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, receipt.ErrTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	itemID, err := strconv.ParseInt(r.FormValue("item_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "item_id is required")
		return
	}
	locationID, err := strconv.ParseInt(r.FormValue("location_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "location_id is required")
		return
	}
	price, err := decimal.NewFromString(r.FormValue("price"))
	if err != nil || !price.IsPositive() {
		writeError(w, http.StatusBadRequest, "price must be a positive number")
		return
	}
	if !pricing.WithinMoneyPlaces(price) {
		writeError(w, http.StatusBadRequest, "price must have at most 2 decimal places")
		return
	}
	date, ok := parseDate(r.FormValue("date"), h.now())
	if !ok {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	if !h.exists(w, r, itemID, locationID) {
		return
	}

	receiptURL, ok := h.uploadReceipt(w, r)
	if !ok {
		return
	}

	change, err := h.prices.Create(r.Context(), store.NewPrice{
		ItemID:      itemID,
		LocationID:  locationID,
		Price:       price,
		ObservedOn:  date,
		ReceiptURL:  receiptURL,
		SubmittedBy: userID,
	})
	if err != nil {
		h.logger.Error("create price", "error", err)
		if receiptURL != "" {
			if err := h.receipts.Delete(r.Context(), receiptURL); err != nil {
				h.logger.Warn("delete orphaned receipt", "url", receiptURL, "error", err)
			}
		}
		writeError(w, http.StatusInternalServerError, "failed to save price")
		return
	}

	notified := 0
	if h.notifier != nil {
		notified, err = h.notifier.PriceChanged(r.Context(), change, userID)
		if err != nil {
			h.logger.Error("notify price change", "price_id", change.Observation.ID, "error", err)
		}
	}

	h.logger.Info("price submitted",
		"price_id", change.Observation.ID,
		"item_id", itemID,
		"location_id", locationID,
		"notified", notified,
	)
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":        true,
		"price":          change.Observation,
		"previous_price": change.Previous,
		"notified":       notified,
	})
}

// Submissions handles GET /api/submissions
func (h *PriceHandler) Submissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	subs, err := h.prices.ListSubmissions(r.Context(), userID)
	if err != nil {
		h.logger.Error("list submissions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list submissions")
		return
	}
	if subs == nil {
		subs = []model.Submission{}
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *PriceHandler) exists(w http.ResponseWriter, r *http.Request, itemID, locationID int64) bool {
	item, err := h.items.GetByID(r.Context(), itemID)
	if err != nil {
		h.logger.Error("get item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save price")
		return false
	}
	if item == nil {
		writeError(w, http.StatusBadRequest, "unknown item")
		return false
	}

	loc, err := h.locations.GetByID(r.Context(), locationID)
	if err != nil {
		h.logger.Error("get location", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save price")
		return false
	}
	if loc == nil {
		writeError(w, http.StatusBadRequest, "unknown location")
		return false
	}
	return true
}

// uploadReceipt stores the optional receipt file and returns its URL.
func (h *PriceHandler) uploadReceipt(w http.ResponseWriter, r *http.Request) (string, bool) {
	file, header, err := r.FormFile("receipt")
	if errors.Is(err, http.ErrMissingFile) {
		return "", true
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid receipt")
		return "", false
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	switch err := receipt.Validate(header.Size, contentType); {
	case errors.Is(err, receipt.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return "", false
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}

	if h.receipts == nil || !h.receipts.Enabled() {
		writeError(w, http.StatusServiceUnavailable, receipt.ErrNotConfigured.Error())
		return "", false
	}

	url, err := h.receipts.Upload(r.Context(), file, header.Size, contentType)
	if err != nil {
		h.logger.Error("upload receipt", "error", err)
		writeError(w, http.StatusBadGateway, "receipt upload failed")
		return "", false
	}
	return url, true
}
