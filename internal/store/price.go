package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/savesmart/internal/model"
	"github.com/shopspring/decimal"
)

// NewPrice is a price observation to record. SubmittedBy is zero for
// observations without a submitting user.
type NewPrice struct {
	ItemID      int64
	LocationID  int64
	Price       decimal.Decimal
	ObservedOn  string
	ReceiptURL  string
	SubmittedBy int64
}

// PriceChange is a recorded observation together with the price that was
// latest for the same location and item before it. Previous is invalid when
// the pair had no earlier observation.
type PriceChange struct {
	Observation *model.PriceObservation
	Previous    decimal.NullDecimal
}

// Changed reports whether the new observation differs from the previous one.
func (c *PriceChange) Changed() bool {
	return c.Previous.Valid && !c.Previous.Decimal.Equal(c.Observation.Price)
}

// PriceFilter narrows a price search. Empty fields match everything.
type PriceFilter struct {
	LocationID   int64
	LocationType string
	City         string
	ItemQuery    string
}

type PriceStore struct {
	db *sql.DB
}

func NewPriceStore(db *sql.DB) *PriceStore {
	return &PriceStore{db: db}
}

func scanPriceObservation(scanner interface{ Scan(...any) error }) (*model.PriceObservation, error) {
	var p model.PriceObservation
	var submittedBy sql.NullInt64
	var lat, lng sql.NullFloat64
	err := scanner.Scan(
		&p.ID, &p.ItemID, &p.LocationID, &p.Price, &p.ObservedOn, &p.ReceiptURL, &submittedBy, &p.CreatedAt,
		&p.Item.ID, &p.Item.Name, &p.Item.Brand, &p.Item.Unit, &p.Item.Category, &p.Item.CreatedAt,
		&p.Location.ID, &p.Location.Name, &p.Location.Address, &p.Location.City, &p.Location.Type, &lat, &lng, &p.Location.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if submittedBy.Valid {
		p.SubmittedBy = &submittedBy.Int64
	}
	if lat.Valid {
		p.Location.Latitude = &lat.Float64
	}
	if lng.Valid {
		p.Location.Longitude = &lng.Float64
	}
	return &p, nil
}

const priceJoinCols = `p.id, p.item_id, p.location_id, p.price, p.observed_on, p.receipt_url, p.submitted_by, p.created_at,
	i.id, i.name, i.brand, i.unit, i.category, i.created_at,
	l.id, l.name, l.address, l.city, l.type, l.latitude, l.longitude, l.created_at`

const priceJoin = ` FROM prices p
	JOIN items i ON i.id = p.item_id
	JOIN locations l ON l.id = p.location_id`

func collectObservations(rows *sql.Rows) ([]model.PriceObservation, error) {
	var out []model.PriceObservation
	for rows.Next() {
		p, err := scanPriceObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Create records a price observation and, for a signed-in submitter, its
// submission log entry. Both writes share one transaction.
func (s *PriceStore) Create(ctx context.Context, in NewPrice) (*PriceChange, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var previous decimal.NullDecimal
	err = tx.QueryRowContext(ctx,
		`SELECT price FROM prices WHERE location_id = ? AND item_id = ?
		 ORDER BY observed_on DESC, id DESC LIMIT 1`,
		in.LocationID, in.ItemID,
	).Scan(&previous)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("get previous price: %w", err)
	}

	var submittedBy any
	if in.SubmittedBy != 0 {
		submittedBy = in.SubmittedBy
	}
	result, err := tx.ExecContext(ctx,
		`INSERT INTO prices (item_id, location_id, price, observed_on, receipt_url, submitted_by)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		in.ItemID, in.LocationID, in.Price, in.ObservedOn, in.ReceiptURL, submittedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert price: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if in.SubmittedBy != 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO user_submissions (user_id, price_id, item_id, location_id, price, observed_on, receipt_url)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			in.SubmittedBy, id, in.ItemID, in.LocationID, in.Price, in.ObservedOn, in.ReceiptURL,
		)
		if err != nil {
			return nil, fmt.Errorf("insert submission: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit price: %w", err)
	}

	obs, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PriceChange{Observation: obs, Previous: previous}, nil
}

func (s *PriceStore) GetByID(ctx context.Context, id int64) (*model.PriceObservation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+priceJoinCols+priceJoin+` WHERE p.id = ?`, id)
	p, err := scanPriceObservation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get price: %w", err)
	}
	return p, nil
}

// PricesForItems returns every observation of the given items in insertion
// order, with Item and Location populated.
func (s *PriceStore) PricesForItems(ctx context.Context, itemIDs []int64) ([]model.PriceObservation, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(itemIDs))
	args := make([]any, len(itemIDs))
	for i, id := range itemIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+priceJoinCols+priceJoin+
			` WHERE p.item_id IN (`+strings.Join(placeholders, ",")+`) ORDER BY p.id ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list prices for items: %w", err)
	}
	defer rows.Close()
	return collectObservations(rows)
}

// PricesForItem returns every recorded price of one item across all
// locations and dates.
func (s *PriceStore) PricesForItem(ctx context.Context, itemID int64) ([]decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT price FROM prices WHERE item_id = ? ORDER BY id ASC`, itemID)
	if err != nil {
		return nil, fmt.Errorf("list prices for item: %w", err)
	}
	defer rows.Close()

	var prices []decimal.Decimal
	for rows.Next() {
		var d decimal.Decimal
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		prices = append(prices, d)
	}
	return prices, rows.Err()
}

// Search lists observations matching f, newest observation first. ItemQuery
// matches item names case-insensitively.
func (s *PriceStore) Search(ctx context.Context, f PriceFilter) ([]model.PriceObservation, error) {
	var where []string
	var args []any
	if f.LocationID != 0 {
		where = append(where, "p.location_id = ?")
		args = append(args, f.LocationID)
	}
	if f.LocationType != "" {
		where = append(where, "l.type = ?")
		args = append(args, f.LocationType)
	}
	if f.City != "" {
		where = append(where, "l.city = ?")
		args = append(args, f.City)
	}
	if q := strings.TrimSpace(f.ItemQuery); q != "" {
		where = append(where, "LOWER(i.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q)+"%")
	}
	query := `SELECT ` + priceJoinCols + priceJoin
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY p.observed_on DESC, p.id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search prices: %w", err)
	}
	defer rows.Close()
	return collectObservations(rows)
}

func scanSubmission(scanner interface{ Scan(...any) error }) (*model.Submission, error) {
	var sub model.Submission
	err := scanner.Scan(&sub.ID, &sub.UserID, &sub.Type, &sub.Status, &sub.PriceID, &sub.ItemID,
		&sub.LocationID, &sub.Price, &sub.ObservedOn, &sub.ReceiptURL, &sub.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

const submissionCols = `id, user_id, submission_type, status, price_id, item_id, location_id, price, observed_on, receipt_url, created_at`

// ListSubmissions returns a user's submission history, newest first.
func (s *PriceStore) ListSubmissions(ctx context.Context, userID int64) ([]model.Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+submissionCols+` FROM user_submissions WHERE user_id = ? ORDER BY id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}
