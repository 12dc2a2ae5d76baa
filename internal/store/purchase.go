package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/savesmart/internal/model"
	"github.com/shopspring/decimal"
)

// NewPurchase is a purchase to log for a user.
type NewPurchase struct {
	ItemID       int64
	LocationID   int64
	PricePaid    decimal.Decimal
	Quantity     int
	PurchaseDate string
	Notes        string
}

type PurchaseStore struct {
	db *sql.DB
}

func NewPurchaseStore(db *sql.DB) *PurchaseStore {
	return &PurchaseStore{db: db}
}

func scanPurchase(scanner interface{ Scan(...any) error }) (*model.Purchase, error) {
	var p model.Purchase
	var it model.Item
	var loc model.Location
	var lat, lng sql.NullFloat64
	err := scanner.Scan(
		&p.ID, &p.UserID, &p.ItemID, &p.LocationID, &p.PricePaid, &p.Quantity, &p.PurchaseDate, &p.Notes, &p.CreatedAt,
		&it.ID, &it.Name, &it.Brand, &it.Unit, &it.Category, &it.CreatedAt,
		&loc.ID, &loc.Name, &loc.Address, &loc.City, &loc.Type, &lat, &lng, &loc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lat.Valid {
		loc.Latitude = &lat.Float64
	}
	if lng.Valid {
		loc.Longitude = &lng.Float64
	}
	p.Item = &it
	p.Location = &loc
	return &p, nil
}

const purchaseJoinCols = `p.id, p.user_id, p.item_id, p.location_id, p.price_paid, p.quantity, p.purchase_date, p.notes, p.created_at,
	i.id, i.name, i.brand, i.unit, i.category, i.created_at,
	l.id, l.name, l.address, l.city, l.type, l.latitude, l.longitude, l.created_at`

const purchaseJoin = ` FROM purchases p
	JOIN items i ON i.id = p.item_id
	JOIN locations l ON l.id = p.location_id`

func (s *PurchaseStore) Create(ctx context.Context, userID int64, in NewPurchase) (*model.Purchase, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO purchases (user_id, item_id, location_id, price_paid, quantity, purchase_date, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, in.ItemID, in.LocationID, in.PricePaid, in.Quantity, in.PurchaseDate, in.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert purchase: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *PurchaseStore) GetByID(ctx context.Context, id int64) (*model.Purchase, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+purchaseJoinCols+purchaseJoin+` WHERE p.id = ?`, id)
	p, err := scanPurchase(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get purchase: %w", err)
	}
	return p, nil
}

// ListByUser returns a user's purchases, most recent purchase date first.
func (s *PurchaseStore) ListByUser(ctx context.Context, userID int64) ([]model.Purchase, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+purchaseJoinCols+purchaseJoin+` WHERE p.user_id = ? ORDER BY p.purchase_date DESC, p.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []model.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		purchases = append(purchases, *p)
	}
	return purchases, rows.Err()
}

// Delete removes a purchase owned by userID. It reports false when no such
// purchase exists for that user.
func (s *PurchaseStore) Delete(ctx context.Context, id, userID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM purchases WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete purchase: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
