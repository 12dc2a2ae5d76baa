package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/savesmart/internal/model"
)

// LocationFilter narrows a location search. Empty fields match everything.
type LocationFilter struct {
	Type string
	City string
}

type LocationStore struct {
	db *sql.DB
}

func NewLocationStore(db *sql.DB) *LocationStore {
	return &LocationStore{db: db}
}

func scanLocation(scanner interface{ Scan(...any) error }) (*model.Location, error) {
	var l model.Location
	var lat, lng sql.NullFloat64
	err := scanner.Scan(&l.ID, &l.Name, &l.Address, &l.City, &l.Type, &lat, &lng, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	if lat.Valid {
		l.Latitude = &lat.Float64
	}
	if lng.Valid {
		l.Longitude = &lng.Float64
	}
	return &l, nil
}

const locationCols = `id, name, address, city, type, latitude, longitude, created_at`

func (s *LocationStore) Create(ctx context.Context, l model.Location) (*model.Location, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO locations (name, address, city, type, latitude, longitude) VALUES (?, ?, ?, ?, ?, ?)`,
		l.Name, l.Address, l.City, l.Type, l.Latitude, l.Longitude,
	)
	if err != nil {
		return nil, fmt.Errorf("insert location: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *LocationStore) GetByID(ctx context.Context, id int64) (*model.Location, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+locationCols+` FROM locations WHERE id = ?`, id)
	l, err := scanLocation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	return l, nil
}

// Search lists locations matching f, ordered by name.
func (s *LocationStore) Search(ctx context.Context, f LocationFilter) ([]model.Location, error) {
	var where []string
	var args []any
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, f.Type)
	}
	if f.City != "" {
		where = append(where, "city = ?")
		args = append(args, f.City)
	}
	query := `SELECT ` + locationCols + ` FROM locations`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search locations: %w", err)
	}
	defer rows.Close()

	var locations []model.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, *l)
	}
	return locations, rows.Err()
}

// Cities returns the distinct cities with at least one location.
func (s *LocationStore) Cities(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT city FROM locations WHERE city != '' ORDER BY city ASC`)
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	defer rows.Close()

	var cities []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan city: %w", err)
		}
		cities = append(cities, c)
	}
	return cities, rows.Err()
}
