package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/savesmart/internal/model"
)

type FavoriteStore struct {
	db *sql.DB
}

func NewFavoriteStore(db *sql.DB) *FavoriteStore {
	return &FavoriteStore{db: db}
}

func scanFavorite(scanner interface{ Scan(...any) error }) (*model.Favorite, error) {
	var f model.Favorite
	err := scanner.Scan(&f.ID, &f.UserID, &f.LocationID, &f.ItemID, &f.LocationName, &f.ItemName, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

const favoriteCols = `id, user_id, location_id, item_id, location_name, item_name, created_at`

// Add favourites a (location, item) pair for a user. Adding an existing
// favourite returns it unchanged.
func (s *FavoriteStore) Add(ctx context.Context, userID, locationID, itemID int64) (*model.Favorite, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO favorites (user_id, location_id, item_id, location_name, item_name)
		 SELECT ?, l.id, i.id, l.name, i.name FROM locations l, items i WHERE l.id = ? AND i.id = ?
		 ON CONFLICT(user_id, location_id, item_id) DO NOTHING`,
		userID, locationID, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert favorite: %w", err)
	}
	return s.Get(ctx, userID, locationID, itemID)
}

// Get returns the favourite for the triple, or nil.
func (s *FavoriteStore) Get(ctx context.Context, userID, locationID, itemID int64) (*model.Favorite, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+favoriteCols+` FROM favorites WHERE user_id = ? AND location_id = ? AND item_id = ?`,
		userID, locationID, itemID,
	)
	f, err := scanFavorite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get favorite: %w", err)
	}
	return f, nil
}

func (s *FavoriteStore) IsFavorite(ctx context.Context, userID, locationID, itemID int64) (bool, error) {
	f, err := s.Get(ctx, userID, locationID, itemID)
	if err != nil {
		return false, err
	}
	return f != nil, nil
}

func (s *FavoriteStore) Remove(ctx context.Context, userID, locationID, itemID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND location_id = ? AND item_id = ?`,
		userID, locationID, itemID,
	)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	return nil
}

// Toggle adds the favourite if absent and removes it otherwise. It reports
// whether the pair is a favourite afterwards.
func (s *FavoriteStore) Toggle(ctx context.Context, userID, locationID, itemID int64) (bool, error) {
	exists, err := s.IsFavorite(ctx, userID, locationID, itemID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, s.Remove(ctx, userID, locationID, itemID)
	}
	f, err := s.Add(ctx, userID, locationID, itemID)
	if err != nil {
		return false, err
	}
	return f != nil, nil
}

func (s *FavoriteStore) Clear(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("clear favorites: %w", err)
	}
	return nil
}

func (s *FavoriteStore) ListByUser(ctx context.Context, userID int64) ([]model.Favorite, error) {
	return s.list(ctx, `WHERE user_id = ?`, userID)
}

func (s *FavoriteStore) ListByLocation(ctx context.Context, userID, locationID int64) ([]model.Favorite, error) {
	return s.list(ctx, `WHERE user_id = ? AND location_id = ?`, userID, locationID)
}

func (s *FavoriteStore) ListByItem(ctx context.Context, userID, itemID int64) ([]model.Favorite, error) {
	return s.list(ctx, `WHERE user_id = ? AND item_id = ?`, userID, itemID)
}

// UserIDsFor returns every user who favourited the (location, item) pair.
func (s *FavoriteStore) UserIDsFor(ctx context.Context, locationID, itemID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM favorites WHERE location_id = ? AND item_id = ? ORDER BY user_id ASC`,
		locationID, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("list favorite users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan favorite user: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *FavoriteStore) list(ctx context.Context, where string, args ...any) ([]model.Favorite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+favoriteCols+` FROM favorites `+where+` ORDER BY created_at DESC, id DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var favs []model.Favorite
	for rows.Next() {
		f, err := scanFavorite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		favs = append(favs, *f)
	}
	return favs, rows.Err()
}
