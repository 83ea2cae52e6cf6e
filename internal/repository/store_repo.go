package repository

import (
	"context"
	"database/sql"
	"errors"

	"checkout-service/internal/models"
)

// StoreRepo resolves pickup coordinates for the marketplace's two store
// kinds. Restaurants are tried first, then grocery stores; a store with
// no coordinates resolves to (nil, nil).
type StoreRepo struct {
	db *sql.DB
}

func NewStoreRepo(db *sql.DB) *StoreRepo {
	return &StoreRepo{db: db}
}

func (r *StoreRepo) GetPickupCoords(ctx context.Context, storeID string) (*models.LatLng, error) {
	tables := []string{"restaurants", "grocery_stores"}
	for _, table := range tables {
		query := `SELECT lat, lng FROM ` + table + ` WHERE id = $1`
		var lat, lng sql.NullFloat64
		err := r.db.QueryRowContext(ctx, query, storeID).Scan(&lat, &lng)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, err
		}
		if !lat.Valid || !lng.Valid {
			return nil, nil
		}
		return &models.LatLng{Lat: lat.Float64, Lng: lng.Float64}, nil
	}
	return nil, nil
}
