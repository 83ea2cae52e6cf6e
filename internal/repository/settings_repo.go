package repository

import (
	"context"
	"database/sql"
	"errors"

	"checkout-service/internal/pricing"
)

// SettingsRepo reads and writes the single pricing settings row. A
// missing row yields the built-in defaults.
type SettingsRepo struct {
	db *sql.DB
}

func NewSettingsRepo(db *sql.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

func (r *SettingsRepo) Load(ctx context.Context) (pricing.Settings, error) {
	s := pricing.DefaultSettings()
	query := `
		SELECT delivery_base_fee, free_delivery_threshold, tax_rate
		FROM system_settings
		ORDER BY id
		LIMIT 1
	`
	err := r.db.QueryRowContext(ctx, query).Scan(
		&s.DeliveryBaseFee, &s.FreeDeliveryThreshold, &s.TaxRate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pricing.DefaultSettings(), nil
		}
		return pricing.DefaultSettings(), err
	}
	return s, nil
}

func (r *SettingsRepo) Save(ctx context.Context, s pricing.Settings) error {
	query := `
		INSERT INTO system_settings (id, delivery_base_fee, free_delivery_threshold, tax_rate, updated_at)
		VALUES (1, $1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE
		SET delivery_base_fee = EXCLUDED.delivery_base_fee,
		    free_delivery_threshold = EXCLUDED.free_delivery_threshold,
		    tax_rate = EXCLUDED.tax_rate,
		    updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, s.DeliveryBaseFee, s.FreeDeliveryThreshold, s.TaxRate)
	return err
}
