package repository

import (
	"context"
	"database/sql"
	"errors"

	"checkout-service/internal/models"
)

type CouponRepo struct {
	db *sql.DB
}

func NewCouponRepo(db *sql.DB) *CouponRepo {
	return &CouponRepo{db: db}
}

const couponColumns = `id, code, kind, value, active, min_order_amount, max_discount,
	       starts_at, expires_at, usage_limit_total, usage_limit_per_user,
	       used_count, created_at, updated_at`

// GetByCode fetches a coupon by its already-normalized code. A missing
// coupon is (nil, nil), not an error.
func (r *CouponRepo) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	query := `
		SELECT ` + couponColumns + `
		FROM coupons
		WHERE code = $1
	`
	c, err := scanCoupon(r.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *CouponRepo) GetByID(ctx context.Context, id int) (*models.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`
	c, err := scanCoupon(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *CouponRepo) List(ctx context.Context) ([]models.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coupons []models.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, *c)
	}
	return coupons, rows.Err()
}

func (r *CouponRepo) Create(ctx context.Context, c *models.Coupon) (int, error) {
	query := `
		INSERT INTO coupons
		(code, kind, value, active, min_order_amount, max_discount,
		 starts_at, expires_at, usage_limit_total, usage_limit_per_user,
		 used_count, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,0,NOW(),NOW())
		RETURNING id
	`
	var id int
	err := r.db.QueryRowContext(ctx, query,
		c.Code, c.Kind, c.Value, c.Active, c.MinOrderAmount, c.MaxDiscount,
		c.StartsAt, c.ExpiresAt, c.UsageLimitTotal, c.UsageLimitPerUser,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *CouponRepo) Update(ctx context.Context, c *models.Coupon) error {
	query := `
		UPDATE coupons
		SET code = $1, kind = $2, value = $3, active = $4,
		    min_order_amount = $5, max_discount = $6,
		    starts_at = $7, expires_at = $8,
		    usage_limit_total = $9, usage_limit_per_user = $10,
		    updated_at = NOW()
		WHERE id = $11
	`
	res, err := r.db.ExecContext(ctx, query,
		c.Code, c.Kind, c.Value, c.Active, c.MinOrderAmount, c.MaxDiscount,
		c.StartsAt, c.ExpiresAt, c.UsageLimitTotal, c.UsageLimitPerUser, c.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}

func (r *CouponRepo) Delete(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCoupon(row rowScanner) (*models.Coupon, error) {
	var c models.Coupon
	var startsAt, expiresAt sql.NullTime
	err := row.Scan(
		&c.ID, &c.Code, &c.Kind, &c.Value, &c.Active,
		&c.MinOrderAmount, &c.MaxDiscount,
		&startsAt, &expiresAt,
		&c.UsageLimitTotal, &c.UsageLimitPerUser,
		&c.UsedCount, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if startsAt.Valid {
		c.StartsAt = &startsAt.Time
	}
	if expiresAt.Valid {
		c.ExpiresAt = &expiresAt.Time
	}
	return &c, nil
}
