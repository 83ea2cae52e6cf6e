package repository

import (
	"context"
	"database/sql"

	"checkout-service/internal/models"
)

// RedemptionRepo stores the append-only evidence that a coupon was
// consumed by an order. The authoritative usage count is always a COUNT
// over these rows, never a mutable counter the client could race.
type RedemptionRepo struct {
	db *sql.DB
}

func NewRedemptionRepo(db *sql.DB) *RedemptionRepo {
	return &RedemptionRepo{db: db}
}

func (r *RedemptionRepo) CountForCoupon(ctx context.Context, couponID int) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM coupon_redemptions WHERE coupon_id = $1`, couponID,
	).Scan(&n)
	return n, err
}

func (r *RedemptionRepo) CountForUser(ctx context.Context, couponID int, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM coupon_redemptions WHERE coupon_id = $1 AND user_id = $2`,
		couponID, userID,
	).Scan(&n)
	return n, err
}

// Create appends one redemption row and bumps the coupon's derived
// used_count in the same transaction. Rows are never updated or deleted.
func (r *RedemptionRepo) Create(ctx context.Context, red *models.Redemption) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	insert := `
		INSERT INTO coupon_redemptions (coupon_id, user_id, order_id, coupon_code, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`
	if _, err := tx.ExecContext(ctx, insert, red.CouponID, red.UserID, red.OrderID, red.CouponCode); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE coupons SET used_count = used_count + 1, updated_at = NOW() WHERE id = $1`,
		red.CouponID,
	); err != nil {
		return err
	}
	return tx.Commit()
}
