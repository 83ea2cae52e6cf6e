package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"checkout-service/internal/models"
)

type OrderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

// insertAttempt is one rung of the schema-tolerance ladder: the orders
// table has grown columns over time and not every deployment carries
// all of them, so the insert is tried with the full payload first and
// retried with reduced payloads on schema-mismatch errors.
type insertAttempt struct {
	name  string
	query string
	args  func(o *models.Order) []interface{}
}

var orderInsertAttempts = []insertAttempt{
	{
		name: "full",
		query: `
			INSERT INTO orders
			(user_id, store_id, customer_name, phone, address_line1, address_line2,
			 city, note, subtotal, discount, delivery_fee, tax, tip, total,
			 coupon_id, coupon_code, status, drop_lat, drop_lng, pickup_lat, pickup_lng,
			 created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,NOW())
			RETURNING id
		`,
		args: func(o *models.Order) []interface{} {
			return []interface{}{
				o.UserID, o.StoreID, o.CustomerName, o.Phone, o.AddressLine1, o.AddressLine2,
				o.City, o.Note, o.Subtotal, o.Discount, o.DeliveryFee, o.Tax, o.Tip, o.Total,
				o.CouponID, o.CouponCode, o.Status, o.DropLat, o.DropLng, o.PickupLat, o.PickupLng,
			}
		},
	},
	{
		name: "no-coordinates",
		query: `
			INSERT INTO orders
			(user_id, store_id, customer_name, phone, address_line1, address_line2,
			 city, note, subtotal, discount, delivery_fee, tax, tip, total,
			 coupon_id, coupon_code, status, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,NOW())
			RETURNING id
		`,
		args: func(o *models.Order) []interface{} {
			return []interface{}{
				o.UserID, o.StoreID, o.CustomerName, o.Phone, o.AddressLine1, o.AddressLine2,
				o.City, o.Note, o.Subtotal, o.Discount, o.DeliveryFee, o.Tax, o.Tip, o.Total,
				o.CouponID, o.CouponCode, o.Status,
			}
		},
	},
	{
		name: "minimal",
		query: `
			INSERT INTO orders
			(user_id, store_id, customer_name, phone, address_line1,
			 subtotal, discount, delivery_fee, tax, tip, total, status, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW())
			RETURNING id
		`,
		args: func(o *models.Order) []interface{} {
			return []interface{}{
				o.UserID, o.StoreID, o.CustomerName, o.Phone, o.AddressLine1,
				o.Subtotal, o.Discount, o.DeliveryFee, o.Tax, o.Tip, o.Total, o.Status,
			}
		},
	},
}

type insertFunc func(ctx context.Context, query string, args []interface{}) (int, error)

// runInsertLadder walks the attempts in order, moving to the next rung
// only on schema-mismatch-class errors. Any other error, or exhausting
// the ladder, fails the insert.
func runInsertLadder(ctx context.Context, ins insertFunc, o *models.Order) (int, error) {
	var lastErr error
	for _, at := range orderInsertAttempts {
		id, err := ins(ctx, at.query, at.args(o))
		if err == nil {
			return id, nil
		}
		if !isSchemaMismatch(err) {
			return 0, err
		}
		lastErr = err
	}
	return 0, lastErr
}

// isSchemaMismatch reports whether the error is the class the retry
// ladder may swallow: undefined column, undefined table, or a column
// type the payload no longer matches.
func isSchemaMismatch(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code {
	case "42703", "42P01", "42804":
		return true
	}
	return false
}

// InsertOrder persists the order header and returns its generated id.
func (r *OrderRepo) InsertOrder(ctx context.Context, o *models.Order) (int, error) {
	ins := func(ctx context.Context, query string, args []interface{}) (int, error) {
		var id int
		err := r.db.QueryRowContext(ctx, query, args...).Scan(&id)
		return id, err
	}
	return runInsertLadder(ctx, ins, o)
}

// InsertItems writes one row per cart line in a single batch statement.
func (r *OrderRepo) InsertItems(ctx context.Context, orderID int, items []models.OrderItem) error {
	if len(items) == 0 {
		return errors.New("no order items")
	}

	query := `INSERT INTO order_items (order_id, product_id, quantity, unit_price) VALUES `
	args := make([]interface{}, 0, len(items)*4)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		n := i * 4
		query += fmt.Sprintf("($%d,$%d,$%d,$%d)", n+1, n+2, n+3, n+4)
		args = append(args, orderID, it.ProductID, it.Quantity, it.UnitPrice)
	}

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}
