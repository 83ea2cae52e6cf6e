package models

import "time"

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location is a geocoding hit for a free-text address.
type Location struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	DisplayName string  `json:"display_name"`
}

type Order struct {
	ID           int     `json:"id"`
	UserID       string  `json:"user_id"`
	StoreID      string  `json:"store_id"`
	CustomerName string  `json:"customer_name"`
	Phone        string  `json:"phone"`
	AddressLine1 string  `json:"address_line1"`
	AddressLine2 string  `json:"address_line2,omitempty"`
	City         string  `json:"city,omitempty"`
	Note         string  `json:"note,omitempty"`
	Subtotal     float64 `json:"subtotal"`
	Discount     float64 `json:"discount"`
	DeliveryFee  float64 `json:"delivery_fee"`
	Tax          float64 `json:"tax"`
	Tip          float64 `json:"tip"`
	Total        float64 `json:"total"`
	CouponID     *int    `json:"coupon_id,omitempty"`
	CouponCode   *string `json:"coupon_code,omitempty"`
	Status       string  `json:"status"`
	DropLat      *float64
	DropLng      *float64
	PickupLat    *float64
	PickupLng    *float64
}

type OrderItem struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Redemption is append-only evidence that a coupon was consumed by an
// order. It is never mutated or deleted by this service.
type Redemption struct {
	CouponID   int
	UserID     string
	OrderID    int
	CouponCode string // denormalized for audit
	CreatedAt  time.Time
}
