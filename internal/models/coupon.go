package models

import "time"

// Coupon kinds.
const (
	CouponFlat    = "flat"
	CouponPercent = "percent"
)

type Coupon struct {
	ID                int
	Code              string
	Kind              string // "flat" or "percent"
	Value             float64
	Active            bool
	MinOrderAmount    float64 // 0 = no minimum
	MaxDiscount       float64 // 0 = no cap
	StartsAt          *time.Time
	ExpiresAt         *time.Time
	UsageLimitTotal   int // 0 = unlimited
	UsageLimitPerUser int // 0 = unlimited
	UsedCount         int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CouponSummary is the normalized view carried by a successful
// validation and stamped onto the order at commit time.
type CouponSummary struct {
	ID             int     `json:"id"`
	Code           string  `json:"code"`
	Kind           string  `json:"kind"`
	Value          float64 `json:"value"`
	MinOrderAmount float64 `json:"min_order_amount,omitempty"`
	MaxDiscount    float64 `json:"max_discount,omitempty"`
}

func (c *Coupon) Summary() *CouponSummary {
	return &CouponSummary{
		ID:             c.ID,
		Code:           c.Code,
		Kind:           c.Kind,
		Value:          c.Value,
		MinOrderAmount: c.MinOrderAmount,
		MaxDiscount:    c.MaxDiscount,
	}
}
