package models

// ValidationResult is the structured outcome of a coupon check.
// Business-rule rejections are not errors: OK is false and Reason holds
// the user-facing message, displayed verbatim.
type ValidationResult struct {
	OK       bool           `json:"ok"`
	Reason   string         `json:"reason,omitempty"`
	Coupon   *CouponSummary `json:"coupon,omitempty"`
	Discount float64        `json:"discount,omitempty"`
}

func Invalid(reason string) ValidationResult {
	return ValidationResult{OK: false, Reason: reason}
}
