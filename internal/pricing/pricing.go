package pricing

import "math"

// Settings are the platform pricing knobs. Admin edits them through the
// system settings row; defaults apply when the row is absent.
type Settings struct {
	DeliveryBaseFee       float64 `json:"delivery_base_fee"`
	FreeDeliveryThreshold float64 `json:"free_delivery_threshold"`
	TaxRate               float64 `json:"tax_rate"`
}

func DefaultSettings() Settings {
	return Settings{
		DeliveryBaseFee:       30,
		FreeDeliveryThreshold: 500,
		TaxRate:               0.05,
	}
}

// RoundHalfUp rounds to zero fractional digits, half away from zero on
// the positive side. Money values in this system are minor-unit-free
// decimals rounded to whole units for display and percent discounts.
func RoundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// DeliveryFee is zero on an empty cart, the flat base fee otherwise,
// waived entirely once the subtotal crosses the free-delivery threshold.
func (s Settings) DeliveryFee(subtotal float64, lines int) float64 {
	if lines == 0 {
		return 0
	}
	if subtotal >= s.FreeDeliveryThreshold {
		return 0
	}
	return s.DeliveryBaseFee
}

// Tax applies the fixed rate to the subtotal only, never to fee, tip or
// discount.
func (s Settings) Tax(subtotal float64) float64 {
	return RoundHalfUp(subtotal * s.TaxRate)
}

// Payable is the final amount due, floored at zero.
func Payable(subtotal, fee, tax, tip, discount float64) float64 {
	total := subtotal + fee + tax + tip - discount
	if total < 0 {
		return 0
	}
	return total
}
