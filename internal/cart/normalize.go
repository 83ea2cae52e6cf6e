package cart

import (
	"encoding/json"
	"math"

	"checkout-service/internal/models"
)

const (
	// MaxQuantity is the cap used when repairing corrupted quantities.
	MaxQuantity  = 99
	maxUnitPrice = 100000
)

// storedLine tolerates the loose shapes legacy writers put in storage.
// Quantity and price are decoded as float64 so fractional or absurd
// values survive parsing and get repaired instead of failing the load.
type storedLine struct {
	ProductID string  `json:"product_id"`
	StoreID   string  `json:"store_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  float64 `json:"quantity"`
	Image     string  `json:"image"`
	Note      string  `json:"note"`
}

// parseLines decodes one storage value defensively: malformed JSON
// yields an empty sequence, never an error. Corruption must reset the
// cart, not block checkout.
func parseLines(raw string) []models.CartLine {
	if raw == "" {
		return nil
	}
	var stored []storedLine
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil
	}
	lines := make([]models.CartLine, 0, len(stored))
	for _, s := range stored {
		lines = append(lines, models.CartLine{
			ProductID: s.ProductID,
			StoreID:   s.StoreID,
			Name:      s.Name,
			UnitPrice: s.UnitPrice,
			Quantity:  repairQuantity(s.Quantity),
			Image:     s.Image,
			Note:      s.Note,
		})
	}
	return lines
}

// repairQuantity coerces anything outside [1, MaxQuantity], or not a
// whole number, to 1. An out-of-range quantity is corruption, not a
// signal to trust.
func repairQuantity(q float64) int {
	if q < 1 || q > MaxQuantity || q != math.Trunc(q) || math.IsNaN(q) {
		return 1
	}
	return int(q)
}

func sanitizeLine(l models.CartLine) (models.CartLine, bool) {
	if l.ProductID == "" || l.StoreID == "" {
		return l, false
	}
	if l.Quantity < 1 || l.Quantity > MaxQuantity {
		l.Quantity = 1
	}
	if l.UnitPrice < 0 || l.UnitPrice > maxUnitPrice {
		l.UnitPrice = 0
	}
	return l, true
}

// Normalize produces the canonical cart view: lines sanitized,
// duplicates merged by product id taking the maximum quantity seen
// (never the sum - summing duplicate sources is the defect this exists
// to prevent), missing name/image/price filled from whichever copy has
// them, and the single-store invariant enforced by keeping only lines
// whose store matches the first surviving line. Idempotent.
func Normalize(lines []models.CartLine) models.Cart {
	merged := make(models.Cart, 0, len(lines))
	index := make(map[string]int, len(lines))

	for _, raw := range lines {
		l, ok := sanitizeLine(raw)
		if !ok {
			continue
		}
		i, seen := index[l.ProductID]
		if !seen {
			index[l.ProductID] = len(merged)
			merged = append(merged, l)
			continue
		}
		kept := &merged[i]
		if l.Quantity > kept.Quantity {
			kept.Quantity = l.Quantity
		}
		if kept.Name == "" {
			kept.Name = l.Name
		}
		if kept.Image == "" {
			kept.Image = l.Image
		}
		if kept.UnitPrice == 0 {
			kept.UnitPrice = l.UnitPrice
		}
		if kept.Note == "" {
			kept.Note = l.Note
		}
	}

	if len(merged) == 0 {
		return merged
	}
	store := merged[0].StoreID
	out := merged[:0]
	for _, l := range merged {
		if l.StoreID == store {
			out = append(out, l)
		}
	}
	return out
}
