package models

// CartLine is one product line in the active cart.
type CartLine struct {
	ProductID string  `json:"product_id"`
	StoreID   string  `json:"store_id"`
	Name      string  `json:"name,omitempty"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image,omitempty"`
	Note      string  `json:"note,omitempty"`
}

// Cart is keyed by product id: no two lines may share one, and every
// line must carry the same store id.
type Cart []CartLine

// Subtotal is quantity x unit price summed over all lines, before
// fees, tax, tip and discount.
func (c Cart) Subtotal() float64 {
	var sum float64
	for _, l := range c {
		sum += float64(l.Quantity) * l.UnitPrice
	}
	return sum
}

// StoreID returns the owning store of the cart, or "" when empty.
func (c Cart) StoreID() string {
	if len(c) == 0 {
		return ""
	}
	return c[0].StoreID
}
