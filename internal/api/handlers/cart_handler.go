package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"checkout-service/internal/cart"
	"checkout-service/internal/models"
)

type CartHandler struct {
	store *cart.Store
}

func NewCartHandler(store *cart.Store) *CartHandler {
	return &CartHandler{store: store}
}

type cartResponse struct {
	Lines    models.Cart `json:"lines"`
	Subtotal float64     `json:"subtotal"`
}

// Get handles GET /cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "user required")
		return
	}
	c := h.store.Load(r.Context(), uid)
	writeJSON(w, http.StatusOK, cartResponse{Lines: c, Subtotal: c.Subtotal()})
}

// Replace handles PUT /cart: the whole cart is replaced with the
// sanitized version of the payload.
func (h *CartHandler) Replace(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "user required")
		return
	}
	var lines []models.CartLine
	if err := json.NewDecoder(r.Body).Decode(&lines); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	c := h.store.Save(r.Context(), uid, lines)
	writeJSON(w, http.StatusOK, cartResponse{Lines: c, Subtotal: c.Subtotal()})
}

// AddItem handles POST /cart/items: merge-on-add, not append.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "user required")
		return
	}
	var line models.CartLine
	if err := json.NewDecoder(r.Body).Decode(&line); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	if line.ProductID == "" || line.StoreID == "" {
		writeError(w, http.StatusBadRequest, "product_id and store_id required")
		return
	}

	c := h.store.Load(r.Context(), uid)
	merged := false
	for i := range c {
		if c[i].ProductID == line.ProductID {
			c[i].Quantity += line.Quantity
			if c[i].Quantity > cart.MaxQuantity {
				c[i].Quantity = cart.MaxQuantity
			}
			merged = true
			break
		}
	}
	if !merged {
		c = append(c, line)
	}
	c = h.store.Save(r.Context(), uid, c)
	writeJSON(w, http.StatusOK, cartResponse{Lines: c, Subtotal: c.Subtotal()})
}

// RemoveItem handles DELETE /cart/items/{productID}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "user required")
		return
	}
	productID := chi.URLParam(r, "productID")

	c := h.store.Load(r.Context(), uid)
	kept := c[:0]
	for _, l := range c {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}
	c = h.store.Save(r.Context(), uid, kept)
	writeJSON(w, http.StatusOK, cartResponse{Lines: c, Subtotal: c.Subtotal()})
}

// Clear handles DELETE /cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "user required")
		return
	}
	h.store.Clear(r.Context(), uid)
	writeJSON(w, http.StatusOK, cartResponse{Lines: models.Cart{}, Subtotal: 0})
}
