package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"checkout-service/internal/service"
)

type CheckoutHandler struct {
	sessions *service.SessionManager
}

func NewCheckoutHandler(sessions *service.SessionManager) *CheckoutHandler {
	return &CheckoutHandler{sessions: sessions}
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

// ApplyCoupon handles POST /coupons/validate - the advisory, UI-facing
// check invoked when the user clicks apply.
func (h *CheckoutHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "user required")
		return
	}
	var req applyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	res := h.sessions.Get(uid).ApplyCoupon(r.Context(), req.Code)
	writeJSON(w, http.StatusOK, res)
}

// RemoveCoupon handles DELETE /coupons/applied
func (h *CheckoutHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "user required")
		return
	}
	h.sessions.Get(uid).RemoveCoupon()
	w.WriteHeader(http.StatusNoContent)
}

type tipRequest struct {
	Tip float64 `json:"tip"`
}

// SetTip handles PUT /checkout/tip
func (h *CheckoutHandler) SetTip(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "user required")
		return
	}
	var req tipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	h.sessions.Get(uid).SetTip(req.Tip)
	w.WriteHeader(http.StatusNoContent)
}

// Totals handles GET /checkout/totals
func (h *CheckoutHandler) Totals(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "user required")
		return
	}
	s := h.sessions.Get(uid)
	coupon, discount, _, reason := s.State()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"breakdown": s.Totals(r.Context()),
		"coupon":    coupon,
		"discount":  discount,
		"reason":    reason,
	})
}

// PlaceOrder handles POST /checkout
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "user required")
		return
	}
	var req service.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	result, err := h.sessions.Get(uid).PlaceOrder(r.Context(), req)
	if err != nil {
		var rejected *service.CouponRejectedError
		switch {
		case errors.As(err, &rejected):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": rejected.Reason})
		case errors.Is(err, service.ErrCheckoutInFlight):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrNotAuthenticated):
			writeError(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, service.ErrEmptyCart),
			errors.Is(err, service.ErrMissingDeliveryInfo),
			errors.Is(err, service.ErrMultiStoreCart):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "could not place order")
		}
		return
	}
	writeJSON(w, http.StatusCreated, result)
}
