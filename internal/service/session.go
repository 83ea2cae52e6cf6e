package service

import (
	"context"
	"errors"
	"sync"

	"checkout-service/internal/models"
)

// Session holds one user's checkout screen state: the applied coupon,
// its last validated discount, the tip, and the last rejection reason.
// It watches the cart store and re-validates the applied coupon
// whenever the cart changes, so a minimum-order violation caused by a
// cart edit after apply clears the stale discount. The watcher is
// advisory and fire-and-forget; the commit path re-validates on its own.
type Session struct {
	userID   string
	checkout *CheckoutService

	mu       sync.Mutex
	applied  *models.CouponSummary
	discount float64
	tip      float64
	reason   string

	cancelSub func()
	done      chan struct{}
}

func NewSession(userID string, checkout *CheckoutService) *Session {
	s := &Session{
		userID:   userID,
		checkout: checkout,
		done:     make(chan struct{}),
	}
	ch, cancel := checkout.carts.Subscribe(userID)
	s.cancelSub = cancel
	go s.watch(ch)
	return s
}

func (s *Session) watch(ch <-chan struct{}) {
	for {
		select {
		case <-s.done:
			return
		case <-ch:
			s.Revalidate(context.Background())
		}
	}
}

// ApplyCoupon is the advisory, UI-facing validation invoked when the
// user clicks apply.
func (s *Session) ApplyCoupon(ctx context.Context, code string) models.ValidationResult {
	subtotal := s.checkout.carts.Load(ctx, s.userID).Subtotal()
	res, err := s.checkout.coupons.Validate(ctx, code, subtotal, s.userID)
	if err != nil {
		logger.Error().Err(err).Str("code", code).Msg("coupon apply lookup failed")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if res.OK {
		s.applied = res.Coupon
		s.discount = res.Discount
		s.reason = ""
	} else {
		s.applied = nil
		s.discount = 0
		s.reason = res.Reason
	}
	return res
}

// RemoveCoupon clears the applied coupon without validating anything.
func (s *Session) RemoveCoupon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = nil
	s.discount = 0
	s.reason = ""
}

// Revalidate re-runs the check for an already-applied coupon against
// the live subtotal. On failure the coupon is cleared and the reason
// kept for display; exactly one reason is shown at a time.
func (s *Session) Revalidate(ctx context.Context) {
	s.mu.Lock()
	applied := s.applied
	s.mu.Unlock()
	if applied == nil {
		return
	}

	subtotal := s.checkout.carts.Load(ctx, s.userID).Subtotal()
	res, err := s.checkout.coupons.Validate(ctx, applied.Code, subtotal, s.userID)
	if err != nil {
		logger.Warn().Err(err).Str("code", applied.Code).Msg("reactive re-validation lookup failed")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if res.OK {
		s.applied = res.Coupon
		s.discount = res.Discount
		s.reason = ""
	} else {
		s.applied = nil
		s.discount = 0
		s.reason = res.Reason
	}
}

func (s *Session) SetTip(tip float64) {
	if tip < 0 {
		tip = 0
	}
	s.mu.Lock()
	s.tip = tip
	s.mu.Unlock()
}

// State reports the applied coupon, discount and last rejection reason.
func (s *Session) State() (coupon *models.CouponSummary, discount float64, tip float64, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied, s.discount, s.tip, s.reason
}

// Totals recomputes the payable breakdown from current state.
func (s *Session) Totals(ctx context.Context) Breakdown {
	s.mu.Lock()
	discount, tip := s.discount, s.tip
	s.mu.Unlock()
	return s.checkout.Totals(ctx, s.userID, tip, discount)
}

// PlaceOrder runs the commit protocol with the session's applied coupon
// and tip. A coupon rejection at commit time clears the applied coupon;
// full success clears coupon and tip state.
func (s *Session) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	s.mu.Lock()
	req.UserID = s.userID
	req.Tip = s.tip
	if s.applied != nil {
		req.CouponCode = s.applied.Code
	} else {
		req.CouponCode = ""
	}
	s.mu.Unlock()

	result, err := s.checkout.PlaceOrder(ctx, req)
	if err != nil {
		var rejected *CouponRejectedError
		if errors.As(err, &rejected) {
			s.mu.Lock()
			s.applied = nil
			s.discount = 0
			s.reason = rejected.Reason
			s.mu.Unlock()
		}
		return nil, err
	}

	s.mu.Lock()
	s.applied = nil
	s.discount = 0
	s.tip = 0
	s.reason = ""
	s.mu.Unlock()
	return result, nil
}

// Close stops the cart watcher.
func (s *Session) Close() {
	s.cancelSub()
	close(s.done)
}

// SessionManager hands out one session per user.
type SessionManager struct {
	mu       sync.Mutex
	checkout *CheckoutService
	sessions map[string]*Session
}

func NewSessionManager(checkout *CheckoutService) *SessionManager {
	return &SessionManager{
		checkout: checkout,
		sessions: make(map[string]*Session),
	}
}

func (m *SessionManager) Get(userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s
	}
	s := NewSession(userID, m.checkout)
	m.sessions[userID] = s
	return s
}
