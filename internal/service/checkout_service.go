package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"checkout-service/internal/cache"
	"checkout-service/internal/cart"
	"checkout-service/internal/metrics"
	"checkout-service/internal/models"
	"checkout-service/internal/pricing"
)

// User-input failures, each surfaced as its own inline message.
var (
	ErrNotAuthenticated    = errors.New("sign in to place an order")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrMissingDeliveryInfo = errors.New("name, phone and address are required")
	ErrMultiStoreCart      = errors.New("cart contains items from more than one store")
	ErrCheckoutInFlight    = errors.New("an order is already being placed")
)

// CouponRejectedError aborts a commit when the authoritative re-check
// fails; the applied coupon must be cleared by the caller.
type CouponRejectedError struct {
	Reason string
}

func (e *CouponRejectedError) Error() string { return e.Reason }

// Collaborators (interfaces owned by the service, implemented by
// internal/repository, internal/geo and internal/events).
type OrderWriter interface {
	InsertOrder(ctx context.Context, o *models.Order) (int, error)
	InsertItems(ctx context.Context, orderID int, items []models.OrderItem) error
}

type RedemptionWriter interface {
	Create(ctx context.Context, red *models.Redemption) error
}

type PickupLocator interface {
	GetPickupCoords(ctx context.Context, storeID string) (*models.LatLng, error)
}

type Geocoder interface {
	Geocode(ctx context.Context, address string) (*models.Location, error)
}

type SettingsSource interface {
	Load(ctx context.Context) (pricing.Settings, error)
}

type EventPublisher interface {
	OrderPlaced(ctx context.Context, o *models.Order) error
}

type CheckoutService struct {
	carts       *cart.Store
	coupons     *CouponService
	orders      OrderWriter
	redemptions RedemptionWriter
	stores      PickupLocator
	geocoder    Geocoder
	settings    SettingsSource
	events      EventPublisher
	metrics     *metrics.Registry
	inflight    *cache.InflightGuard
}

func NewCheckoutService(
	carts *cart.Store,
	coupons *CouponService,
	orders OrderWriter,
	redemptions RedemptionWriter,
	stores PickupLocator,
	geocoder Geocoder,
	settings SettingsSource,
	events EventPublisher,
	reg *metrics.Registry,
) *CheckoutService {
	return &CheckoutService{
		carts:       carts,
		coupons:     coupons,
		orders:      orders,
		redemptions: redemptions,
		stores:      stores,
		geocoder:    geocoder,
		settings:    settings,
		events:      events,
		metrics:     reg,
		inflight:    cache.NewInflightGuard(),
	}
}

type PlaceOrderRequest struct {
	UserID       string  `json:"-"`
	CustomerName string  `json:"customer_name"`
	Phone        string  `json:"phone"`
	AddressLine1 string  `json:"address_line1"`
	AddressLine2 string  `json:"address_line2"`
	City         string  `json:"city"`
	Note         string  `json:"note"`
	Tip          float64 `json:"tip"`
	CouponCode   string  `json:"coupon_code"`
}

type Breakdown struct {
	Subtotal    float64 `json:"subtotal"`
	Discount    float64 `json:"discount"`
	DeliveryFee float64 `json:"delivery_fee"`
	Tax         float64 `json:"tax"`
	Tip         float64 `json:"tip"`
	Total       float64 `json:"total"`
}

type PlaceOrderResult struct {
	OrderID   int       `json:"order_id"`
	Breakdown Breakdown `json:"breakdown"`
	// Notes report degraded best-effort steps (e.g. unresolved
	// delivery location) on an otherwise successful order.
	Notes []string `json:"notes,omitempty"`
}

// Totals derives the current payable breakdown for a user's cart. Pure
// recomputation from live state, no caching.
func (s *CheckoutService) Totals(ctx context.Context, userID string, tip, discount float64) Breakdown {
	c := s.carts.Load(ctx, userID)
	cfg := s.loadSettings(ctx)
	return s.breakdown(c, cfg, tip, discount)
}

func (s *CheckoutService) breakdown(c models.Cart, cfg pricing.Settings, tip, discount float64) Breakdown {
	if discount < 0 {
		discount = 0
	}
	subtotal := c.Subtotal()
	fee := cfg.DeliveryFee(subtotal, len(c))
	tax := cfg.Tax(subtotal)
	return Breakdown{
		Subtotal:    subtotal,
		Discount:    discount,
		DeliveryFee: fee,
		Tax:         tax,
		Tip:         tip,
		Total:       pricing.Payable(subtotal, fee, tax, tip, discount),
	}
}

// PlaceOrder commits one checkout attempt. Steps run strictly in order:
// preconditions, authoritative coupon re-validation, best-effort
// coordinate lookups, order header, line items, best-effort redemption,
// cart clear. Non-reentrant per user.
func (s *CheckoutService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if req.UserID == "" {
		return nil, ErrNotAuthenticated
	}
	if !s.inflight.Begin(req.UserID) {
		return nil, ErrCheckoutInFlight
	}
	defer s.inflight.End(req.UserID)

	start := time.Now()
	defer func() {
		s.metrics.CheckoutLatencySec.Observe(time.Since(start).Seconds())
	}()

	c := s.carts.Load(ctx, req.UserID)
	if len(c) == 0 {
		return nil, ErrEmptyCart
	}
	if strings.TrimSpace(req.CustomerName) == "" ||
		strings.TrimSpace(req.Phone) == "" ||
		strings.TrimSpace(req.AddressLine1) == "" {
		return nil, ErrMissingDeliveryInfo
	}
	storeID := c.StoreID()
	for _, l := range c {
		if l.StoreID != storeID {
			return nil, ErrMultiStoreCart
		}
	}

	subtotal := c.Subtotal()

	// Authoritative re-check against the live subtotal: the discount on
	// the persisted order is never the client's last-displayed figure.
	var discount float64
	var applied *models.CouponSummary
	if req.CouponCode != "" {
		res, err := s.coupons.Validate(ctx, req.CouponCode, subtotal, req.UserID)
		if err != nil {
			logger.Error().Err(err).Str("code", req.CouponCode).Msg("coupon re-validation lookup failed")
		}
		if !res.OK {
			s.metrics.CouponRejections.Inc()
			return nil, &CouponRejectedError{Reason: res.Reason}
		}
		discount = res.Discount
		applied = res.Coupon
	}

	drop, pickup, notes := s.resolveCoordinates(ctx, req, storeID)

	cfg := s.loadSettings(ctx)
	bd := s.breakdown(c, cfg, req.Tip, discount)

	order := &models.Order{
		UserID:       req.UserID,
		StoreID:      storeID,
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		Note:         req.Note,
		Subtotal:     bd.Subtotal,
		Discount:     bd.Discount,
		DeliveryFee:  bd.DeliveryFee,
		Tax:          bd.Tax,
		Tip:          bd.Tip,
		Total:        bd.Total,
		Status:       "placed",
	}
	if applied != nil {
		order.CouponID = &applied.ID
		order.CouponCode = &applied.Code
	}
	if drop != nil {
		order.DropLat, order.DropLng = &drop.Lat, &drop.Lng
	}
	if pickup != nil {
		order.PickupLat, order.PickupLng = &pickup.Lat, &pickup.Lng
	}

	orderID, err := s.orders.InsertOrder(ctx, order)
	if err != nil {
		s.metrics.OrdersFailed.Inc()
		return nil, fmt.Errorf("save order: %w", err)
	}
	order.ID = orderID

	items := make([]models.OrderItem, 0, len(c))
	for _, l := range c {
		items = append(items, models.OrderItem{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	// Known gap, preserved on purpose: if this insert fails the order
	// header already exists and is left headered-but-itemless. There is
	// no compensation or retry; the error is surfaced and the cart is
	// kept so the user can try again.
	if err := s.orders.InsertItems(ctx, orderID, items); err != nil {
		s.metrics.OrdersFailed.Inc()
		return nil, fmt.Errorf("save order items: %w", err)
	}

	if applied != nil {
		red := &models.Redemption{
			CouponID:   applied.ID,
			UserID:     req.UserID,
			OrderID:    orderID,
			CouponCode: applied.Code,
		}
		if err := s.redemptions.Create(ctx, red); err != nil {
			// best-effort: never undo a successful order
			s.metrics.RedemptionWriteErrs.Inc()
			logger.Error().Err(err).Int("order_id", orderID).Str("code", applied.Code).Msg("redemption write failed")
		} else {
			s.metrics.CouponsApplied.Inc()
		}
	}

	if s.events != nil {
		if err := s.events.OrderPlaced(ctx, order); err != nil {
			logger.Error().Err(err).Int("order_id", orderID).Msg("order event publish failed")
		}
	}

	s.carts.Clear(ctx, req.UserID)
	s.metrics.OrdersPlaced.Inc()

	return &PlaceOrderResult{OrderID: orderID, Breakdown: bd, Notes: notes}, nil
}

// resolveCoordinates runs the drop geocode and the pickup lookup
// concurrently. Both are best-effort: a failure degrades to a note on
// the result and never blocks the commit.
func (s *CheckoutService) resolveCoordinates(ctx context.Context, req PlaceOrderRequest, storeID string) (*models.Location, *models.LatLng, []string) {
	dropCh := make(chan *models.Location, 1)
	pickupCh := make(chan *models.LatLng, 1)

	go func() {
		loc, err := s.geocoder.Geocode(ctx, composeAddress(req))
		if err != nil {
			logger.Warn().Err(err).Msg("geocode failed")
			loc = nil
		}
		dropCh <- loc
	}()
	go func() {
		coords, err := s.stores.GetPickupCoords(ctx, storeID)
		if err != nil {
			logger.Warn().Err(err).Str("store_id", storeID).Msg("pickup coords lookup failed")
			coords = nil
		}
		pickupCh <- coords
	}()

	drop := <-dropCh
	pickup := <-pickupCh

	var notes []string
	if drop == nil {
		s.metrics.GeocodeMisses.Inc()
		notes = append(notes, "delivery location could not be resolved; the driver may call for directions")
	}
	if pickup == nil {
		notes = append(notes, "store location could not be resolved")
	}
	return drop, pickup, notes
}

func (s *CheckoutService) loadSettings(ctx context.Context) pricing.Settings {
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("pricing settings unavailable, using defaults")
		return pricing.DefaultSettings()
	}
	return cfg
}

func composeAddress(req PlaceOrderRequest) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{req.AddressLine1, req.AddressLine2, req.City} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}
