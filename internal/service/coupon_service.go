package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"checkout-service/internal/models"
	"checkout-service/internal/pricing"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "service").Logger()

// User-facing rejection reasons, displayed verbatim.
const (
	ReasonEmptyCode   = "enter coupon code"
	ReasonNotFound    = "invalid coupon code"
	ReasonInactive    = "coupon is not active"
	ReasonNotStarted  = "coupon not started yet"
	ReasonExpired     = "coupon expired"
	ReasonUsageLimit  = "usage limit reached"
	ReasonAlreadyUsed = "already used this coupon"
	ReasonBadKind     = "coupon type invalid"
)

// Repos required by the validator (interfaces to allow mocking).
type CouponLookup interface {
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
}

type RedemptionCounter interface {
	CountForCoupon(ctx context.Context, couponID int) (int, error)
	CountForUser(ctx context.Context, couponID int, userID string) (int, error)
}

// CouponService decides whether a coupon code applies to a subtotal for
// a given (optionally anonymous) user and computes the discount. It
// never consumes usage; that happens only through the redemption record
// written at commit time.
type CouponService struct {
	coupons     CouponLookup
	redemptions RedemptionCounter
	now         func() time.Time
}

func NewCouponService(coupons CouponLookup, redemptions RedemptionCounter) *CouponService {
	return &CouponService{
		coupons:     coupons,
		redemptions: redemptions,
		now:         time.Now,
	}
}

// NormalizeCode trims, upper-cases and strips internal whitespace.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), ""))
}

// FormatAmount renders a money value for a user-facing message: whole
// units, no fraction.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(pricing.RoundHalfUp(v), 'f', -1, 64)
}

// Validate runs the full eligibility check. The returned error is
// non-nil only for lookup transport failures; its message is also
// copied into the result reason, since this is a user-initiated action
// that must report clearly. Business rejections are results, not errors.
func (s *CouponService) Validate(ctx context.Context, code string, subtotal float64, userID string) (models.ValidationResult, error) {
	code = NormalizeCode(code)
	if code == "" {
		return models.Invalid(ReasonEmptyCode), nil
	}

	coupon, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		return models.Invalid(err.Error()), err
	}
	if coupon == nil {
		return models.Invalid(ReasonNotFound), nil
	}

	if !coupon.Active {
		return models.Invalid(ReasonInactive), nil
	}

	now := s.now()
	if coupon.StartsAt != nil && now.Before(*coupon.StartsAt) {
		return models.Invalid(ReasonNotStarted), nil
	}
	if coupon.ExpiresAt != nil && now.After(*coupon.ExpiresAt) {
		return models.Invalid(ReasonExpired), nil
	}

	if coupon.MinOrderAmount > 0 && subtotal < coupon.MinOrderAmount {
		return models.Invalid(fmt.Sprintf("minimum order of %s required", FormatAmount(coupon.MinOrderAmount))), nil
	}

	// Usage caps count over redemption records. An unavailable count
	// never blocks: absence of proof is not proof of exhaustion.
	if coupon.UsageLimitTotal > 0 {
		n, err := s.redemptions.CountForCoupon(ctx, coupon.ID)
		if err != nil {
			logger.Warn().Err(err).Str("code", code).Msg("redemption count unavailable")
		} else if n >= coupon.UsageLimitTotal {
			return models.Invalid(ReasonUsageLimit), nil
		}
	}
	if coupon.UsageLimitPerUser > 0 && userID != "" {
		n, err := s.redemptions.CountForUser(ctx, coupon.ID, userID)
		if err != nil {
			logger.Warn().Err(err).Str("code", code).Msg("per-user redemption count unavailable")
		} else if n >= coupon.UsageLimitPerUser {
			return models.Invalid(ReasonAlreadyUsed), nil
		}
	}

	discount, ok := computeDiscount(coupon, subtotal)
	if !ok {
		return models.Invalid(ReasonBadKind), nil
	}

	return models.ValidationResult{
		OK:       true,
		Coupon:   coupon.Summary(),
		Discount: discount,
	}, nil
}

func computeDiscount(c *models.Coupon, subtotal float64) (float64, bool) {
	var discount float64
	switch c.Kind {
	case models.CouponFlat:
		discount = c.Value
		if discount < 0 {
			discount = 0
		}
		if discount > subtotal {
			discount = subtotal
		}
	case models.CouponPercent:
		rate := c.Value
		if rate < 0 {
			rate = 0
		}
		if rate > 100 {
			rate = 100
		}
		discount = pricing.RoundHalfUp(subtotal * rate / 100)
	default:
		return 0, false
	}
	if c.MaxDiscount > 0 && discount > c.MaxDiscount {
		discount = c.MaxDiscount
	}
	return discount, true
}
