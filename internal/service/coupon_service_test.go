package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"checkout-service/internal/models"
)

type fakeCouponLookup struct {
	coupons map[string]*models.Coupon
	err     error
}

func (f *fakeCouponLookup) GetByCode(_ context.Context, code string) (*models.Coupon, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.coupons[code], nil
}

type fakeRedemptions struct {
	total     map[int]int
	perUser   map[string]int
	countErr  error
	createErr error
	created   []models.Redemption
}

func (f *fakeRedemptions) CountForCoupon(_ context.Context, couponID int) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.total[couponID], nil
}

func (f *fakeRedemptions) CountForUser(_ context.Context, couponID int, userID string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.perUser[userKey(couponID, userID)], nil
}

func (f *fakeRedemptions) Create(_ context.Context, red *models.Redemption) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, *red)
	return nil
}

func userKey(couponID int, userID string) string {
	return fmt.Sprintf("%d#%s", couponID, userID)
}

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newValidator(lookup *fakeCouponLookup, reds *fakeRedemptions) *CouponService {
	if reds == nil {
		reds = &fakeRedemptions{}
	}
	return &CouponService{
		coupons:     lookup,
		redemptions: reds,
		now:         func() time.Time { return testNow },
	}
}

func activeCoupon(code, kind string, value float64) *models.Coupon {
	return &models.Coupon{ID: 1, Code: code, Kind: kind, Value: value, Active: true}
}

func TestValidateEmptyCode(t *testing.T) {
	v := newValidator(&fakeCouponLookup{}, nil)
	res, err := v.Validate(context.Background(), "   ", 100, "u1")
	if err != nil || res.OK || res.Reason != ReasonEmptyCode {
		t.Fatalf("res=%+v err=%v", res, err)
	}
}

func TestValidateNotFound(t *testing.T) {
	v := newValidator(&fakeCouponLookup{coupons: map[string]*models.Coupon{}}, nil)
	res, err := v.Validate(context.Background(), "NOPE", 100, "u1")
	if err != nil || res.OK || res.Reason != ReasonNotFound {
		t.Fatalf("res=%+v err=%v", res, err)
	}
}

func TestValidateLookupErrorSurfacedVerbatim(t *testing.T) {
	boom := errors.New("coupons relation unavailable")
	v := newValidator(&fakeCouponLookup{err: boom}, nil)
	res, err := v.Validate(context.Background(), "SAVE50", 100, "u1")
	if !errors.Is(err, boom) {
		t.Fatalf("expected lookup error back, got %v", err)
	}
	if res.OK || res.Reason != boom.Error() {
		t.Fatalf("reason must carry the lookup error verbatim, got %+v", res)
	}
}

func TestValidateCodeNormalization(t *testing.T) {
	c := activeCoupon("SAVE50", models.CouponFlat, 50)
	v := newValidator(&fakeCouponLookup{coupons: map[string]*models.Coupon{"SAVE50": c}}, nil)
	res, err := v.Validate(context.Background(), "  sa ve 50 ", 300, "u1")
	if err != nil || !res.OK {
		t.Fatalf("normalized code should match, res=%+v err=%v", res, err)
	}
}

func TestValidateInactive(t *testing.T) {
	c := activeCoupon("SAVE50", models.CouponFlat, 50)
	c.Active = false
	v := newValidator(&fakeCouponLookup{coupons: map[string]*models.Coupon{"SAVE50": c}}, nil)
	res, _ := v.Validate(context.Background(), "SAVE50", 300, "u1")
	if res.OK || res.Reason != ReasonInactive {
		t.Fatalf("res=%+v", res)
	}
}

func TestValidateWindow(t *testing.T) {
	future := testNow.Add(24 * time.Hour)
	past := testNow.Add(-24 * time.Hour)

	notStarted := activeCoupon("SOON", models.CouponFlat, 50)
	notStarted.StartsAt = &future
	expired := activeCoupon("GONE", models.CouponFlat, 50)
	expired.ExpiresAt = &past
	open := activeCoupon("OPEN", models.CouponFlat, 50)
	open.StartsAt = &past
	open.ExpiresAt = &future

	v := newValidator(&fakeCouponLookup{coupons: map[string]*models.Coupon{
		"SOON": notStarted, "GONE": expired, "OPEN": open,
	}}, nil)

	if res, _ := v.Validate(context.Background(), "SOON", 300, "u1"); res.OK || res.Reason != ReasonNotStarted {
		t.Fatalf("SOON: %+v", res)
	}
	if res, _ := v.Validate(context.Background(), "GONE", 300, "u1"); res.OK || res.Reason != ReasonExpired {
		t.Fatalf("GONE: %+v", res)
	}
	if res, _ := v.Validate(context.Background(), "OPEN", 300, "u1"); !res.OK {
		t.Fatalf("OPEN: %+v", res)
	}
}

func TestValidateBelowMinimumMentionsAmount(t *testing.T) {
	c := activeCoupon("BIG", models.CouponFlat, 50)
	c.MinOrderAmount = 1000
	v := newValidator(&fakeCouponLookup{coupons: map[string]*models.Coupon{"BIG": c}}, nil)
	res, _ := v.Validate(context.Background(), "BIG", 400, "u1")
	if res.OK {
		t.Fatalf("should fail below minimum, got %+v", res)
	}
	if !strings.Contains(res.Reason, "1000") {
		t.Fatalf("reason should mention the minimum, got %q", res.Reason)
	}
}

func TestValidateTotalUsageCap(t *testing.T) {
	c := activeCoupon("CAPPED", models.CouponFlat, 50)
	c.UsageLimitTotal = 2
	reds := &fakeRedemptions{total: map[int]int{1: 2}}
	v := newValidator(&fakeCouponLookup{coupons: map[string]*models.Coupon{"CAPPED": c}}, reds)
	res, _ := v.Validate(context.Background(), "CAPPED", 300, "u1")
	if res.OK || res.Reason != ReasonUsageLimit {
		t.Fatalf("res=%+v", res)
	}
}

func TestValidatePerUserCap(t *testing.T) {
	c := activeCoupon("ONCE", models.CouponFlat, 50)
	c.UsageLimitPerUser = 1
	reds := &fakeRedemptions{perUser: map[string]int{userKey(1, "u1"): 1}}
	v := newValidator(&fakeCouponLookup{coupons: map[string]*models.Coupon{"ONCE": c}}, reds)

	if res, _ := v.Validate(context.Background(), "ONCE", 300, "u1"); res.OK || res.Reason != ReasonAlreadyUsed {
		t.Fatalf("u1: %+v", res)
	}
	// a different user is unaffected
	if res, _ := v.Validate(context.Background(), "ONCE", 300, "u2"); !res.OK {
		t.Fatalf("u2: %+v", res)
	}
	// anonymous users skip the per-user cap
	if res, _ := v.Validate(context.Background(), "ONCE", 300, ""); !res.OK {
		t.Fatalf("anonymous: %+v", res)
	}
}

func TestValidateUnknownCountDoesNotBlock(t *testing.T) {
	c := activeCoupon("CAPPED", models.CouponFlat, 50)
	c.UsageLimitTotal = 1
	c.UsageLimitPerUser = 1
	reds := &fakeRedemptions{countErr: errors.New("redemptions view missing")}
	v := newValidator(&fakeCouponLookup{coupons: map[string]*models.Coupon{"CAPPED": c}}, reds)
	res, err := v.Validate(context.Background(), "CAPPED", 300, "u1")
	if err != nil || !res.OK {
		t.Fatalf("unknown counts must not block: res=%+v err=%v", res, err)
	}
}

func TestFlatDiscountNeverExceedsSubtotal(t *testing.T) {
	c := activeCoupon("SAVE500", models.CouponFlat, 500)
	v := newValidator(&fakeCouponLookup{coupons: map[string]*models.Coupon{"SAVE500": c}}, nil)
	res, _ := v.Validate(context.Background(), "SAVE500", 300, "u1")
	if !res.OK || res.Discount != 300 {
		t.Fatalf("flat discount must cap at subtotal, got %+v", res)
	}
}

func TestFlatCouponHappyPath(t *testing.T) {
	c := activeCoupon("SAVE50", models.CouponFlat, 50)
	v := newValidator(&fakeCouponLookup{coupons: map[string]*models.Coupon{"SAVE50": c}}, nil)
	res, err := v.Validate(context.Background(), "SAVE50", 300, "u1")
	if err != nil || !res.OK || res.Discount != 50 {
		t.Fatalf("res=%+v err=%v", res, err)
	}
	if res.Coupon == nil || res.Coupon.Code != "SAVE50" || res.Coupon.Kind != models.CouponFlat {
		t.Fatalf("summary missing: %+v", res.Coupon)
	}
}

func TestPercentRateClamped(t *testing.T) {
	over := activeCoupon("ALL", models.CouponPercent, 150)
	full := activeCoupon("FULL", models.CouponPercent, 100)
	v := newValidator(&fakeCouponLookup{coupons: map[string]*models.Coupon{"ALL": over, "FULL": full}}, nil)

	a, _ := v.Validate(context.Background(), "ALL", 480, "u1")
	b, _ := v.Validate(context.Background(), "FULL", 480, "u1")
	if !a.OK || !b.OK || a.Discount != b.Discount {
		t.Fatalf("rate 150 must equal rate 100: %v vs %v", a.Discount, b.Discount)
	}
	if a.Discount != 480 {
		t.Fatalf("100%% of 480 = %v", a.Discount)
	}
}

func TestPercentDiscountRounding(t *testing.T) {
	c := activeCoupon("TEN", models.CouponPercent, 10)
	v := newValidator(&fakeCouponLookup{coupons: map[string]*models.Coupon{"TEN": c}}, nil)
	// 10% of 255 = 25.5 -> 26 with round-half-up
	res, _ := v.Validate(context.Background(), "TEN", 255, "u1")
	if !res.OK || res.Discount != 26 {
		t.Fatalf("expected 26, got %+v", res)
	}
}

func TestPercentCouponWithCap(t *testing.T) {
	c := activeCoupon("TEN", models.CouponPercent, 10)
	c.MaxDiscount = 20
	v := newValidator(&fakeCouponLookup{coupons: map[string]*models.Coupon{"TEN": c}}, nil)
	res, _ := v.Validate(context.Background(), "TEN", 500, "u1")
	if !res.OK || res.Discount != 20 {
		t.Fatalf("raw 50 should cap at 20, got %+v", res)
	}
}

func TestValidateUnknownKind(t *testing.T) {
	c := activeCoupon("WEIRD", "bogo", 1)
	v := newValidator(&fakeCouponLookup{coupons: map[string]*models.Coupon{"WEIRD": c}}, nil)
	res, _ := v.Validate(context.Background(), "WEIRD", 300, "u1")
	if res.OK || res.Reason != ReasonBadKind {
		t.Fatalf("res=%+v", res)
	}
}

func TestNormalizeCode(t *testing.T) {
	cases := map[string]string{
		" save50 ":  "SAVE50",
		"sa ve\t50": "SAVE50",
		"TEN":       "TEN",
		"   ":       "",
	}
	for in, want := range cases {
		if got := NormalizeCode(in); got != want {
			t.Fatalf("NormalizeCode(%q) = %q, want %q", in, got, want)
		}
	}
}
