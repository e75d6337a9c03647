package pricing

import (
	"fmt"
	"time"

	"github.com/jafarshop/shopapi/internal/domain"
)

// ErrCouponExpired indicates the coupon's expiry instant has passed
type ErrCouponExpired struct {
	Code      string
	ExpiredAt time.Time
}

func (e *ErrCouponExpired) Error() string {
	return fmt.Sprintf("coupon %s expired at %s", e.Code, e.ExpiredAt.Format(time.RFC3339))
}

// ErrMinPurchaseNotMet indicates the cart subtotal is below the
// coupon's minimum purchase gate
type ErrMinPurchaseNotMet struct {
	Code        string
	MinPurchase float64
	Subtotal    float64
}

func (e *ErrMinPurchaseNotMet) Error() string {
	return fmt.Sprintf("coupon %s requires a minimum purchase of %.2f, cart subtotal is %.2f",
		e.Code, e.MinPurchase, e.Subtotal)
}

// ValidateCoupon enforces the coupon business rules against a subtotal
// and returns the discount to apply. Rules run in order, first failure
// wins: expiry, then minimum purchase. The raw discount is clamped to
// the subtotal so the final amount can never go negative. Neither the
// coupon nor the subtotal is mutated.
func ValidateCoupon(coupon *domain.Coupon, subtotal float64, now time.Time) (float64, error) {
	if coupon.ExpiresAt != nil && now.After(*coupon.ExpiresAt) {
		return 0, &ErrCouponExpired{Code: coupon.Code, ExpiredAt: *coupon.ExpiresAt}
	}

	if subtotal < coupon.MinPurchase {
		return 0, &ErrMinPurchaseNotMet{
			Code:        coupon.Code,
			MinPurchase: coupon.MinPurchase,
			Subtotal:    subtotal,
		}
	}

	var raw float64
	switch coupon.Type {
	case domain.CouponTypePercentage:
		raw = subtotal * coupon.Value / 100
	case domain.CouponTypeFixed:
		raw = coupon.Value
	default:
		return 0, fmt.Errorf("unknown coupon type %q", coupon.Type)
	}

	if raw > subtotal {
		raw = subtotal
	}

	return raw, nil
}
