package coupon

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"storefront-system/internal/pricing"
)

// Redemption failures. All of them abort the store transaction with no
// persisted side effects; callers reset the cart's discount state and
// surface the message.
var (
	// ErrUnauthenticated means no signed-in, non-anonymous user.
	ErrUnauthenticated = errors.New("sign in required to redeem coupons")

	// ErrInvalidCoupon means the code does not exist or is inactive.
	ErrInvalidCoupon = errors.New("coupon is not valid or has expired")

	// ErrMinimumNotMet means the cart subtotal is below the coupon's
	// minimum purchase. Matched by MinimumNotMetError.
	ErrMinimumNotMet = errors.New("minimum purchase not met")

	// ErrLimitReached means the coupon hit its global usage limit.
	ErrLimitReached = errors.New("coupon has reached its usage limit")

	// ErrAlreadyUsed means this user already redeemed this coupon.
	ErrAlreadyUsed = errors.New("coupon already redeemed by this user")

	// ErrStoreUnavailable wraps transaction infrastructure failures.
	ErrStoreUnavailable = errors.New("coupon store unavailable")
)

// MinimumNotMetError carries the coupon's minimum purchase so the
// message can name the missing amount. errors.Is(err, ErrMinimumNotMet)
// matches it.
type MinimumNotMetError struct {
	MinPurchase decimal.Decimal
}

func (e *MinimumNotMetError) Error() string {
	return fmt.Sprintf("minimum purchase of %s required", pricing.Format(e.MinPurchase))
}

func (e *MinimumNotMetError) Unwrap() error {
	return ErrMinimumNotMet
}

// IsValidationError reports whether err is one of the coupon validation
// failures, as opposed to a store infrastructure failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrInvalidCoupon) ||
		errors.Is(err, ErrMinimumNotMet) ||
		errors.Is(err, ErrLimitReached) ||
		errors.Is(err, ErrAlreadyUsed)
}
