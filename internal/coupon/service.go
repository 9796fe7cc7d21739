// Package coupon implements the atomic coupon redemption protocol: a
// validate-and-consume procedure that succeeds exactly once per user per
// coupon, even under concurrent submissions.
package coupon

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"storefront-system/internal/logger"
	"storefront-system/internal/models"
)

// Tx is one atomic attempt against the coupon store. All reads observe
// the same snapshot; the writes commit together or not at all.
type Tx interface {
	// GetCoupon returns the coupon for the code, or nil when absent.
	GetCoupon(ctx context.Context, code string) (*models.Coupon, error)

	// GetUserCoupons returns the codes the user has already redeemed.
	GetUserCoupons(ctx context.Context, uid string) (map[string]bool, error)

	// IncrementCouponUses consumes one use of the coupon.
	IncrementCouponUses(ctx context.Context, code string) error

	// MarkCouponUsed records the code on the user's profile, preserving
	// its other fields (merge semantics).
	MarkCouponUsed(ctx context.Context, uid, code string) error
}

// Store runs fn atomically, retrying transparently when the read data
// changed before commit.
type Store interface {
	RunAtomic(ctx context.Context, fn func(tx Tx) error) error
}

// Result is a successful redemption: the computed discount and the
// normalized code, applied to the cart together.
type Result struct {
	Discount decimal.Decimal
	Code     string
}

// Service validates and consumes coupons.
type Service struct {
	store  Store
	logger *logger.Logger
}

// NewService creates a coupon service backed by the given store.
func NewService(store Store, log *logger.Logger) *Service {
	return &Service{
		store:  store,
		logger: log,
	}
}

// Redeem atomically validates and consumes the coupon for the user.
// subtotal is the cart's pre-discount subtotal at the time of the
// request; the discount is computed from it and the fraction read inside
// the transaction. Validation runs in order and short-circuits: active
// coupon, minimum purchase, usage limit, not previously used by this
// user. On success the coupon's use count is incremented and the code is
// recorded on the user profile within the same transaction.
func (s *Service) Redeem(ctx context.Context, uid, code string, subtotal decimal.Decimal) (*Result, error) {
	if uid == "" || uid == models.AnonymousUser {
		return nil, ErrUnauthenticated
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrInvalidCoupon
	}

	var result *Result
	err := s.store.RunAtomic(ctx, func(tx Tx) error {
		cp, err := tx.GetCoupon(ctx, code)
		if err != nil {
			return err
		}
		if cp == nil || !cp.Active {
			return ErrInvalidCoupon
		}
		if subtotal.LessThan(cp.MinPurchase) {
			return &MinimumNotMetError{MinPurchase: cp.MinPurchase}
		}
		if cp.UsesSoFar >= cp.UsageLimit {
			return ErrLimitReached
		}

		used, err := tx.GetUserCoupons(ctx, uid)
		if err != nil {
			return err
		}
		if used[code] {
			return ErrAlreadyUsed
		}

		if err := tx.IncrementCouponUses(ctx, code); err != nil {
			return err
		}
		if err := tx.MarkCouponUsed(ctx, uid, code); err != nil {
			return err
		}

		result = &Result{
			Discount: subtotal.Mul(cp.DiscountFraction),
			Code:     code,
		}
		return nil
	})

	if err != nil {
		if IsValidationError(err) {
			return nil, err
		}
		s.logger.Error("coupon_store_failed", "Coupon redemption transaction failed", "", err, map[string]interface{}{
			"code": code,
		})
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.logger.Info("coupon_redeemed", fmt.Sprintf("Coupon %s redeemed", code), "", map[string]interface{}{
		"code":     code,
		"discount": result.Discount.StringFixed(2),
	})
	return result, nil
}
