package models

import "github.com/shopspring/decimal"

// Coupon is a persisted discount voucher keyed by its code.
type Coupon struct {
	Code             string          `json:"code" db:"code"`
	Active           bool            `json:"active" db:"active"`
	MinPurchase      decimal.Decimal `json:"min_purchase" db:"min_purchase"`
	UsageLimit       int             `json:"usage_limit" db:"usage_limit"`
	UsesSoFar        int             `json:"uses_so_far" db:"uses_so_far"`
	DiscountFraction decimal.Decimal `json:"discount_fraction" db:"discount_fraction"`
}

// UserProfile is the persisted customer document. RedeemedCoupons maps
// coupon codes the user has already consumed.
type UserProfile struct {
	UID             string          `json:"uid" db:"uid"`
	Email           string          `json:"email" db:"email"`
	SavedAddress    string          `json:"saved_address,omitempty" db:"saved_address"`
	RedeemedCoupons map[string]bool `json:"redeemed_coupons" db:"redeemed_coupons"`
}
