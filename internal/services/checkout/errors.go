package checkout

import "errors"

// Checkout preconditions and command failures. EmptyCart and
// MissingAddress block checkout before anything is attempted; they never
// leave partial state behind.
var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrMissingAddress       = errors.New("delivery address required")
	ErrItemNotFound         = errors.New("menu item not found")
	ErrUnknownOption        = errors.New("unknown item option")
	ErrInvalidQuantity      = errors.New("quantity must be a positive integer")
	ErrRedemptionInProgress = errors.New("a coupon redemption is already in progress")
	ErrCatalogUnavailable   = errors.New("catalog not loaded yet")
	ErrNoSavedAddress       = errors.New("no saved address on profile")
)
