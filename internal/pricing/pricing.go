// Package pricing computes order totals. All functions are pure over a
// cart snapshot; money is decimal throughout to keep long sessions free
// of float accumulation error.
package pricing

import (
	"github.com/shopspring/decimal"

	"storefront-system/internal/cart"
)

// DefaultTaxRate is the ITBIS rate applied to discounted subtotals.
const DefaultTaxRate = 0.18

// Policy carries the configurable tax rate.
type Policy struct {
	taxRate decimal.Decimal
}

// NewPolicy creates a pricing policy with the given tax rate.
func NewPolicy(taxRate float64) Policy {
	return Policy{taxRate: decimal.NewFromFloat(taxRate)}
}

// TaxRate returns the policy's tax rate.
func (p Policy) TaxRate() decimal.Decimal {
	return p.taxRate
}

// LineUnitPrice is the per-unit price of a line including its selected
// option surcharges.
func LineUnitPrice(l cart.Line) decimal.Decimal {
	unit := l.UnitPrice
	for _, opt := range l.SelectedOptions {
		unit = unit.Add(opt.Price)
	}
	return unit
}

// LineTotal is the line's unit price (options included) times quantity.
func LineTotal(l cart.Line) decimal.Decimal {
	return LineUnitPrice(l).Mul(decimal.NewFromInt(int64(l.Qty)))
}

// Subtotal sums the line totals of the cart before any discount.
func Subtotal(c *cart.Cart) decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(LineTotal(line))
	}
	return total
}

// DiscountedSubtotal is the subtotal minus the cart's discount, clamped
// at zero: a coupon worth more than the cart makes the order free, never
// negative.
func DiscountedSubtotal(c *cart.Cart) decimal.Decimal {
	d := Subtotal(c).Sub(c.DiscountAmount)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Tax applies the policy rate to the discounted subtotal.
func (p Policy) Tax(c *cart.Cart) decimal.Decimal {
	return DiscountedSubtotal(c).Mul(p.taxRate)
}

// GrandTotal is the discounted subtotal plus tax.
func (p Policy) GrandTotal(c *cart.Cart) decimal.Decimal {
	return DiscountedSubtotal(c).Add(p.Tax(c))
}

// Totals is a consistent set of figures computed from one cart snapshot.
// The order text and the sale record both derive from the same Totals
// value so the customer-facing and recorded amounts cannot drift.
type Totals struct {
	Subtotal           decimal.Decimal `json:"subtotal"`
	Discount           decimal.Decimal `json:"discount"`
	DiscountedSubtotal decimal.Decimal `json:"discounted_subtotal"`
	Tax                decimal.Decimal `json:"tax"`
	GrandTotal         decimal.Decimal `json:"grand_total"`
	TaxRate            decimal.Decimal `json:"tax_rate"`
	CouponCode         string          `json:"coupon_code,omitempty"`
}

// Compute evaluates all totals for the cart, rounded to two places.
func (p Policy) Compute(c *cart.Cart) Totals {
	subtotal := Subtotal(c).Round(2)
	discount := c.DiscountAmount.Round(2)

	discounted := subtotal.Sub(discount)
	if discounted.IsNegative() {
		discounted = decimal.Zero
	}

	tax := discounted.Mul(p.taxRate).Round(2)

	return Totals{
		Subtotal:           subtotal,
		Discount:           discount,
		DiscountedSubtotal: discounted,
		Tax:                tax,
		GrandTotal:         discounted.Add(tax),
		TaxRate:            p.taxRate,
		CouponCode:         c.CouponCode,
	}
}
