package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"storefront-system/internal/cart"
	"storefront-system/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLineTotal_ItemWithOption(t *testing.T) {
	line := cart.Line{
		UnitPrice: dec("100.00"),
		SelectedOptions: []models.ItemOption{
			{Name: "Queso Extra", Price: dec("20.00")},
		},
		Qty: 2,
	}

	assert.True(t, LineTotal(line).Equal(dec("240.00")), "got %s", LineTotal(line))
	assert.True(t, LineUnitPrice(line).Equal(dec("120.00")))
}

func TestSubtotal_SumsLines(t *testing.T) {
	c := cart.New()
	c.AddItem(models.MenuItem{ID: "a", Price: dec("100.00")}, 2,
		[]models.ItemOption{{Name: "Queso Extra", Price: dec("20.00")}}, "")
	c.AddItem(models.MenuItem{ID: "b", Price: dec("75.50")}, 1, nil, "")

	assert.True(t, Subtotal(c).Equal(dec("315.50")), "got %s", Subtotal(c))
}

func TestCompute_TenPercentCouponScenario(t *testing.T) {
	c := cart.New()
	c.AddItem(models.MenuItem{ID: "a", Price: dec("100.00")}, 2,
		[]models.ItemOption{{Name: "Queso Extra", Price: dec("20.00")}}, "")
	c.ApplyDiscount(dec("24.00"), "SAVE10")

	totals := NewPolicy(DefaultTaxRate).Compute(c)

	assert.True(t, totals.Subtotal.Equal(dec("240.00")), "subtotal %s", totals.Subtotal)
	assert.True(t, totals.Discount.Equal(dec("24.00")), "discount %s", totals.Discount)
	assert.True(t, totals.DiscountedSubtotal.Equal(dec("216.00")), "discounted %s", totals.DiscountedSubtotal)
	assert.True(t, totals.Tax.Equal(dec("38.88")), "tax %s", totals.Tax)
	assert.True(t, totals.GrandTotal.Equal(dec("254.88")), "total %s", totals.GrandTotal)
	assert.Equal(t, "SAVE10", totals.CouponCode)
}

func TestCompute_EmptyCart(t *testing.T) {
	totals := NewPolicy(DefaultTaxRate).Compute(cart.New())
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.GrandTotal.IsZero())
	assert.Equal(t, "", totals.CouponCode)
}

func TestDiscountedSubtotal_ClampedAtZero(t *testing.T) {
	c := cart.New()
	c.AddItem(models.MenuItem{ID: "a", Price: dec("50.00")}, 1, nil, "")
	c.ApplyDiscount(dec("80.00"), "BIG")

	assert.True(t, DiscountedSubtotal(c).IsZero())

	totals := NewPolicy(DefaultTaxRate).Compute(c)
	assert.True(t, totals.DiscountedSubtotal.IsZero())
	assert.True(t, totals.Tax.IsZero())
	assert.True(t, totals.GrandTotal.IsZero())
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "RD$0.00"},
		{"5", "RD$5.00"},
		{"254.88", "RD$254.88"},
		{"1234.5", "RD$1,234.50"},
		{"1234567.891", "RD$1,234,567.89"},
		{"-42.10", "RD$-42.10"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(dec(tt.in)))
	}
}
