package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-system/internal/models"
)

func burger() models.MenuItem {
	return models.MenuItem{
		ID:    "it_burger",
		Name:  "Burger",
		Price: decimal.RequireFromString("250.00"),
	}
}

func cheese() models.ItemOption {
	return models.ItemOption{Name: "Queso Extra", Price: decimal.RequireFromString("50.00")}
}

func bacon() models.ItemOption {
	return models.ItemOption{Name: "Tocineta", Price: decimal.RequireFromString("35.00")}
}

func TestLineIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		options []models.ItemOption
		comment string
		want    string
	}{
		{
			name:    "no options no comment",
			options: nil,
			comment: "",
			want:    "it_burger--no-comment",
		},
		{
			name:    "options sorted regardless of selection order",
			options: []models.ItemOption{cheese(), bacon()},
			comment: "",
			want:    "it_burger-Queso Extra,Tocineta-no-comment",
		},
		{
			name:    "comment included",
			options: nil,
			comment: "sin sal",
			want:    "it_burger--sin sal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LineIdentifier("it_burger", tt.options, tt.comment))
		})
	}
}

func TestAddItem_MergesIdenticalLines(t *testing.T) {
	c := New()
	c.AddItem(burger(), 1, []models.ItemOption{bacon(), cheese()}, "sin sal")
	c.AddItem(burger(), 2, []models.ItemOption{cheese(), bacon()}, "sin sal")

	require.Len(t, c.Lines, 1)
	assert.Equal(t, 3, c.Lines[0].Qty)
	assert.Equal(t, 3, c.TotalItems())
}

func TestAddItem_DistinctCommentCreatesNewLine(t *testing.T) {
	c := New()
	c.AddItem(burger(), 1, nil, "")
	c.AddItem(burger(), 1, nil, "sin sal")
	c.AddItem(burger(), 1, []models.ItemOption{cheese()}, "")

	assert.Len(t, c.Lines, 3)
}

func TestAdjustQty(t *testing.T) {
	c := New()
	c.AddItem(burger(), 2, nil, "")
	c.AddItem(burger(), 1, nil, "sin sal")

	c.AdjustQty(0, 1)
	assert.Equal(t, 3, c.Lines[0].Qty)

	// Driving qty to zero removes exactly one line.
	c.AdjustQty(1, -1)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, "it_burger--no-comment", c.Lines[0].Identifier)

	// Out-of-range indexes are ignored.
	c.AdjustQty(5, 1)
	c.AdjustQty(-1, 1)
	assert.Len(t, c.Lines, 1)
}

func TestClear(t *testing.T) {
	c := New()
	c.AddItem(burger(), 2, nil, "")
	c.SetGeneralComment("tocar timbre")
	c.ApplyDiscount(decimal.RequireFromString("24.00"), "SAVE10")
	c.SetLocation(Location{Address: "Calle 5 #10"})

	c.Clear()

	assert.True(t, c.IsEmpty())
	assert.Equal(t, "", c.GeneralComment)
	assert.Equal(t, "", c.CouponCode)
	assert.True(t, c.DiscountAmount.IsZero())
	// Location survives a clear; it belongs to the session, not the order.
	assert.True(t, c.HasAddress())
}

func TestDiscountStateInvariant(t *testing.T) {
	c := New()
	c.ApplyDiscount(decimal.RequireFromString("10.00"), "SAVE10")
	assert.Equal(t, "SAVE10", c.CouponCode)
	assert.False(t, c.DiscountAmount.IsZero())

	c.ResetDiscount()
	assert.Equal(t, "", c.CouponCode)
	assert.True(t, c.DiscountAmount.IsZero())
}

func TestHasAddress(t *testing.T) {
	c := New()
	assert.False(t, c.HasAddress())
	c.SetLocation(Location{Address: "   "})
	assert.False(t, c.HasAddress())
	c.SetLocation(Location{Address: "Av. Estrella Sadhalá 99"})
	assert.True(t, c.HasAddress())
}
