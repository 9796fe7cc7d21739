package cart

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"storefront-system/internal/models"
)

// Location is the delivery destination. HasCoords reports whether the
// address was resolved through the map flow and carries coordinates.
type Location struct {
	Address   string  `json:"address"`
	Lat       float64 `json:"lat,omitempty"`
	Lng       float64 `json:"lng,omitempty"`
	HasCoords bool    `json:"has_coords"`
}

// Line is one cart entry. Identifier is the merge key: additions that
// produce the same identifier increase Qty on the existing line.
type Line struct {
	ItemID          string              `json:"item_id"`
	Name            string              `json:"name"`
	UnitPrice       decimal.Decimal     `json:"unit_price"`
	SelectedOptions []models.ItemOption `json:"selected_options"`
	Comment         string              `json:"comment,omitempty"`
	Qty             int                 `json:"qty"`
	Identifier      string              `json:"identifier"`
}

// Cart holds the order being composed. It is exclusively owned by one
// session; callers serialize access.
type Cart struct {
	Lines          []Line          `json:"lines"`
	GeneralComment string          `json:"general_comment,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	CouponCode     string          `json:"coupon_code,omitempty"`
	Location       Location        `json:"location"`
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{DiscountAmount: decimal.Zero}
}

// LineIdentifier derives the deterministic merge key for an item with the
// given options and per-line comment. Option order does not matter.
func LineIdentifier(itemID string, options []models.ItemOption, comment string) string {
	names := make([]string, len(options))
	for i, opt := range options {
		names[i] = opt.Name
	}
	sort.Strings(names)

	if comment == "" {
		comment = "no-comment"
	}
	return itemID + "-" + strings.Join(names, ",") + "-" + comment
}

// AddItem adds qty units of the item to the cart, merging into an
// existing line when the identifier matches. qty must be positive; the
// caller validates it.
func (c *Cart) AddItem(item models.MenuItem, qty int, selected []models.ItemOption, comment string) {
	identifier := LineIdentifier(item.ID, selected, comment)

	for i := range c.Lines {
		if c.Lines[i].Identifier == identifier {
			c.Lines[i].Qty += qty
			return
		}
	}

	c.Lines = append(c.Lines, Line{
		ItemID:          item.ID,
		Name:            item.Name,
		UnitPrice:       item.Price,
		SelectedOptions: selected,
		Comment:         comment,
		Qty:             qty,
		Identifier:      identifier,
	})
}

// AdjustQty adds delta to the line's quantity, removing the line when it
// drops to zero or below. Out-of-range indexes are a no-op.
func (c *Cart) AdjustQty(index, delta int) {
	if index < 0 || index >= len(c.Lines) {
		return
	}
	c.Lines[index].Qty += delta
	if c.Lines[index].Qty <= 0 {
		c.Lines = append(c.Lines[:index], c.Lines[index+1:]...)
	}
}

// Clear empties the cart and resets the general comment and discount
// state. The delivery location is kept for the session.
func (c *Cart) Clear() {
	c.Lines = nil
	c.GeneralComment = ""
	c.ResetDiscount()
}

// ApplyDiscount records a successful coupon redemption.
func (c *Cart) ApplyDiscount(amount decimal.Decimal, code string) {
	c.DiscountAmount = amount
	c.CouponCode = code
}

// ResetDiscount drops the discount state. Amount and code are always set
// or cleared together.
func (c *Cart) ResetDiscount() {
	c.DiscountAmount = decimal.Zero
	c.CouponCode = ""
}

// SetGeneralComment replaces the order-level comment.
func (c *Cart) SetGeneralComment(comment string) {
	c.GeneralComment = strings.TrimSpace(comment)
}

// SetLocation replaces the delivery location.
func (c *Cart) SetLocation(loc Location) {
	c.Location = loc
}

// TotalItems returns the summed quantity across all lines.
func (c *Cart) TotalItems() int {
	total := 0
	for _, line := range c.Lines {
		total += line.Qty
	}
	return total
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// HasAddress reports whether a usable delivery address is present.
func (c *Cart) HasAddress() bool {
	return strings.TrimSpace(c.Location.Address) != ""
}
