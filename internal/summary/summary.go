// Package summary renders a finalized cart into the canonical order
// text handed to the operator and the sale record that gets persisted.
// Both outputs derive from the same pricing.Totals value so the amounts
// the customer sees and the amounts recorded can never drift.
package summary

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"storefront-system/internal/cart"
	"storefront-system/internal/models"
	"storefront-system/internal/pricing"
)

// BuildOrderText produces the canonical multi-line order message.
func BuildOrderText(c *cart.Cart, totals pricing.Totals, storeName string) string {
	lines := []string{fmt.Sprintf("*Pedido — %s*", storeName)}

	for _, line := range c.Lines {
		unit := pricing.LineUnitPrice(line)
		lines = append(lines, fmt.Sprintf("• %dx - %s (%s c/u)", line.Qty, line.Name, pricing.Format(unit)))

		for _, opt := range line.SelectedOptions {
			if opt.Price.IsPositive() {
				lines = append(lines, fmt.Sprintf("  - %s (+%s)", opt.Name, pricing.Format(opt.Price)))
			} else {
				lines = append(lines, "  - "+opt.Name)
			}
		}
		if line.Comment != "" {
			lines = append(lines, "  - Nota: "+line.Comment)
		}
	}

	lines = append(lines, "\n--------------------", "Subtotal: "+pricing.Format(totals.Subtotal))
	if totals.Discount.IsPositive() {
		lines = append(lines, fmt.Sprintf("Descuento (%s): -%s", totals.CouponCode, pricing.Format(totals.Discount)))
	}
	lines = append(lines,
		fmt.Sprintf("ITBIS (%s%%): %s", taxPercent(totals), pricing.Format(totals.Tax)),
		fmt.Sprintf("*Total: %s*", pricing.Format(totals.GrandTotal)),
	)

	if c.HasAddress() {
		lines = append(lines, "\n*Dirección:*", c.Location.Address)
		if c.Location.HasCoords {
			lines = append(lines, fmt.Sprintf("(https://maps.google.com/?q=%s,%s)",
				formatCoord(c.Location.Lat), formatCoord(c.Location.Lng)))
		}
	} else {
		lines = append(lines, "\n*El cliente no especificó una ubicación.*")
	}

	if c.GeneralComment != "" {
		lines = append(lines, "\n*Comentario General:* "+c.GeneralComment)
	}
	lines = append(lines, "\n\nPor favor, confírmeme su nombre para completar el pedido.")

	return strings.Join(lines, "\n")
}

func taxPercent(totals pricing.Totals) string {
	return totals.TaxRate.Mul(decimal.NewFromInt(100)).String()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WhatsAppURL builds the handoff link for the operator's number with the
// order text percent-encoded.
func WhatsAppURL(phone, text string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return fmt.Sprintf("https://wa.me/%s?text=%s", phone, encoded)
}

// StaticMapURL builds a static map preview request for the confirmed
// address. Display only; not part of order correctness.
func StaticMapURL(address, apiKey string) string {
	encoded := url.QueryEscape(address)
	return fmt.Sprintf(
		"https://maps.googleapis.com/maps/api/staticmap?center=%s&zoom=16&size=600x300&markers=color:red%%7C%s&key=%s",
		encoded, encoded, apiKey)
}

// BuildSaleRecord produces the persisted snapshot of the finalized
// order. Item prices are the base unit prices; option names are
// flattened into one string per line, as the sales reporting expects.
func BuildSaleRecord(c *cart.Cart, totals pricing.Totals, uid string) *models.SaleRecord {
	if uid == "" {
		uid = models.AnonymousUser
	}

	items := make([]models.SaleItem, len(c.Lines))
	for i, line := range c.Lines {
		names := make([]string, len(line.SelectedOptions))
		for j, opt := range line.SelectedOptions {
			names[j] = opt.Name
		}
		items[i] = models.SaleItem{
			Name:    line.Name,
			Qty:     line.Qty,
			Price:   line.UnitPrice,
			Options: strings.Join(names, ", "),
			Comment: line.Comment,
		}
	}

	return &models.SaleRecord{
		Total:  totals.GrandTotal,
		Items:  items,
		UserID: uid,
	}
}
