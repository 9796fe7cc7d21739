package checkout

import (
	"storefront-system/internal/cart"
	"storefront-system/internal/catalog"
	"storefront-system/internal/models"
	"storefront-system/internal/pricing"
)

// LineView is a cart line as presented to the client.
type LineView struct {
	ItemID    string              `json:"item_id"`
	Name      string              `json:"name"`
	Qty       int                 `json:"qty"`
	Options   []models.ItemOption `json:"options,omitempty"`
	Comment   string              `json:"comment,omitempty"`
	UnitPrice string              `json:"unit_price"`
	LineTotal string              `json:"line_total"`
}

// TotalsView carries the formatted monetary figures.
type TotalsView struct {
	Subtotal   string `json:"subtotal"`
	Discount   string `json:"discount,omitempty"`
	CouponCode string `json:"coupon_code,omitempty"`
	Tax        string `json:"tax"`
	GrandTotal string `json:"grand_total"`
}

// CartView is the full cart state returned by every cart command.
type CartView struct {
	SessionID      string        `json:"session_id"`
	Lines          []LineView    `json:"lines"`
	TotalItems     int           `json:"total_items"`
	GeneralComment string        `json:"general_comment,omitempty"`
	Location       cart.Location `json:"location"`
	Totals         TotalsView    `json:"totals"`
}

// CheckoutResult is the handoff payload for a finalized order.
type CheckoutResult struct {
	SaleID       string `json:"sale_id"`
	OrderText    string `json:"order_text"`
	WhatsAppURL  string `json:"whatsapp_url"`
	StaticMapURL string `json:"static_map_url,omitempty"`
	Total        string `json:"total"`
}

// MenuItemView is a catalog entry with its option specs parsed.
type MenuItemView struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Price       string              `json:"price"`
	Options     []models.ItemOption `json:"options,omitempty"`
}

// MenuCategoryView groups visible items under one category.
type MenuCategoryView struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Items []MenuItemView `json:"items"`
}

// MenuView is the customer-facing catalog.
type MenuView struct {
	Categories []MenuCategoryView `json:"categories"`
}

// viewLocked builds the cart view; the caller holds the session lock.
func (s *Service) viewLocked(sess *Session) *CartView {
	totals := s.policy.Compute(sess.cart)

	lines := make([]LineView, len(sess.cart.Lines))
	for i, line := range sess.cart.Lines {
		lines[i] = LineView{
			ItemID:    line.ItemID,
			Name:      line.Name,
			Qty:       line.Qty,
			Options:   line.SelectedOptions,
			Comment:   line.Comment,
			UnitPrice: pricing.Format(pricing.LineUnitPrice(line)),
			LineTotal: pricing.Format(pricing.LineTotal(line)),
		}
	}

	view := &CartView{
		SessionID:      sess.ID,
		Lines:          lines,
		TotalItems:     sess.cart.TotalItems(),
		GeneralComment: sess.cart.GeneralComment,
		Location:       sess.cart.Location,
		Totals: TotalsView{
			Subtotal:   pricing.Format(totals.Subtotal),
			Tax:        pricing.Format(totals.Tax),
			GrandTotal: pricing.Format(totals.GrandTotal),
		},
	}

	if totals.Discount.IsPositive() {
		view.Totals.Discount = "-" + pricing.Format(totals.Discount)
		view.Totals.CouponCode = totals.CouponCode
	}

	return view
}

func buildMenuView(snapshot *catalog.Snapshot) *MenuView {
	itemsByCategory := make(map[string][]MenuItemView)
	for _, item := range snapshot.VisibleItems() {
		itemsByCategory[item.CategoryID] = append(itemsByCategory[item.CategoryID], MenuItemView{
			ID:          item.ID,
			Name:        item.Name,
			Description: item.Description,
			Price:       pricing.Format(item.Price),
			Options:     item.ParsedOptions(),
		})
	}

	view := &MenuView{}
	for _, category := range snapshot.Categories {
		items := itemsByCategory[category.ID]
		if len(items) == 0 {
			continue
		}
		view.Categories = append(view.Categories, MenuCategoryView{
			ID:    category.ID,
			Name:  category.Name,
			Items: items,
		})
	}
	return view
}
