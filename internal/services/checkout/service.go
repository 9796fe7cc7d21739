// Package checkout is the order-composition controller: it owns the cart
// sessions, dispatches every storefront command against them, and runs
// the final handoff. All cart mutations for a session are serialized;
// the only suspending operation is the coupon redemption round trip.
package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront-system/internal/cart"
	"storefront-system/internal/catalog"
	"storefront-system/internal/config"
	"storefront-system/internal/coupon"
	"storefront-system/internal/logger"
	"storefront-system/internal/models"
	"storefront-system/internal/pricing"
	"storefront-system/internal/summary"
)

// Catalog supplies the current menu snapshot.
type Catalog interface {
	Current() *catalog.Snapshot
}

// Redeemer runs the atomic coupon redemption protocol.
type Redeemer interface {
	Redeem(ctx context.Context, uid, code string, subtotal decimal.Decimal) (*coupon.Result, error)
}

// ProfileLookup resolves authenticated users to their profiles.
type ProfileLookup interface {
	Lookup(ctx context.Context, uid string) (*models.UserProfile, error)
}

// SaleStore persists finalized sale records.
type SaleStore interface {
	InsertSale(ctx context.Context, record *models.SaleRecord) error
}

// Notifier fans out order-placed notifications.
type Notifier interface {
	PublishOrderPlaced(ctx context.Context, msg interface{}) error
}

// Pinger reports store connectivity for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Session owns one cart exclusively. redeeming is the re-entry guard for
// the coupon round trip: while set, further redemption or checkout
// commands are rejected instead of queued.
type Session struct {
	ID string

	mu        sync.Mutex
	cart      *cart.Cart
	redeeming bool
}

// OrderPlacedMessage is the notification fanned out after a checkout.
type OrderPlacedMessage struct {
	SaleID    string `json:"sale_id"`
	Total     string `json:"total"`
	ItemCount int    `json:"item_count"`
	UserID    string `json:"user_id"`
	Address   string `json:"address"`
}

// Service dispatches storefront commands.
type Service struct {
	db       Pinger
	catalog  Catalog
	coupons  Redeemer
	profiles ProfileLookup
	sales    SaleStore
	notifier Notifier
	policy   pricing.Policy
	store    config.StoreConfig
	logger   *logger.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewService wires the checkout controller.
func NewService(db Pinger, cat Catalog, coupons Redeemer, profiles ProfileLookup,
	sales SaleStore, notifier Notifier, policy pricing.Policy,
	store config.StoreConfig, log *logger.Logger) *Service {
	return &Service{
		db:       db,
		catalog:  cat,
		coupons:  coupons,
		profiles: profiles,
		sales:    sales,
		notifier: notifier,
		policy:   policy,
		store:    store,
		logger:   log,
		sessions: make(map[string]*Session),
	}
}

// Session returns the session for id, creating a fresh one when id is
// empty or unknown.
func (s *Service) Session(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if sess, ok := s.sessions[id]; ok {
			return sess
		}
	}

	sess := &Session{
		ID:   uuid.NewString(),
		cart: cart.New(),
	}
	s.sessions[sess.ID] = sess
	return sess
}

// AddItem adds qty units of the catalog item with the named options and
// per-line comment, merging into an existing line when identical.
func (s *Service) AddItem(sess *Session, itemID string, qty int, optionNames []string, comment string) (*CartView, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}

	snapshot := s.catalog.Current()
	if snapshot == nil {
		return nil, ErrCatalogUnavailable
	}

	item, ok := snapshot.Item(itemID)
	if !ok || !item.Visible {
		return nil, ErrItemNotFound
	}

	selected, err := resolveOptions(item, optionNames)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.cart.AddItem(item, qty, selected, comment)
	return s.viewLocked(sess), nil
}

// resolveOptions maps requested option names onto the item's parsed
// option specs, preserving the item's option order.
func resolveOptions(item models.MenuItem, names []string) ([]models.ItemOption, error) {
	if len(names) == 0 {
		return nil, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	var selected []models.ItemOption
	for _, opt := range item.ParsedOptions() {
		if wanted[opt.Name] {
			selected = append(selected, opt)
			delete(wanted, opt.Name)
		}
	}

	if len(wanted) > 0 {
		for name := range wanted {
			return nil, fmt.Errorf("%w: %s", ErrUnknownOption, name)
		}
	}
	return selected, nil
}

// AdjustQty applies a quantity delta to the line at index.
func (s *Service) AdjustQty(sess *Session, index, delta int) *CartView {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.cart.AdjustQty(index, delta)
	return s.viewLocked(sess)
}

// Clear empties the cart and resets comment and discount state.
func (s *Service) Clear(sess *Session) *CartView {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.cart.Clear()
	return s.viewLocked(sess)
}

// SetComment replaces the order-level comment.
func (s *Service) SetComment(sess *Session, comment string) *CartView {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.cart.SetGeneralComment(comment)
	return s.viewLocked(sess)
}

// SetLocation sets the delivery location from a manual or geocoded
// address.
func (s *Service) SetLocation(sess *Session, loc cart.Location) (*CartView, error) {
	if loc.Address == "" {
		return nil, ErrMissingAddress
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.cart.SetLocation(loc)
	return s.viewLocked(sess), nil
}

// UseSavedAddress copies the user's stored address onto the cart.
func (s *Service) UseSavedAddress(ctx context.Context, sess *Session, uid string) (*CartView, error) {
	profile, err := s.profiles.Lookup(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to look up profile: %w", err)
	}
	if profile == nil || profile.SavedAddress == "" {
		return nil, ErrNoSavedAddress
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.cart.SetLocation(cart.Location{Address: profile.SavedAddress})
	return s.viewLocked(sess), nil
}

// ApplyCoupon runs the redemption protocol for the session's cart. The
// session's busy flag rejects re-entrant submissions for the duration of
// the store round trip. On failure the discount state is reset; on
// success it is replaced. Either way totals are recomputed before the
// command returns, so later mutations are causally ordered after the
// redemption outcome.
func (s *Service) ApplyCoupon(ctx context.Context, sess *Session, uid, code string) (*CartView, error) {
	sess.mu.Lock()
	if sess.redeeming {
		sess.mu.Unlock()
		return nil, ErrRedemptionInProgress
	}
	sess.redeeming = true
	subtotal := pricing.Subtotal(sess.cart)
	sess.mu.Unlock()

	result, err := s.coupons.Redeem(ctx, uid, code, subtotal)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.redeeming = false

	if err != nil {
		sess.cart.ResetDiscount()
		return nil, err
	}

	sess.cart.ApplyDiscount(result.Discount, result.Code)
	return s.viewLocked(sess), nil
}

// Checkout finalizes the order: precondition checks, canonical order
// text and sale record from one set of totals, best-effort persistence
// and notification, then a cart reset. The WhatsApp URL is the actual
// handoff; a failed sale write is logged as transient and never blocks
// it, matching how the storefront treats sales reporting.
func (s *Service) Checkout(ctx context.Context, sess *Session, uid string) (*CheckoutResult, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.redeeming {
		return nil, ErrRedemptionInProgress
	}
	if sess.cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if !sess.cart.HasAddress() {
		return nil, ErrMissingAddress
	}

	totals := s.policy.Compute(sess.cart)
	text := summary.BuildOrderText(sess.cart, totals, s.store.Name)
	record := summary.BuildSaleRecord(sess.cart, totals, uid)
	record.ID = uuid.NewString()

	result := &CheckoutResult{
		SaleID:      record.ID,
		OrderText:   text,
		WhatsAppURL: summary.WhatsAppURL(s.store.Phone, text),
		Total:       pricing.Format(totals.GrandTotal),
	}
	if s.store.MapsAPIKey != "" {
		result.StaticMapURL = summary.StaticMapURL(sess.cart.Location.Address, s.store.MapsAPIKey)
	}

	if err := s.sales.InsertSale(ctx, record); err != nil {
		s.logger.Error("sale_record_failed", "Failed to persist sale record", "", err, map[string]interface{}{
			"sale_id": record.ID,
		})
	}

	msg := OrderPlacedMessage{
		SaleID:    record.ID,
		Total:     totals.GrandTotal.StringFixed(2),
		ItemCount: sess.cart.TotalItems(),
		UserID:    record.UserID,
		Address:   sess.cart.Location.Address,
	}
	if err := s.notifier.PublishOrderPlaced(ctx, msg); err != nil {
		s.logger.Error("order_notification_failed", "Failed to publish order notification", "", err, map[string]interface{}{
			"sale_id": record.ID,
		})
	}

	s.logger.Info("order_placed", "Order handed off", "", map[string]interface{}{
		"sale_id": record.ID,
		"total":   totals.GrandTotal.StringFixed(2),
		"user_id": record.UserID,
	})

	sess.cart.Clear()
	return result, nil
}

// View returns the current cart view for the session.
func (s *Service) View(sess *Session) *CartView {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.viewLocked(sess)
}

// Menu returns the customer-facing catalog view.
func (s *Service) Menu() (*MenuView, error) {
	snapshot := s.catalog.Current()
	if snapshot == nil {
		return nil, ErrCatalogUnavailable
	}
	return buildMenuView(snapshot), nil
}

// HealthCheck reports whether the store is reachable and a catalog
// snapshot is loaded.
func (s *Service) HealthCheck(ctx context.Context) bool {
	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			return false
		}
	}
	return s.catalog.Current() != nil
}
