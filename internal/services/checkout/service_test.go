package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-system/internal/cart"
	"storefront-system/internal/catalog"
	"storefront-system/internal/config"
	"storefront-system/internal/coupon"
	"storefront-system/internal/logger"
	"storefront-system/internal/models"
	"storefront-system/internal/pricing"
)

type fakeCatalog struct {
	snapshot *catalog.Snapshot
}

func (f *fakeCatalog) Current() *catalog.Snapshot { return f.snapshot }

// fakeRedeemer optionally blocks on release, so tests can hold a
// redemption open while issuing other commands.
type fakeRedeemer struct {
	result  *coupon.Result
	err     error
	release chan struct{}

	mu    sync.Mutex
	calls int
}

func (f *fakeRedeemer) Redeem(ctx context.Context, uid, code string, subtotal decimal.Decimal) (*coupon.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeProfiles struct {
	profile *models.UserProfile
	err     error
}

func (f *fakeProfiles) Lookup(ctx context.Context, uid string) (*models.UserProfile, error) {
	return f.profile, f.err
}

type fakeSales struct {
	mu      sync.Mutex
	records []*models.SaleRecord
	err     error
}

func (f *fakeSales) InsertSale(ctx context.Context, record *models.SaleRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []interface{}
	err  error
}

func (f *fakeNotifier) PublishOrderPlaced(ctx context.Context, msg interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func testSnapshot() *catalog.Snapshot {
	categories := []models.Category{
		{ID: "cat-main", Name: "Platos Principales", Position: 1},
		{ID: "cat-empty", Name: "Postres", Position: 2},
	}
	items := []models.MenuItem{
		{
			ID:         "mofongo",
			CategoryID: "cat-main",
			Name:       "Mofongo",
			Price:      decimal.RequireFromString("100.00"),
			Options:    []string{"Queso Extra (+RD$20.00)", "Sin Ajo"},
			Visible:    true,
		},
		{
			ID:         "secret",
			CategoryID: "cat-main",
			Name:       "Especial",
			Price:      decimal.RequireFromString("250.00"),
			Visible:    false,
		},
	}
	return catalog.NewSnapshot(categories, items)
}

type testEnv struct {
	service  *Service
	catalog  *fakeCatalog
	redeemer *fakeRedeemer
	profiles *fakeProfiles
	sales    *fakeSales
	notifier *fakeNotifier
}

func newTestEnv() *testEnv {
	env := &testEnv{
		catalog:  &fakeCatalog{snapshot: testSnapshot()},
		redeemer: &fakeRedeemer{},
		profiles: &fakeProfiles{},
		sales:    &fakeSales{},
		notifier: &fakeNotifier{},
	}
	store := config.StoreConfig{
		Name:    "Palau",
		Phone:   "18495142209",
		TaxRate: pricing.DefaultTaxRate,
	}
	env.service = NewService(nil, env.catalog, env.redeemer, env.profiles,
		env.sales, env.notifier, pricing.NewPolicy(store.TaxRate), store,
		logger.New("checkout-test"))
	return env
}

func TestSession_ReusesExisting(t *testing.T) {
	env := newTestEnv()

	first := env.service.Session("")
	require.NotEmpty(t, first.ID)

	same := env.service.Session(first.ID)
	assert.Same(t, first, same)

	fresh := env.service.Session("unknown-id")
	assert.NotEqual(t, first.ID, fresh.ID)
}

func TestAddItem_MergesIdenticalLines(t *testing.T) {
	env := newTestEnv()
	sess := env.service.Session("")

	view, err := env.service.AddItem(sess, "mofongo", 1, []string{"Queso Extra"}, "")
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)

	view, err = env.service.AddItem(sess, "mofongo", 1, []string{"Queso Extra"}, "")
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 2, view.Lines[0].Qty)
	assert.Equal(t, 2, view.TotalItems)

	// 2 x (100 + 20) = 240, ITBIS 43.20.
	assert.Equal(t, "RD$240.00", view.Totals.Subtotal)
	assert.Equal(t, "RD$43.20", view.Totals.Tax)
	assert.Equal(t, "RD$283.20", view.Totals.GrandTotal)
}

func TestAddItem_DistinctCommentIsNewLine(t *testing.T) {
	env := newTestEnv()
	sess := env.service.Session("")

	_, err := env.service.AddItem(sess, "mofongo", 1, nil, "")
	require.NoError(t, err)
	view, err := env.service.AddItem(sess, "mofongo", 1, nil, "bien cocido")
	require.NoError(t, err)

	assert.Len(t, view.Lines, 2)
}

func TestAddItem_Validation(t *testing.T) {
	env := newTestEnv()
	sess := env.service.Session("")

	_, err := env.service.AddItem(sess, "mofongo", 0, nil, "")
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = env.service.AddItem(sess, "missing", 1, nil, "")
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = env.service.AddItem(sess, "secret", 1, nil, "")
	assert.ErrorIs(t, err, ErrItemNotFound, "hidden items are not orderable")

	_, err = env.service.AddItem(sess, "mofongo", 1, []string{"Doble Carne"}, "")
	assert.ErrorIs(t, err, ErrUnknownOption)
}

func TestAddItem_CatalogUnavailable(t *testing.T) {
	env := newTestEnv()
	env.catalog.snapshot = nil
	sess := env.service.Session("")

	_, err := env.service.AddItem(sess, "mofongo", 1, nil, "")
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}

func TestAdjustQty_RemovesAtZero(t *testing.T) {
	env := newTestEnv()
	sess := env.service.Session("")

	_, err := env.service.AddItem(sess, "mofongo", 2, nil, "")
	require.NoError(t, err)

	view := env.service.AdjustQty(sess, 0, -1)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 1, view.Lines[0].Qty)

	view = env.service.AdjustQty(sess, 0, -1)
	assert.Empty(t, view.Lines)

	// Out-of-range index is a no-op.
	view = env.service.AdjustQty(sess, 5, 1)
	assert.Empty(t, view.Lines)
}

func TestClear_KeepsLocation(t *testing.T) {
	env := newTestEnv()
	sess := env.service.Session("")

	_, err := env.service.AddItem(sess, "mofongo", 1, nil, "")
	require.NoError(t, err)
	_, err = env.service.SetLocation(sess, cart.Location{Address: "Calle El Sol 42"})
	require.NoError(t, err)
	env.service.SetComment(sess, "sin servilletas")

	view := env.service.Clear(sess)
	assert.Empty(t, view.Lines)
	assert.Empty(t, view.GeneralComment)
	assert.Equal(t, "Calle El Sol 42", view.Location.Address)
}

func TestSetLocation_RequiresAddress(t *testing.T) {
	env := newTestEnv()
	sess := env.service.Session("")

	_, err := env.service.SetLocation(sess, cart.Location{})
	assert.ErrorIs(t, err, ErrMissingAddress)
}

func TestUseSavedAddress(t *testing.T) {
	env := newTestEnv()
	sess := env.service.Session("")

	_, err := env.service.UseSavedAddress(context.Background(), sess, "user-1")
	assert.ErrorIs(t, err, ErrNoSavedAddress)

	env.profiles.profile = &models.UserProfile{UID: "user-1", SavedAddress: "Av. Duarte 7"}
	view, err := env.service.UseSavedAddress(context.Background(), sess, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Av. Duarte 7", view.Location.Address)
}

func TestApplyCoupon_Success(t *testing.T) {
	env := newTestEnv()
	sess := env.service.Session("")

	_, err := env.service.AddItem(sess, "mofongo", 2, []string{"Queso Extra"}, "")
	require.NoError(t, err)

	env.redeemer.result = &coupon.Result{
		Code:     "SAVE10",
		Discount: decimal.RequireFromString("24.00"),
	}

	view, err := env.service.ApplyCoupon(context.Background(), sess, "user-1", "save10")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", view.Totals.CouponCode)
	assert.Equal(t, "-RD$24.00", view.Totals.Discount)
	// ITBIS applies to the discounted subtotal: (240-24) * 0.18.
	assert.Equal(t, "RD$38.88", view.Totals.Tax)
	assert.Equal(t, "RD$254.88", view.Totals.GrandTotal)
}

func TestApplyCoupon_FailureResetsDiscount(t *testing.T) {
	env := newTestEnv()
	sess := env.service.Session("")

	_, err := env.service.AddItem(sess, "mofongo", 2, nil, "")
	require.NoError(t, err)

	env.redeemer.result = &coupon.Result{
		Code:     "SAVE10",
		Discount: decimal.RequireFromString("20.00"),
	}
	_, err = env.service.ApplyCoupon(context.Background(), sess, "user-1", "SAVE10")
	require.NoError(t, err)

	env.redeemer.err = coupon.ErrLimitReached
	_, err = env.service.ApplyCoupon(context.Background(), sess, "user-1", "OTHER")
	assert.ErrorIs(t, err, coupon.ErrLimitReached)

	view := env.service.View(sess)
	assert.Empty(t, view.Totals.CouponCode, "failed redemption must drop the previous discount")
	assert.Empty(t, view.Totals.Discount)
}

func TestApplyCoupon_RejectsReentry(t *testing.T) {
	env := newTestEnv()
	sess := env.service.Session("")

	_, err := env.service.AddItem(sess, "mofongo", 2, nil, "")
	require.NoError(t, err)

	env.redeemer.release = make(chan struct{})
	env.redeemer.result = &coupon.Result{Code: "SAVE10", Discount: decimal.RequireFromString("24.00")}

	done := make(chan error, 1)
	go func() {
		_, err := env.service.ApplyCoupon(context.Background(), sess, "user-1", "SAVE10")
		done <- err
	}()

	// Wait until the first redemption is inside the store round trip.
	require.Eventually(t, func() bool {
		env.redeemer.mu.Lock()
		defer env.redeemer.mu.Unlock()
		return env.redeemer.calls == 1
	}, time.Second, time.Millisecond)

	_, err = env.service.ApplyCoupon(context.Background(), sess, "user-1", "SAVE10")
	assert.ErrorIs(t, err, ErrRedemptionInProgress)

	_, err = env.service.Checkout(context.Background(), sess, "user-1")
	assert.ErrorIs(t, err, ErrRedemptionInProgress)

	close(env.redeemer.release)
	require.NoError(t, <-done)
}

func TestCheckout_Preconditions(t *testing.T) {
	env := newTestEnv()
	sess := env.service.Session("")

	_, err := env.service.Checkout(context.Background(), sess, "user-1")
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = env.service.AddItem(sess, "mofongo", 1, nil, "")
	require.NoError(t, err)

	_, err = env.service.Checkout(context.Background(), sess, "user-1")
	assert.ErrorIs(t, err, ErrMissingAddress)
}

func TestCheckout_Success(t *testing.T) {
	env := newTestEnv()
	sess := env.service.Session("")

	_, err := env.service.AddItem(sess, "mofongo", 2, []string{"Queso Extra"}, "")
	require.NoError(t, err)
	_, err = env.service.SetLocation(sess, cart.Location{Address: "Calle El Sol 42"})
	require.NoError(t, err)

	result, err := env.service.Checkout(context.Background(), sess, "user-1")
	require.NoError(t, err)

	assert.NotEmpty(t, result.SaleID)
	assert.Equal(t, "RD$283.20", result.Total)
	assert.Contains(t, result.OrderText, "Mofongo")
	assert.Contains(t, result.OrderText, "Calle El Sol 42")
	assert.True(t, strings.HasPrefix(result.WhatsAppURL, "https://wa.me/18495142209?text="))
	assert.NotContains(t, result.WhatsAppURL, "+", "spaces must encode as %20")

	require.Len(t, env.sales.records, 1)
	record := env.sales.records[0]
	assert.Equal(t, result.SaleID, record.ID)
	assert.Equal(t, "user-1", record.UserID)
	assert.True(t, record.Total.Equal(decimal.RequireFromString("283.20")))
	require.Len(t, record.Items, 1)
	assert.True(t, record.Items[0].Price.Equal(decimal.RequireFromString("100.00")),
		"sale items carry the base unit price")

	require.Len(t, env.notifier.msgs, 1)
	msg, ok := env.notifier.msgs[0].(OrderPlacedMessage)
	require.True(t, ok)
	assert.Equal(t, result.SaleID, msg.SaleID)
	assert.Equal(t, "283.20", msg.Total)

	view := env.service.View(sess)
	assert.Empty(t, view.Lines, "checkout clears the cart")
	assert.Equal(t, "Calle El Sol 42", view.Location.Address)
}

func TestCheckout_SaleWriteFailureDoesNotBlock(t *testing.T) {
	env := newTestEnv()
	env.sales.err = errors.New("connection refused")
	sess := env.service.Session("")

	_, err := env.service.AddItem(sess, "mofongo", 1, nil, "")
	require.NoError(t, err)
	_, err = env.service.SetLocation(sess, cart.Location{Address: "Calle El Sol 42"})
	require.NoError(t, err)

	result, err := env.service.Checkout(context.Background(), sess, "user-1")
	require.NoError(t, err, "the WhatsApp handoff is the source of truth")
	assert.NotEmpty(t, result.WhatsAppURL)
}

func TestMenu(t *testing.T) {
	env := newTestEnv()

	view, err := env.service.Menu()
	require.NoError(t, err)
	require.Len(t, view.Categories, 1, "empty categories are hidden")
	assert.Equal(t, "Platos Principales", view.Categories[0].Name)
	require.Len(t, view.Categories[0].Items, 1, "invisible items are hidden")

	item := view.Categories[0].Items[0]
	assert.Equal(t, "RD$100.00", item.Price)
	require.Len(t, item.Options, 2)
	assert.Equal(t, "Queso Extra", item.Options[0].Name)
	assert.True(t, item.Options[0].Price.Equal(decimal.RequireFromString("20.00")))

	env.catalog.snapshot = nil
	_, err = env.service.Menu()
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}
