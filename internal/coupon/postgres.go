package coupon

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"storefront-system/internal/database"
	"storefront-system/internal/models"
)

// PostgresStore backs the redemption protocol with serializable
// PostgreSQL transactions. Serialization conflicts are retried by
// database.RunSerializable; domain errors abort without retry.
type PostgresStore struct {
	db *database.DB
}

// NewPostgresStore creates a coupon store over the shared pool.
func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// RunAtomic implements Store.
func (s *PostgresStore) RunAtomic(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.RunSerializable(ctx, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) GetCoupon(ctx context.Context, code string) (*models.Coupon, error) {
	var (
		cp               models.Coupon
		minPurchase      string
		discountFraction string
	)

	row := t.tx.QueryRow(ctx, database.GetCouponSQL, code)
	err := row.Scan(&cp.Code, &cp.Active, &minPurchase, &cp.UsageLimit, &cp.UsesSoFar, &discountFraction)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read coupon: %w", err)
	}

	if cp.MinPurchase, err = decimal.NewFromString(minPurchase); err != nil {
		return nil, fmt.Errorf("invalid min_purchase for coupon %s: %w", code, err)
	}
	if cp.DiscountFraction, err = decimal.NewFromString(discountFraction); err != nil {
		return nil, fmt.Errorf("invalid discount_fraction for coupon %s: %w", code, err)
	}

	return &cp, nil
}

func (t *pgTx) GetUserCoupons(ctx context.Context, uid string) (map[string]bool, error) {
	used := make(map[string]bool)

	row := t.tx.QueryRow(ctx, database.GetUserCouponsSQL, uid)
	err := row.Scan(&used)
	if errors.Is(err, pgx.ErrNoRows) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user coupons: %w", err)
	}

	return used, nil
}

func (t *pgTx) IncrementCouponUses(ctx context.Context, code string) error {
	if _, err := t.tx.Exec(ctx, database.IncrementCouponUsesSQL, code); err != nil {
		return fmt.Errorf("failed to increment coupon uses: %w", err)
	}
	return nil
}

func (t *pgTx) MarkCouponUsed(ctx context.Context, uid, code string) error {
	if _, err := t.tx.Exec(ctx, database.MarkCouponUsedSQL, uid, code); err != nil {
		return fmt.Errorf("failed to mark coupon used: %w", err)
	}
	return nil
}
