// Package identity adapts the persistent user store to the engine. The
// engine never mutates profiles directly; the only profile write is the
// redeemed-coupons merge inside the redemption transaction.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"storefront-system/internal/database"
	"storefront-system/internal/logger"
	"storefront-system/internal/models"
)

// Provider looks up customer profiles.
type Provider struct {
	db     *database.DB
	logger *logger.Logger
}

// NewProvider creates an identity provider over the shared pool.
func NewProvider(db *database.DB, log *logger.Logger) *Provider {
	return &Provider{
		db:     db,
		logger: log,
	}
}

// Lookup returns the profile for uid. An empty uid means no user and
// returns nil. A uid without a stored profile yields a minimal profile
// carrying only the uid, matching the auth provider's fallback.
func (p *Provider) Lookup(ctx context.Context, uid string) (*models.UserProfile, error) {
	if uid == "" {
		return nil, nil
	}

	var profile models.UserProfile
	row := p.db.QueryRow(ctx, database.GetUserProfileSQL, uid)
	err := row.Scan(&profile.UID, &profile.Email, &profile.SavedAddress, &profile.RedeemedCoupons)
	if errors.Is(err, pgx.ErrNoRows) {
		return &models.UserProfile{UID: uid, RedeemedCoupons: map[string]bool{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up profile %s: %w", uid, err)
	}

	return &profile, nil
}
