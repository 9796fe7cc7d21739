package checkout

import (
	"context"
	"fmt"

	"storefront-system/internal/database"
	"storefront-system/internal/models"
)

// PostgresSales persists sale records; the sale row and its items commit
// together.
type PostgresSales struct {
	db *database.DB
}

// NewPostgresSales creates a sale store over the shared pool.
func NewPostgresSales(db *database.DB) *PostgresSales {
	return &PostgresSales{db: db}
}

// InsertSale implements SaleStore.
func (s *PostgresSales) InsertSale(ctx context.Context, record *models.SaleRecord) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, database.InsertSaleSQL,
		record.ID, record.Total.StringFixed(2), record.UserID).Scan(&record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert sale: %w", err)
	}

	for _, item := range record.Items {
		_, err = tx.Exec(ctx, database.InsertSaleItemSQL,
			record.ID, item.Name, item.Qty, item.Price.StringFixed(2), item.Options, item.Comment)
		if err != nil {
			return fmt.Errorf("failed to insert sale item: %w", err)
		}
	}

	return tx.Commit(ctx)
}
