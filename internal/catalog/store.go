package catalog

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"storefront-system/internal/database"
	"storefront-system/internal/models"
)

// Store loads catalog snapshots from PostgreSQL.
type Store struct {
	db *database.DB
}

// NewStore creates a catalog store over the shared pool.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// Load reads the full catalog as one replacement snapshot.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	categories, err := s.loadCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	items, err := s.loadItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load menu items: %w", err)
	}

	return NewSnapshot(categories, items), nil
}

func (s *Store) loadCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.Query(ctx, database.GetCategoriesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Position); err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

func (s *Store) loadItems(ctx context.Context) ([]models.MenuItem, error) {
	rows, err := s.db.Query(ctx, database.GetMenuItemsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var (
			item  models.MenuItem
			price string
		)
		if err := rows.Scan(&item.ID, &item.CategoryID, &item.Name, &item.Description,
			&price, &item.Options, &item.Visible); err != nil {
			return nil, err
		}
		if item.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("invalid price for item %s: %w", item.ID, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
