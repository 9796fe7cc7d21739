package catalog

import (
	"time"

	"storefront-system/internal/models"
)

// Snapshot is one full replacement of the catalog: every category in
// display order plus every menu item. Snapshots are immutable once
// built; updates swap in a new one.
type Snapshot struct {
	Categories []models.Category
	Items      []models.MenuItem
	LoadedAt   time.Time

	byID map[string]models.MenuItem
}

// NewSnapshot builds an indexed snapshot from loaded rows.
func NewSnapshot(categories []models.Category, items []models.MenuItem) *Snapshot {
	byID := make(map[string]models.MenuItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	return &Snapshot{
		Categories: categories,
		Items:      items,
		LoadedAt:   time.Now().UTC(),
		byID:       byID,
	}
}

// Item looks up a menu item by id.
func (s *Snapshot) Item(id string) (models.MenuItem, bool) {
	item, ok := s.byID[id]
	return item, ok
}

// VisibleItems returns the items currently offered to customers.
func (s *Snapshot) VisibleItems() []models.MenuItem {
	visible := make([]models.MenuItem, 0, len(s.Items))
	for _, item := range s.Items {
		if item.Visible {
			visible = append(visible, item)
		}
	}
	return visible
}
