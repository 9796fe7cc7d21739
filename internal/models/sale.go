package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AnonymousUser marks sales recorded without an authenticated customer.
const AnonymousUser = "anonymous"

// SaleItem is a flattened order line for the sales record.
type SaleItem struct {
	Name    string          `json:"name" db:"name"`
	Qty     int             `json:"qty" db:"qty"`
	Price   decimal.Decimal `json:"price" db:"price"`
	Options string          `json:"options" db:"options"`
	Comment string          `json:"comment,omitempty" db:"comment"`
}

// SaleRecord is the write-only snapshot of a finalized order.
type SaleRecord struct {
	ID        string          `json:"id" db:"id"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	Total     decimal.Decimal `json:"total" db:"total"`
	Items     []SaleItem      `json:"items"`
	UserID    string          `json:"user_id" db:"user_id"`
}
