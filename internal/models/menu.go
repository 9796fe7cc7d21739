package models

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Category groups menu items; Position controls display order.
type Category struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Position int    `json:"position" db:"position"`
}

// MenuItem is a catalog entry as delivered by the snapshot store.
// Options carries the raw option specs; use ParsedOptions for the
// name/surcharge pairs.
type MenuItem struct {
	ID          string          `json:"id" db:"id"`
	CategoryID  string          `json:"category_id" db:"category_id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Options     []string        `json:"options" db:"options"`
	Visible     bool            `json:"visible" db:"visible"`
}

// ItemOption is a parsed option spec: a name plus an optional surcharge.
type ItemOption struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Option specs encode surcharges as "<name> (+RD$<amount>)".
var optionPricePattern = regexp.MustCompile(`\(\s*\+RD\$([\d.,]+)\s*\)`)

// ParseOption parses an option spec string. Specs without a surcharge
// marker yield a zero price.
func ParseOption(spec string) ItemOption {
	if m := optionPricePattern.FindStringSubmatch(spec); m != nil {
		price, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
		if err == nil {
			name := strings.TrimSpace(strings.Replace(spec, m[0], "", 1))
			return ItemOption{Name: name, Price: price}
		}
	}
	return ItemOption{Name: strings.TrimSpace(spec), Price: decimal.Zero}
}

// ParsedOptions parses every option spec of the item, preserving order.
func (i MenuItem) ParsedOptions() []ItemOption {
	if len(i.Options) == 0 {
		return nil
	}
	parsed := make([]ItemOption, len(i.Options))
	for idx, spec := range i.Options {
		parsed[idx] = ParseOption(spec)
	}
	return parsed
}
