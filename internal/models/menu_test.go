package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseOption(t *testing.T) {
	tests := []struct {
		name      string
		spec      string
		wantName  string
		wantPrice string
	}{
		{
			name:      "option with surcharge",
			spec:      "Queso Extra (+RD$50.00)",
			wantName:  "Queso Extra",
			wantPrice: "50",
		},
		{
			name:      "surcharge with thousands separator",
			spec:      "Langosta (+RD$1,250.50)",
			wantName:  "Langosta",
			wantPrice: "1250.5",
		},
		{
			name:      "surcharge with inner spaces",
			spec:      "Tocineta ( +RD$35.00 )",
			wantName:  "Tocineta",
			wantPrice: "35",
		},
		{
			name:      "plain option",
			spec:      "Sin cebolla",
			wantName:  "Sin cebolla",
			wantPrice: "0",
		},
		{
			name:      "padded plain option",
			spec:      "  Bien cocido  ",
			wantName:  "Bien cocido",
			wantPrice: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt := ParseOption(tt.spec)
			assert.Equal(t, tt.wantName, opt.Name)
			assert.True(t, opt.Price.Equal(decimal.RequireFromString(tt.wantPrice)),
				"price = %s, want %s", opt.Price, tt.wantPrice)
		})
	}
}

func TestMenuItem_ParsedOptions(t *testing.T) {
	item := MenuItem{
		ID:      "it_1",
		Name:    "Burger",
		Options: []string{"Queso Extra (+RD$50.00)", "Sin cebolla"},
	}

	opts := item.ParsedOptions()
	assert.Len(t, opts, 2)
	assert.Equal(t, "Queso Extra", opts[0].Name)
	assert.Equal(t, "Sin cebolla", opts[1].Name)
	assert.True(t, opts[1].Price.IsZero())

	var empty MenuItem
	assert.Nil(t, empty.ParsedOptions())
}
