package domain

import "github.com/shopspring/decimal"

// Product represents a catalog entry
type Product struct {
	// Store-assigned identifier, immutable once set
	ID int64 `form:"id"`

	Name string `form:"name" validate:"required,max=100"`

	// Unit price, bounded to what NUMERIC(18, 2) holds
	Price decimal.Decimal `form:"price" validate:"decimal_gte=0,decimal_lte=9999999999999999.99,decimal_scale=2"`

	Color string `form:"color" validate:"required,max=50"`
}
