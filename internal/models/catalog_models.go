package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnitType selects which of a product's two quantity columns is authoritative.
type UnitType string

const (
	UnitMeter UnitType = "meter"
	UnitGaz   UnitType = "gaz"
)

// Valid reports whether the unit type is one of the two known dimensions.
func (u UnitType) Valid() bool {
	return u == UnitMeter || u == UnitGaz
}

// Supported catalog locales. English is the fallback locale.
const (
	LocaleEnglish = "en"
	LocaleUrdu    = "ur"
)

// ValidLocale reports whether the locale is supported by the catalog.
func ValidLocale(locale string) bool {
	return locale == LocaleEnglish || locale == LocaleUrdu
}

// Translation holds one locale's name/description pair for a category or product.
type Translation struct {
	Locale      string  `json:"locale"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// Category is a product grouping with bilingual names.
type Category struct {
	ID        int64     `json:"id"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Name         string        `json:"name"` // resolved for the requested locale
	Translations []Translation `json:"translations,omitempty"`
}

// Product is a fabric in the catalog. Prices are integer paisa.
// Stock is kept in two unit columns; UnitType selects the live one,
// the other is inert legacy data.
type Product struct {
	ID               int64           `json:"id"`
	SKU              string          `json:"sku" db:"sku"`
	CategoryID       int64           `json:"category_id" db:"category_id"`
	Price            int64           `json:"price" db:"price"`                // paisa
	CostPrice        *int64          `json:"cost_price,omitempty" db:"cost_price"` // paisa
	QuantityInMeter  decimal.Decimal `json:"quantity_in_meter" db:"quantity_in_meter"`
	QuantityInGaz    decimal.Decimal `json:"quantity_in_gaz" db:"quantity_in_gaz"`
	MinStockLevel    decimal.Decimal `json:"min_stock_level" db:"min_stock_level"`
	UnitType         UnitType        `json:"unit_type" db:"unit_type"`
	IsActive         bool            `json:"is_active" db:"is_active"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`

	Name         string        `json:"name"` // resolved for the requested locale
	Description  *string       `json:"description,omitempty"`
	CategoryName *string       `json:"category_name,omitempty"`
	Translations []Translation `json:"translations,omitempty"`
}

// CurrentStock returns the quantity in the product's authoritative unit.
func (p *Product) CurrentStock() decimal.Decimal {
	if p.UnitType == UnitGaz {
		return p.QuantityInGaz
	}
	return p.QuantityInMeter
}

// IsLowStock reports whether the authoritative quantity has fallen to or
// below the configured minimum. A zero minimum disables the check.
func (p *Product) IsLowStock() bool {
	if !p.MinStockLevel.IsPositive() {
		return false
	}
	return p.CurrentStock().LessThanOrEqual(p.MinStockLevel)
}

// ProductFilters defines the available filters for querying products.
type ProductFilters struct {
	CategoryID *int64  `form:"category_id"`
	IsActive   *bool   `form:"is_active"`
	LowStock   *bool   `form:"low_stock"`
	Search     *string `form:"search"`
	Locale     string  `form:"locale"`
	Page       int     `form:"page"`
	PageSize   int     `form:"page_size"`
}
