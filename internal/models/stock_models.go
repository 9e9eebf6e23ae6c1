package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock movement types. Every mutation of a product's stock records one row.
const (
	MovementSale               = "sale"
	MovementCancellationReturn = "cancellation_return"
	MovementDeletionReturn     = "deletion_return"
	MovementAdjustmentIn       = "adjustment_in"
	MovementAdjustmentOut      = "adjustment_out"
)

// StockMovement is one entry of the stock audit trail. Quantity is signed:
// negative for outgoing stock, positive for incoming.
type StockMovement struct {
	ID           int64           `json:"id"`
	ProductID    int64           `json:"product_id" db:"product_id"`
	UserID       *int64          `json:"user_id,omitempty" db:"user_id"`
	MovementType string          `json:"movement_type" db:"movement_type"`
	Quantity     decimal.Decimal `json:"quantity" db:"quantity"`
	UnitType     UnitType        `json:"unit_type" db:"unit_type"`
	Reason       *string         `json:"reason,omitempty" db:"reason"`
	SaleID       *int64          `json:"sale_id,omitempty" db:"sale_id"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`

	ProductName *string `json:"product_name,omitempty"`
	ProductSKU  *string `json:"product_sku,omitempty"`
	UserName    *string `json:"user_name,omitempty"`
}

// StockMovementFilters defines the available filters for querying stock movements.
type StockMovementFilters struct {
	ProductID    *int64  `form:"product_id"`
	UserID       *int64  `form:"user_id"`
	MovementType *string `form:"movement_type"`
	Page         int     `form:"page"`
	PageSize     int     `form:"page_size"`
}
