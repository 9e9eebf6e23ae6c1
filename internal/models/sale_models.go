package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale status values. "completed" is derived (due amount reached zero),
// "cancelled" is an explicit out-of-band transition.
const (
	SaleStatusPending   = "pending"
	SaleStatusCompleted = "completed"
	SaleStatusCancelled = "cancelled"
)

// Sale is the transactional envelope for one customer transaction.
// All monetary amounts are integer paisa.
type Sale struct {
	ID             int64     `json:"id"`
	InvoiceNumber  string    `json:"invoice_number" db:"invoice_number"`
	UserID         int64     `json:"user_id" db:"user_id"` // staff member who recorded the sale
	CustomerID     *int64    `json:"customer_id,omitempty" db:"customer_id"`
	Subtotal       int64     `json:"subtotal" db:"subtotal"`
	TaxAmount      int64     `json:"tax_amount" db:"tax_amount"`
	DiscountAmount int64     `json:"discount_amount" db:"discount_amount"`
	TotalAmount    int64     `json:"total_amount" db:"total_amount"`
	PaidAmount     int64     `json:"paid_amount" db:"paid_amount"`
	DueAmount      int64     `json:"due_amount" db:"due_amount"`
	Notes          *string   `json:"notes,omitempty" db:"notes"`
	Status         string    `json:"status" db:"status"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`

	StaffName    *string    `json:"staff_name,omitempty"`
	CustomerName *string    `json:"customer_name,omitempty"`
	Items        []SaleItem `json:"items,omitempty"`
}

// SaleItem is one line of a sale. Unit type and unit price are snapshots
// taken from the product at creation time and never re-derived.
type SaleItem struct {
	ID         int64           `json:"id"`
	SaleID     int64           `json:"sale_id" db:"sale_id"`
	ProductID  int64           `json:"product_id" db:"product_id"`
	Quantity   decimal.Decimal `json:"quantity" db:"quantity"`
	UnitType   UnitType        `json:"unit_type" db:"unit_type"`
	UnitPrice  int64           `json:"unit_price" db:"unit_price"`   // paisa
	TotalPrice int64           `json:"total_price" db:"total_price"` // paisa
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`

	ProductName *string `json:"product_name,omitempty"`
	ProductSKU  *string `json:"product_sku,omitempty"`
}

// SaleFilters defines the available filters for querying sales.
type SaleFilters struct {
	CustomerID *int64  `form:"customer_id"`
	UserID     *int64  `form:"user_id"`
	Status     *string `form:"status"`
	Date       *string `form:"date"` // expected format YYYY-MM-DD
	Page       int     `form:"page"`
	PageSize   int     `form:"page_size"`
}
