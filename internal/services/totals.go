package services

import (
	"errors"

	"github.com/shopspring/decimal"

	"fabric_pos_backend/internal/models"
)

var (
	ErrNegativeDiscount  = errors.New("discount amount cannot be negative")
	ErrNegativePayment   = errors.New("paid amount cannot be negative")
	ErrDiscountExceeds   = errors.New("discount amount cannot exceed the taxed subtotal")
	ErrNonPositiveAmount = errors.New("line quantity and unit price must be positive")
)

// TaxPolicy controls whether and how sales tax is applied. The rate is
// expressed in basis points (1600 = 16%) so the arithmetic stays integral.
type TaxPolicy struct {
	Enabled         bool
	RateBasisPoints int64
}

// LineAmount is one sale line as the calculator sees it: a decimal quantity
// (fabric is cut, not counted) and a unit price in paisa.
type LineAmount struct {
	Quantity  decimal.Decimal
	UnitPrice int64
}

// Totals is the monetary outcome of a sale. All fields are paisa.
type Totals struct {
	Subtotal    int64
	TaxAmount   int64
	TotalAmount int64
	DueAmount   int64
	Status      string
}

// LineTotal computes a single line's price: quantity * unit price, rounded
// half-up to whole paisa.
func LineTotal(quantity decimal.Decimal, unitPrice int64) int64 {
	return decimal.NewFromInt(unitPrice).Mul(quantity).Round(0).IntPart()
}

// ComputeTotals derives all sale amounts from the line items, the discount
// and the amount tendered. It is pure: same inputs, same outputs, no clock,
// no database.
//
// total = subtotal + tax - discount; due = total - paid, floored at zero so
// an overpayment never records a negative balance. A sale paid in full (or
// over) is completed, otherwise pending.
func ComputeTotals(items []LineAmount, discountAmount, paidAmount int64, policy TaxPolicy) (Totals, error) {
	if discountAmount < 0 {
		return Totals{}, ErrNegativeDiscount
	}
	if paidAmount < 0 {
		return Totals{}, ErrNegativePayment
	}

	var subtotal int64
	for _, item := range items {
		if !item.Quantity.IsPositive() || item.UnitPrice <= 0 {
			return Totals{}, ErrNonPositiveAmount
		}
		subtotal += LineTotal(item.Quantity, item.UnitPrice)
	}

	var taxAmount int64
	if policy.Enabled && policy.RateBasisPoints > 0 {
		taxAmount = decimal.NewFromInt(subtotal).
			Mul(decimal.NewFromInt(policy.RateBasisPoints)).
			Div(decimal.NewFromInt(10000)).
			Round(0).IntPart()
	}

	if discountAmount > subtotal+taxAmount {
		return Totals{}, ErrDiscountExceeds
	}

	totalAmount := subtotal + taxAmount - discountAmount
	dueAmount := totalAmount - paidAmount
	if dueAmount < 0 {
		dueAmount = 0
	}

	status := models.SaleStatusPending
	if paidAmount >= totalAmount {
		status = models.SaleStatusCompleted
	}

	return Totals{
		Subtotal:    subtotal,
		TaxAmount:   taxAmount,
		TotalAmount: totalAmount,
		DueAmount:   dueAmount,
		Status:      status,
	}, nil
}
