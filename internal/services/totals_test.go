package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabric_pos_backend/internal/models"
)

func TestLineTotal(t *testing.T) {
	t.Run("whole quantity", func(t *testing.T) {
		// 2 meters at Rs. 500.00 (50000 paisa)
		assert.Equal(t, int64(100000), LineTotal(decimal.NewFromInt(2), 50000))
	})

	t.Run("fractional quantity rounds half-up", func(t *testing.T) {
		// 1.25 gaz at Rs. 99.99 (9999 paisa) = 12498.75 -> 12499
		assert.Equal(t, int64(12499), LineTotal(decimal.RequireFromString("1.25"), 9999))
	})
}

func TestComputeTotals(t *testing.T) {
	noTax := TaxPolicy{}

	t.Run("basket pays in full and completes", func(t *testing.T) {
		// Two items at Rs. 500 each plus one at Rs. 300, Rs. 100 discount,
		// paid Rs. 1200 -> everything settles.
		items := []LineAmount{
			{Quantity: decimal.NewFromInt(2), UnitPrice: 50000},
			{Quantity: decimal.NewFromInt(1), UnitPrice: 30000},
		}
		totals, err := ComputeTotals(items, 10000, 120000, noTax)
		require.NoError(t, err)

		assert.Equal(t, int64(130000), totals.Subtotal)
		assert.Equal(t, int64(0), totals.TaxAmount)
		assert.Equal(t, int64(120000), totals.TotalAmount)
		assert.Equal(t, int64(0), totals.DueAmount)
		assert.Equal(t, models.SaleStatusCompleted, totals.Status)
	})

	t.Run("partial payment stays pending", func(t *testing.T) {
		items := []LineAmount{{Quantity: decimal.NewFromInt(1), UnitPrice: 100000}}
		totals, err := ComputeTotals(items, 0, 40000, noTax)
		require.NoError(t, err)

		assert.Equal(t, int64(60000), totals.DueAmount)
		assert.Equal(t, models.SaleStatusPending, totals.Status)
	})

	t.Run("overpayment completes with zero due", func(t *testing.T) {
		// Rs. 1500 tendered against a Rs. 1000 sale: the change is handed
		// back at the counter, never recorded as a negative balance.
		items := []LineAmount{{Quantity: decimal.NewFromInt(1), UnitPrice: 100000}}
		totals, err := ComputeTotals(items, 0, 150000, noTax)
		require.NoError(t, err)

		assert.Equal(t, int64(0), totals.DueAmount)
		assert.Equal(t, models.SaleStatusCompleted, totals.Status)
	})

	t.Run("exact payment completes with zero due", func(t *testing.T) {
		items := []LineAmount{{Quantity: decimal.NewFromInt(1), UnitPrice: 100000}}
		totals, err := ComputeTotals(items, 0, 100000, noTax)
		require.NoError(t, err)

		assert.Equal(t, int64(0), totals.DueAmount)
		assert.Equal(t, models.SaleStatusCompleted, totals.Status)
	})

	t.Run("tax applied in basis points", func(t *testing.T) {
		// 16% of Rs. 1000.00 = Rs. 160.00
		items := []LineAmount{{Quantity: decimal.NewFromInt(1), UnitPrice: 100000}}
		totals, err := ComputeTotals(items, 0, 0, TaxPolicy{Enabled: true, RateBasisPoints: 1600})
		require.NoError(t, err)

		assert.Equal(t, int64(16000), totals.TaxAmount)
		assert.Equal(t, int64(116000), totals.TotalAmount)
	})

	t.Run("disabled policy ignores the rate", func(t *testing.T) {
		items := []LineAmount{{Quantity: decimal.NewFromInt(1), UnitPrice: 100000}}
		totals, err := ComputeTotals(items, 0, 0, TaxPolicy{Enabled: false, RateBasisPoints: 1600})
		require.NoError(t, err)

		assert.Equal(t, int64(0), totals.TaxAmount)
	})

	t.Run("deterministic for the same input", func(t *testing.T) {
		items := []LineAmount{
			{Quantity: decimal.RequireFromString("3.75"), UnitPrice: 12345},
			{Quantity: decimal.RequireFromString("0.50"), UnitPrice: 99999},
		}
		first, err := ComputeTotals(items, 500, 20000, TaxPolicy{Enabled: true, RateBasisPoints: 1600})
		require.NoError(t, err)
		second, err := ComputeTotals(items, 500, 20000, TaxPolicy{Enabled: true, RateBasisPoints: 1600})
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("rejects negative discount", func(t *testing.T) {
		items := []LineAmount{{Quantity: decimal.NewFromInt(1), UnitPrice: 100}}
		_, err := ComputeTotals(items, -1, 0, noTax)
		assert.ErrorIs(t, err, ErrNegativeDiscount)
	})

	t.Run("rejects negative payment", func(t *testing.T) {
		items := []LineAmount{{Quantity: decimal.NewFromInt(1), UnitPrice: 100}}
		_, err := ComputeTotals(items, 0, -1, noTax)
		assert.ErrorIs(t, err, ErrNegativePayment)
	})

	t.Run("rejects discount above the taxed subtotal", func(t *testing.T) {
		items := []LineAmount{{Quantity: decimal.NewFromInt(1), UnitPrice: 100}}
		_, err := ComputeTotals(items, 101, 0, noTax)
		assert.ErrorIs(t, err, ErrDiscountExceeds)
	})

	t.Run("rejects non-positive lines", func(t *testing.T) {
		items := []LineAmount{{Quantity: decimal.Zero, UnitPrice: 100}}
		_, err := ComputeTotals(items, 0, 0, noTax)
		assert.ErrorIs(t, err, ErrNonPositiveAmount)
	})
}
