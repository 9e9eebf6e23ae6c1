package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabric_pos_backend/internal/models"
	"fabric_pos_backend/internal/repositories"
)

func newSaleService(t *testing.T) (SaleService, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	svc := NewSaleService(db,
		repositories.NewSaleRepository(db),
		repositories.NewStockRepository(db),
		repositories.NewStockMovementRepository(db),
		TaxPolicy{})
	return svc, mock, db
}

func lockedProductRows(price int64, meters string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "sku", "unit_type", "price", "is_active", "quantity_in_meter", "quantity_in_gaz",
	}).AddRow(1, "Lawn White", "LW-01", "meter", price, true, decimal.RequireFromString(meters), decimal.Zero)
}

func saleHeaderRow(saleID int64, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "invoice_number", "user_id", "customer_id", "subtotal", "tax_amount",
		"discount_amount", "total_amount", "paid_amount", "due_amount", "notes", "status",
		"created_at", "updated_at", "staff_name", "customer_name",
	}).AddRow(saleID, "INV-20260829-ABCDEF", 5, nil, 100000, 0, 0, 100000, 100000, 0, nil, status,
		now, now, "Asma", nil)
}

func lockedSaleRow(saleID int64, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "invoice_number", "user_id", "customer_id", "subtotal", "tax_amount",
		"discount_amount", "total_amount", "paid_amount", "due_amount", "notes", "status",
		"created_at", "updated_at",
	}).AddRow(saleID, "INV-20260829-ABCDEF", 5, nil, 100000, 0, 0, 100000, 100000, 0, nil, status, now, now)
}

func saleItemRows(saleID int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "sale_id", "product_id", "quantity", "unit_type", "unit_price",
		"total_price", "created_at", "updated_at", "product_name", "product_sku",
	}).AddRow(21, saleID, 1, decimal.NewFromInt(2), "meter", 50000, 100000, now, now, "Lawn White", "LW-01")
}

// expectSaleInsertChain sets up the statements inside a successful
// single-item sale transaction, starting after the product lock.
func expectSaleInsertChain(mock sqlmock.Sqlmock, saleID int64) {
	mock.ExpectQuery(`INSERT INTO sales`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(saleID))
	mock.ExpectQuery(`INSERT INTO sale_items`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))
	mock.ExpectQuery(`UPDATE products\s+SET quantity_in_meter = quantity_in_meter - \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"quantity_in_meter"}).AddRow(decimal.NewFromInt(38)))
	mock.ExpectQuery(`INSERT INTO stock_movements`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(31))
}

func expectSaleReload(mock sqlmock.Sqlmock, saleID int64, status string) {
	mock.ExpectQuery(`FROM sales s\s+LEFT JOIN users u`).
		WillReturnRows(saleHeaderRow(saleID, status))
	mock.ExpectQuery(`FROM sale_items si`).
		WillReturnRows(saleItemRows(saleID))
}

func TestSaleService_CreateSale(t *testing.T) {
	req := CreateSaleRequest{
		Items:      []CreateSaleItemRequest{{ProductID: 1, Quantity: decimal.NewFromInt(2)}},
		PaidAmount: 100000,
	}

	t.Run("creates sale, decrements stock and records the movement", func(t *testing.T) {
		svc, mock, db := newSaleService(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE OF p`).WillReturnRows(lockedProductRows(50000, "40.00"))
		expectSaleInsertChain(mock, 11)
		mock.ExpectCommit()
		expectSaleReload(mock, 11, models.SaleStatusCompleted)

		sale, err := svc.CreateSale(5, req)
		require.NoError(t, err)

		assert.Equal(t, models.SaleStatusCompleted, sale.Status)
		assert.Len(t, sale.Items, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insufficient stock rolls back and lists every shortage", func(t *testing.T) {
		svc, mock, db := newSaleService(t)
		defer db.Close()

		lockRows := sqlmock.NewRows([]string{
			"id", "name", "sku", "unit_type", "price", "is_active", "quantity_in_meter", "quantity_in_gaz",
		}).
			AddRow(1, "Lawn White", "LW-01", "meter", 50000, true, decimal.NewFromInt(1), decimal.Zero).
			AddRow(2, "Silk Red", "SR-02", "gaz", 90000, true, decimal.Zero, decimal.RequireFromString("0.50"))

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE OF p`).WillReturnRows(lockRows)
		mock.ExpectRollback()

		_, err := svc.CreateSale(5, CreateSaleRequest{
			Items: []CreateSaleItemRequest{
				{ProductID: 1, Quantity: decimal.NewFromInt(2)},
				{ProductID: 2, Quantity: decimal.NewFromInt(3)},
			},
			PaidAmount: 0,
		})

		var stockErr *InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		require.Len(t, stockErr.Shortages, 2)
		assert.Equal(t, "Lawn White", stockErr.Shortages[0].ProductName)
		assert.Equal(t, "Silk Red", stockErr.Shortages[1].ProductName)
		assert.True(t, stockErr.Shortages[1].Available.Equal(decimal.RequireFromString("0.50")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("inactive product is rejected", func(t *testing.T) {
		svc, mock, db := newSaleService(t)
		defer db.Close()

		inactive := sqlmock.NewRows([]string{
			"id", "name", "sku", "unit_type", "price", "is_active", "quantity_in_meter", "quantity_in_gaz",
		}).AddRow(1, "Lawn White", "LW-01", "meter", 50000, false, decimal.NewFromInt(40), decimal.Zero)

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE OF p`).WillReturnRows(inactive)
		mock.ExpectRollback()

		_, err := svc.CreateSale(5, req)
		assert.ErrorIs(t, err, ErrProductUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invoice collision retries with a fresh number", func(t *testing.T) {
		svc, mock, db := newSaleService(t)
		defer db.Close()

		// First attempt dies on the unique index, the whole transaction is
		// rolled back and rerun.
		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE OF p`).WillReturnRows(lockedProductRows(50000, "40.00"))
		mock.ExpectQuery(`INSERT INTO sales`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "sales_invoice_number_key"})
		mock.ExpectRollback()

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE OF p`).WillReturnRows(lockedProductRows(50000, "40.00"))
		expectSaleInsertChain(mock, 12)
		mock.ExpectCommit()
		expectSaleReload(mock, 12, models.SaleStatusCompleted)

		sale, err := svc.CreateSale(5, req)
		require.NoError(t, err)
		assert.Equal(t, int64(12), sale.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deadlock is retried once", func(t *testing.T) {
		svc, mock, db := newSaleService(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE OF p`).
			WillReturnError(&pq.Error{Code: "40P01"})
		mock.ExpectRollback()

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE OF p`).WillReturnRows(lockedProductRows(50000, "40.00"))
		expectSaleInsertChain(mock, 13)
		mock.ExpectCommit()
		expectSaleReload(mock, 13, models.SaleStatusCompleted)

		_, err := svc.CreateSale(5, req)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects an empty basket without touching the database", func(t *testing.T) {
		svc, mock, db := newSaleService(t)
		defer db.Close()

		_, err := svc.CreateSale(5, CreateSaleRequest{})
		assert.ErrorIs(t, err, ErrEmptySale)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects more than two decimal places", func(t *testing.T) {
		svc, _, db := newSaleService(t)
		defer db.Close()

		_, err := svc.CreateSale(5, CreateSaleRequest{
			Items: []CreateSaleItemRequest{{ProductID: 1, Quantity: decimal.RequireFromString("1.255")}},
		})
		assert.ErrorIs(t, err, ErrQuantityPrecision)
	})
}

func TestSaleService_CancelSale(t *testing.T) {
	t.Run("restores stock and marks the sale cancelled", func(t *testing.T) {
		svc, mock, db := newSaleService(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM sales WHERE id = \$1 FOR UPDATE`).
			WillReturnRows(lockedSaleRow(11, models.SaleStatusCompleted))
		mock.ExpectQuery(`FROM sale_items si`).WillReturnRows(saleItemRows(11))
		mock.ExpectQuery(`FOR UPDATE OF p`).WillReturnRows(lockedProductRows(50000, "38.00"))
		mock.ExpectQuery(`UPDATE products\s+SET quantity_in_meter = quantity_in_meter \+ \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"quantity_in_meter"}).AddRow(decimal.NewFromInt(40)))
		mock.ExpectQuery(`INSERT INTO stock_movements`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(32))
		mock.ExpectExec(`UPDATE sales SET status = \$1`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		expectSaleReload(mock, 11, models.SaleStatusCancelled)

		sale, err := svc.CancelSale(11, 5)
		require.NoError(t, err)
		assert.Equal(t, models.SaleStatusCancelled, sale.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cancelling twice is rejected and restores nothing", func(t *testing.T) {
		svc, mock, db := newSaleService(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM sales WHERE id = \$1 FOR UPDATE`).
			WillReturnRows(lockedSaleRow(11, models.SaleStatusCancelled))
		mock.ExpectRollback()

		_, err := svc.CancelSale(11, 5)
		assert.ErrorIs(t, err, ErrSaleAlreadyCancelled)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing sale is not found", func(t *testing.T) {
		svc, mock, db := newSaleService(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM sales WHERE id = \$1 FOR UPDATE`).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := svc.CancelSale(404, 5)
		assert.ErrorIs(t, err, ErrSaleNotFound)
	})
}

func TestSaleService_DeleteSale(t *testing.T) {
	t.Run("deleting a completed sale restores its stock first", func(t *testing.T) {
		svc, mock, db := newSaleService(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM sales WHERE id = \$1 FOR UPDATE`).
			WillReturnRows(lockedSaleRow(11, models.SaleStatusCompleted))
		mock.ExpectQuery(`FROM sale_items si`).WillReturnRows(saleItemRows(11))
		mock.ExpectQuery(`FOR UPDATE OF p`).WillReturnRows(lockedProductRows(50000, "38.00"))
		mock.ExpectQuery(`UPDATE products\s+SET quantity_in_meter = quantity_in_meter \+ \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"quantity_in_meter"}).AddRow(decimal.NewFromInt(40)))
		mock.ExpectQuery(`INSERT INTO stock_movements`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(33))
		mock.ExpectExec(`DELETE FROM sale_items WHERE sale_id = \$1`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM sales WHERE id = \$1`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := svc.DeleteSale(11, 5)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deleting a cancelled sale must not restore stock again", func(t *testing.T) {
		svc, mock, db := newSaleService(t)
		defer db.Close()

		// No product lock, no UPDATE products, no movement: cancellation
		// already returned the goods.
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM sales WHERE id = \$1 FOR UPDATE`).
			WillReturnRows(lockedSaleRow(11, models.SaleStatusCancelled))
		mock.ExpectQuery(`FROM sale_items si`).WillReturnRows(saleItemRows(11))
		mock.ExpectExec(`DELETE FROM sale_items WHERE sale_id = \$1`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM sales WHERE id = \$1`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := svc.DeleteSale(11, 5)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
