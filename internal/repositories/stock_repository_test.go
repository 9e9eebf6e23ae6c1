package repositories

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabric_pos_backend/internal/models"
)

func TestStockRepository_LockProducts(t *testing.T) {
	t.Run("locks in ascending ID order with deduplicated IDs", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewStockRepository(db)

		rows := sqlmock.NewRows([]string{
			"id", "name", "sku", "unit_type", "price", "is_active", "quantity_in_meter", "quantity_in_gaz",
		}).
			AddRow(1, "Lawn White", "LW-01", "meter", 50000, true, decimal.NewFromInt(40), decimal.Zero).
			AddRow(7, "Silk Red", "SR-07", "gaz", 90000, true, decimal.Zero, decimal.NewFromInt(12))

		mock.ExpectQuery(`SELECT p\.id, COALESCE\(pt\.name, p\.sku\) AS name.+FOR UPDATE OF p`).
			WillReturnRows(rows)

		locked, err := repo.LockProducts(db, []int64{7, 1, 7, 1})
		require.NoError(t, err)

		assert.Len(t, locked, 2)
		assert.Equal(t, "Lawn White", locked[1].Name)
		assert.True(t, locked[7].Available(models.UnitGaz).Equal(decimal.NewFromInt(12)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty input locks nothing", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewStockRepository(db)

		locked, err := repo.LockProducts(db, nil)
		require.NoError(t, err)
		assert.Empty(t, locked)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStockRepository_AdjustStock(t *testing.T) {
	t.Run("guarded decrease returns the new level", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewStockRepository(db)

		mock.ExpectQuery(`UPDATE products\s+SET quantity_in_meter = quantity_in_meter - \$1.+WHERE id = \$3 AND quantity_in_meter >= \$1\s+RETURNING quantity_in_meter`).
			WillReturnRows(sqlmock.NewRows([]string{"quantity_in_meter"}).AddRow(decimal.RequireFromString("37.50")))

		newLevel, err := repo.AdjustStock(db, 1, models.UnitMeter, StockDecrease, decimal.RequireFromString("2.50"))
		require.NoError(t, err)
		assert.True(t, newLevel.Equal(decimal.RequireFromString("37.50")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("underflowing decrease reports insufficient stock with the available amount", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewStockRepository(db)

		// The guard matches no row, then the current level is read for the error.
		mock.ExpectQuery(`UPDATE products\s+SET quantity_in_gaz = quantity_in_gaz - \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"quantity_in_gaz"}))
		mock.ExpectQuery(`SELECT quantity_in_gaz FROM products WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"quantity_in_gaz"}).AddRow(decimal.NewFromInt(3)))

		_, err = repo.AdjustStock(db, 9, models.UnitGaz, StockDecrease, decimal.NewFromInt(5))
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.Contains(t, err.Error(), "has 3")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("increase on a missing product is not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewStockRepository(db)

		mock.ExpectQuery(`UPDATE products\s+SET quantity_in_meter = quantity_in_meter \+ \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"quantity_in_meter"}))

		_, err = repo.AdjustStock(db, 404, models.UnitMeter, StockIncrease, decimal.NewFromInt(1))
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects an unknown unit type", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewStockRepository(db)

		_, err = repo.AdjustStock(db, 1, models.UnitType("yard"), StockDecrease, decimal.NewFromInt(1))
		assert.ErrorIs(t, err, ErrInvalidUnitType)
	})

	t.Run("rejects a non-positive quantity", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewStockRepository(db)

		_, err = repo.AdjustStock(db, 1, models.UnitMeter, StockDecrease, decimal.Zero)
		assert.Error(t, err)
	})
}
