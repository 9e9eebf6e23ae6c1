package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"fabric_pos_backend/internal/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidUnitType is returned when a stock operation names a unit
	// dimension other than meter or gaz. Catalog data that triggers this is corrupt.
	ErrInvalidUnitType = errors.New("invalid unit type")

	// ErrInsufficientStock is returned when a decrease would underflow the
	// product's stock. The operation has no partial effect.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// StockDirection selects whether an adjustment adds or removes stock.
type StockDirection string

const (
	StockIncrease StockDirection = "increase"
	StockDecrease StockDirection = "decrease"
)

// Valid reports whether the direction is one of the two known values.
func (d StockDirection) Valid() bool {
	return d == StockIncrease || d == StockDecrease
}

// quantityColumns maps a unit type to its stock column. Column names are
// never built from request input directly.
var quantityColumns = map[models.UnitType]string{
	models.UnitMeter: "quantity_in_meter",
	models.UnitGaz:   "quantity_in_gaz",
}

// ProductStock is the locked snapshot of a product row used during a sale
// or adjustment transaction.
type ProductStock struct {
	ID              int64
	Name            string
	SKU             string
	UnitType        models.UnitType
	Price           int64 // paisa
	IsActive        bool
	QuantityInMeter decimal.Decimal
	QuantityInGaz   decimal.Decimal
}

// Available returns the snapshot quantity for the given unit dimension.
func (p ProductStock) Available(unit models.UnitType) decimal.Decimal {
	if unit == models.UnitGaz {
		return p.QuantityInGaz
	}
	return p.QuantityInMeter
}

// StockRepository is the exclusive owner of product stock quantities.
// All mutations go through AdjustStock inside a transaction whose affected
// rows were first locked via LockProducts.
type StockRepository interface {
	// LockProducts acquires row-level exclusive locks on the given products
	// for the duration of the enclosing transaction and returns their current
	// state. IDs are deduplicated and locked in ascending order so concurrent
	// sales touching overlapping product sets cannot deadlock on lock order.
	LockProducts(executor SQLExecutor, productIDs []int64) (map[int64]ProductStock, error)

	// AdjustStock changes one product's stock in one unit dimension and
	// returns the new level. Decreases are guarded: if the current quantity
	// is below the requested amount the update does not happen and
	// ErrInsufficientStock is returned. Only the unit column and
	// updated_at are written; nothing else is recomputed or cascaded.
	AdjustStock(executor SQLExecutor, productID int64, unitType models.UnitType, direction StockDirection, quantity decimal.Decimal) (decimal.Decimal, error)
}

type stockRepository struct {
	db *sql.DB
}

// NewStockRepository creates a new instance of StockRepository.
func NewStockRepository(db *sql.DB) StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) LockProducts(executor SQLExecutor, productIDs []int64) (map[int64]ProductStock, error) {
	ids := dedupeSorted(productIDs)
	if len(ids) == 0 {
		return map[int64]ProductStock{}, nil
	}

	query := `SELECT p.id, COALESCE(pt.name, p.sku) AS name, p.sku, p.unit_type, p.price, p.is_active,
	                 p.quantity_in_meter, p.quantity_in_gaz
	          FROM products p
	          LEFT JOIN product_translations pt ON pt.product_id = p.id AND pt.locale = 'en'
	          WHERE p.id = ANY($1)
	          ORDER BY p.id
	          FOR UPDATE OF p`

	rows, err := executor.Query(query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("%w: locking products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	locked := make(map[int64]ProductStock, len(ids))
	for rows.Next() {
		var ps ProductStock
		if err := rows.Scan(&ps.ID, &ps.Name, &ps.SKU, &ps.UnitType, &ps.Price, &ps.IsActive,
			&ps.QuantityInMeter, &ps.QuantityInGaz); err != nil {
			return nil, fmt.Errorf("%w: scanning locked product: %v", ErrDatabaseError, err)
		}
		locked[ps.ID] = ps
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating locked products: %v", ErrDatabaseError, err)
	}
	return locked, nil
}

func (r *stockRepository) AdjustStock(executor SQLExecutor, productID int64, unitType models.UnitType, direction StockDirection, quantity decimal.Decimal) (decimal.Decimal, error) {
	column, ok := quantityColumns[unitType]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidUnitType, unitType)
	}
	if !direction.Valid() {
		return decimal.Zero, fmt.Errorf("%w: direction %q", ErrDatabaseError, direction)
	}
	if !quantity.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: adjustment quantity must be positive, got %s", ErrDatabaseError, quantity)
	}

	var query string
	if direction == StockDecrease {
		// The WHERE guard is the non-negativity invariant: a decrease that
		// would underflow matches no row and has no effect.
		query = fmt.Sprintf(`UPDATE products
		          SET %[1]s = %[1]s - $1, updated_at = $2
		          WHERE id = $3 AND %[1]s >= $1
		          RETURNING %[1]s`, column)
	} else {
		query = fmt.Sprintf(`UPDATE products
		          SET %[1]s = %[1]s + $1, updated_at = $2
		          WHERE id = $3
		          RETURNING %[1]s`, column)
	}

	var newLevel decimal.Decimal
	err := executor.QueryRow(query, quantity, time.Now(), productID).Scan(&newLevel)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if direction == StockIncrease {
				return decimal.Zero, ErrNotFound
			}
			available, availErr := r.currentLevel(executor, productID, column)
			if availErr != nil {
				return decimal.Zero, availErr
			}
			return decimal.Zero, fmt.Errorf("%w: product %d has %s %s, requested %s",
				ErrInsufficientStock, productID, available, unitType, quantity)
		}
		return decimal.Zero, fmt.Errorf("%w: adjusting stock for product %d: %v", ErrDatabaseError, productID, err)
	}
	return newLevel, nil
}

func (r *stockRepository) currentLevel(executor SQLExecutor, productID int64, column string) (decimal.Decimal, error) {
	var level decimal.Decimal
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, column)
	err := executor.QueryRow(query, productID).Scan(&level)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, fmt.Errorf("%w: reading stock for product %d: %v", ErrDatabaseError, productID, err)
	}
	return level, nil
}

func dedupeSorted(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
