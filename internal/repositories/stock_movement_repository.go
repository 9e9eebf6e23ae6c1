package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"fabric_pos_backend/internal/models"
)

// StockMovementRepository records and queries the stock audit trail.
// Every ledger mutation writes exactly one movement row, inside the same
// transaction as the stock change itself.
type StockMovementRepository interface {
	CreateMovement(executor SQLExecutor, movement *models.StockMovement) (int64, error)
	GetMovements(filters models.StockMovementFilters) ([]models.StockMovement, int, error)
}

type stockMovementRepository struct {
	db *sql.DB
}

// NewStockMovementRepository creates a new instance of StockMovementRepository.
func NewStockMovementRepository(db *sql.DB) StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) CreateMovement(executor SQLExecutor, movement *models.StockMovement) (int64, error) {
	query := `INSERT INTO stock_movements
	            (product_id, user_id, movement_type, quantity, unit_type, reason, sale_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	var userID sql.NullInt64
	if movement.UserID != nil {
		userID = sql.NullInt64{Int64: *movement.UserID, Valid: true}
	}
	var saleID sql.NullInt64
	if movement.SaleID != nil {
		saleID = sql.NullInt64{Int64: *movement.SaleID, Valid: true}
	}
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		movement.ProductID, userID, movement.MovementType, movement.Quantity,
		movement.UnitType, movement.Reason, saleID, movement.CreatedAt,
	).Scan(&movement.ID)

	if err != nil {
		return 0, fmt.Errorf("%w: creating stock movement: %v", ErrDatabaseError, err)
	}
	return movement.ID, nil
}

func (r *stockMovementRepository) GetMovements(filters models.StockMovementFilters) ([]models.StockMovement, int, error) {
	movements := []models.StockMovement{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    sm.id, sm.product_id, sm.user_id, sm.movement_type, sm.quantity, sm.unit_type,
	    sm.reason, sm.sale_id, sm.created_at,
	    COALESCE(pt.name, p.sku) AS product_name, p.sku AS product_sku,
	    u.name AS user_name,
	    COUNT(*) OVER() AS total_count
	  FROM stock_movements sm
	  JOIN products p ON sm.product_id = p.id
	  LEFT JOIN product_translations pt ON pt.product_id = p.id AND pt.locale = 'en'
	  LEFT JOIN users u ON sm.user_id = u.id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.ProductID != nil {
		conditions = append(conditions, fmt.Sprintf("sm.product_id = $%d", argCount))
		args = append(args, *filters.ProductID)
		argCount++
	}
	if filters.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("sm.user_id = $%d", argCount))
		args = append(args, *filters.UserID)
		argCount++
	}
	if filters.MovementType != nil && *filters.MovementType != "" {
		conditions = append(conditions, fmt.Sprintf("sm.movement_type = $%d", argCount))
		args = append(args, *filters.MovementType)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY sm.created_at DESC, sm.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying stock movements: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.StockMovement
		var userID, saleID sql.NullInt64
		var productName, productSKU, userName sql.NullString

		if err := rows.Scan(
			&m.ID, &m.ProductID, &userID, &m.MovementType, &m.Quantity, &m.UnitType,
			&m.Reason, &saleID, &m.CreatedAt,
			&productName, &productSKU, &userName,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning stock movement: %v", ErrDatabaseError, err)
		}

		if userID.Valid {
			m.UserID = &userID.Int64
		}
		if saleID.Valid {
			m.SaleID = &saleID.Int64
		}
		if productName.Valid {
			name := productName.String
			m.ProductName = &name
		}
		if productSKU.Valid {
			sku := productSKU.String
			m.ProductSKU = &sku
		}
		if userName.Valid {
			name := userName.String
			m.UserName = &name
		}
		movements = append(movements, m)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating stock movements: %v", ErrDatabaseError, err)
	}
	return movements, totalCount, nil
}
