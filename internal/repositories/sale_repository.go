package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fabric_pos_backend/internal/models"
)

// SaleRepository defines the interface for sale-related database operations.
type SaleRepository interface {
	CreateSale(executor SQLExecutor, sale *models.Sale) (int64, error)
	GetSaleByID(saleID int64) (*models.Sale, error)
	// GetSaleForUpdate loads the sale header under a row-level exclusive lock,
	// serializing concurrent cancel/delete attempts on the same sale.
	GetSaleForUpdate(executor SQLExecutor, saleID int64) (*models.Sale, error)
	GetSales(filters models.SaleFilters) ([]models.Sale, int, error)
	UpdateSaleStatus(executor SQLExecutor, saleID int64, newStatus string, updatedAt time.Time) error
	DeleteSale(executor SQLExecutor, saleID int64) error

	CreateSaleItem(executor SQLExecutor, item *models.SaleItem) (int64, error)
	GetSaleItemsBySaleID(executor SQLExecutor, saleID int64) ([]models.SaleItem, error)
	DeleteSaleItemsBySaleID(executor SQLExecutor, saleID int64) (int64, error)
}

type saleRepository struct {
	db *sql.DB
}

// NewSaleRepository creates a new instance of SaleRepository.
func NewSaleRepository(db *sql.DB) SaleRepository {
	return &saleRepository{db: db}
}

const saleColumns = `id, invoice_number, user_id, customer_id, subtotal, tax_amount,
	discount_amount, total_amount, paid_amount, due_amount, notes, status, created_at, updated_at`

func (r *saleRepository) CreateSale(executor SQLExecutor, sale *models.Sale) (int64, error) {
	query := `INSERT INTO sales
	            (invoice_number, user_id, customer_id, subtotal, tax_amount, discount_amount,
	             total_amount, paid_amount, due_amount, notes, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          RETURNING id`

	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now()
	}
	if sale.UpdatedAt.IsZero() {
		sale.UpdatedAt = time.Now()
	}

	var customerID sql.NullInt64
	if sale.CustomerID != nil {
		customerID = sql.NullInt64{Int64: *sale.CustomerID, Valid: true}
	}

	err := executor.QueryRow(query,
		sale.InvoiceNumber, sale.UserID, customerID, sale.Subtotal, sale.TaxAmount,
		sale.DiscountAmount, sale.TotalAmount, sale.PaidAmount, sale.DueAmount,
		sale.Notes, sale.Status, sale.CreatedAt, sale.UpdatedAt,
	).Scan(&sale.ID)

	if err != nil {
		if IsUniqueViolation(err, "") {
			return 0, fmt.Errorf("%w: invoice number %s: %v", ErrDuplicateKey, sale.InvoiceNumber, err)
		}
		return 0, fmt.Errorf("%w: creating sale: %v", ErrDatabaseError, err)
	}
	return sale.ID, nil
}

func (r *saleRepository) GetSaleByID(saleID int64) (*models.Sale, error) {
	query := `SELECT s.id, s.invoice_number, s.user_id, s.customer_id, s.subtotal, s.tax_amount,
	                 s.discount_amount, s.total_amount, s.paid_amount, s.due_amount, s.notes, s.status,
	                 s.created_at, s.updated_at,
	                 u.name AS staff_name, c.name AS customer_name
	          FROM sales s
	          LEFT JOIN users u ON s.user_id = u.id
	          LEFT JOIN users c ON s.customer_id = c.id
	          WHERE s.id = $1`

	sale := &models.Sale{}
	var customerID sql.NullInt64
	var staffName, customerName sql.NullString

	err := r.db.QueryRow(query, saleID).Scan(
		&sale.ID, &sale.InvoiceNumber, &sale.UserID, &customerID, &sale.Subtotal, &sale.TaxAmount,
		&sale.DiscountAmount, &sale.TotalAmount, &sale.PaidAmount, &sale.DueAmount, &sale.Notes, &sale.Status,
		&sale.CreatedAt, &sale.UpdatedAt,
		&staffName, &customerName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting sale by ID %d: %v", ErrDatabaseError, saleID, err)
	}

	if customerID.Valid {
		sale.CustomerID = &customerID.Int64
	}
	if staffName.Valid {
		name := staffName.String
		sale.StaffName = &name
	}
	if customerName.Valid {
		name := customerName.String
		sale.CustomerName = &name
	}
	return sale, nil
}

func (r *saleRepository) GetSaleForUpdate(executor SQLExecutor, saleID int64) (*models.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1 FOR UPDATE`

	sale := &models.Sale{}
	var customerID sql.NullInt64

	err := executor.QueryRow(query, saleID).Scan(
		&sale.ID, &sale.InvoiceNumber, &sale.UserID, &customerID, &sale.Subtotal, &sale.TaxAmount,
		&sale.DiscountAmount, &sale.TotalAmount, &sale.PaidAmount, &sale.DueAmount, &sale.Notes, &sale.Status,
		&sale.CreatedAt, &sale.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking sale ID %d: %v", ErrDatabaseError, saleID, err)
	}

	if customerID.Valid {
		sale.CustomerID = &customerID.Int64
	}
	return sale, nil
}

func (r *saleRepository) GetSales(filters models.SaleFilters) ([]models.Sale, int, error) {
	sales := []models.Sale{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    s.id, s.invoice_number, s.user_id, s.customer_id, s.subtotal, s.tax_amount,
	    s.discount_amount, s.total_amount, s.paid_amount, s.due_amount, s.notes, s.status,
	    s.created_at, s.updated_at,
	    u.name AS staff_name, c.name AS customer_name,
	    COUNT(*) OVER() AS total_count
	  FROM sales s
	  LEFT JOIN users u ON s.user_id = u.id
	  LEFT JOIN users c ON s.customer_id = c.id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("s.customer_id = $%d", argCount))
		args = append(args, *filters.CustomerID)
		argCount++
	}
	if filters.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("s.user_id = $%d", argCount))
		args = append(args, *filters.UserID)
		argCount++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}
	if filters.Date != nil && *filters.Date != "" {
		parsedDate, err := time.Parse("2006-01-02", *filters.Date)
		if err == nil {
			startOfDay := time.Date(parsedDate.Year(), parsedDate.Month(), parsedDate.Day(), 0, 0, 0, 0, parsedDate.Location())
			endOfDay := startOfDay.AddDate(0, 0, 1).Add(-time.Nanosecond)
			conditions = append(conditions, fmt.Sprintf("s.created_at BETWEEN $%d AND $%d", argCount, argCount+1))
			args = append(args, startOfDay, endOfDay)
			argCount += 2
		}
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY s.created_at DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying sales: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.Sale
		var customerID sql.NullInt64
		var staffName, customerName sql.NullString

		if err := rows.Scan(
			&s.ID, &s.InvoiceNumber, &s.UserID, &customerID, &s.Subtotal, &s.TaxAmount,
			&s.DiscountAmount, &s.TotalAmount, &s.PaidAmount, &s.DueAmount, &s.Notes, &s.Status,
			&s.CreatedAt, &s.UpdatedAt,
			&staffName, &customerName,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning sale: %v", ErrDatabaseError, err)
		}

		if customerID.Valid {
			s.CustomerID = &customerID.Int64
		}
		if staffName.Valid {
			name := staffName.String
			s.StaffName = &name
		}
		if customerName.Valid {
			name := customerName.String
			s.CustomerName = &name
		}
		sales = append(sales, s)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating sale rows: %v", ErrDatabaseError, err)
	}
	return sales, totalCount, nil
}

func (r *saleRepository) UpdateSaleStatus(executor SQLExecutor, saleID int64, newStatus string, updatedAt time.Time) error {
	query := `UPDATE sales SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, newStatus, updatedAt, saleID)
	if err != nil {
		return fmt.Errorf("%w: updating sale status for ID %d: %v", ErrDatabaseError, saleID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for sale status update ID %d: %v", ErrDatabaseError, saleID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *saleRepository) DeleteSale(executor SQLExecutor, saleID int64) error {
	query := `DELETE FROM sales WHERE id = $1`
	result, err := executor.Exec(query, saleID)
	if err != nil {
		return fmt.Errorf("%w: deleting sale ID %d: %v", ErrDatabaseError, saleID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for deleting sale ID %d: %v", ErrDatabaseError, saleID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *saleRepository) CreateSaleItem(executor SQLExecutor, item *models.SaleItem) (int64, error) {
	query := `INSERT INTO sale_items
	            (sale_id, product_id, quantity, unit_type, unit_price, total_price, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		item.SaleID, item.ProductID, item.Quantity, item.UnitType,
		item.UnitPrice, item.TotalPrice, item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID)

	if err != nil {
		return 0, fmt.Errorf("%w: creating sale item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

func (r *saleRepository) GetSaleItemsBySaleID(executor SQLExecutor, saleID int64) ([]models.SaleItem, error) {
	items := []models.SaleItem{}
	query := `SELECT
	    si.id, si.sale_id, si.product_id, si.quantity, si.unit_type, si.unit_price,
	    si.total_price, si.created_at, si.updated_at,
	    COALESCE(pt.name, p.sku) AS product_name, p.sku AS product_sku
	  FROM sale_items si
	  JOIN products p ON si.product_id = p.id
	  LEFT JOIN product_translations pt ON pt.product_id = p.id AND pt.locale = 'en'
	  WHERE si.sale_id = $1
	  ORDER BY si.id`

	rows, err := executor.Query(query, saleID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying sale items for sale ID %d: %v", ErrDatabaseError, saleID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.SaleItem
		var productName, productSKU sql.NullString

		if err := rows.Scan(
			&item.ID, &item.SaleID, &item.ProductID, &item.Quantity, &item.UnitType, &item.UnitPrice,
			&item.TotalPrice, &item.CreatedAt, &item.UpdatedAt,
			&productName, &productSKU,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning sale item for sale ID %d: %v", ErrDatabaseError, saleID, err)
		}

		if productName.Valid {
			name := productName.String
			item.ProductName = &name
		}
		if productSKU.Valid {
			sku := productSKU.String
			item.ProductSKU = &sku
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sale item rows for sale ID %d: %v", ErrDatabaseError, saleID, err)
	}
	return items, nil
}

func (r *saleRepository) DeleteSaleItemsBySaleID(executor SQLExecutor, saleID int64) (int64, error) {
	query := `DELETE FROM sale_items WHERE sale_id = $1`
	result, err := executor.Exec(query, saleID)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting sale items for sale ID %d: %v", ErrDatabaseError, saleID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for deleting sale items for sale ID %d: %v", ErrDatabaseError, saleID, err)
	}
	return rowsAffected, nil
}
