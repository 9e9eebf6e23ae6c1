package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fabric_pos_backend/internal/models"

	"github.com/lib/pq"
)

// ProductRepository defines the interface for product catalog database operations.
// Stock quantities are read here but only ever mutated through the StockRepository.
type ProductRepository interface {
	CreateProduct(executor SQLExecutor, product *models.Product) (int64, error)
	GetProductByID(productID int64, locale string) (*models.Product, error)
	GetProducts(filters models.ProductFilters) ([]models.Product, int, error)
	UpdateProduct(executor SQLExecutor, product *models.Product) error
	DeleteProduct(executor SQLExecutor, productID int64) error

	UpsertTranslation(executor SQLExecutor, productID int64, tr models.Translation) error
	GetTranslations(productID int64) ([]models.Translation, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) CreateProduct(executor SQLExecutor, product *models.Product) (int64, error) {
	query := `INSERT INTO products
	            (sku, category_id, price, cost_price, quantity_in_meter, quantity_in_gaz,
	             min_stock_level, unit_type, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id`
	currentTime := time.Now()

	var costPrice sql.NullInt64
	if product.CostPrice != nil {
		costPrice = sql.NullInt64{Int64: *product.CostPrice, Valid: true}
	}

	err := executor.QueryRow(query,
		product.SKU, product.CategoryID, product.Price, costPrice,
		product.QuantityInMeter, product.QuantityInGaz, product.MinStockLevel,
		product.UnitType, product.IsActive, currentTime, currentTime,
	).Scan(&product.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" {
				return 0, fmt.Errorf("%w: product SKU '%s' already exists (constraint: %s)", ErrDuplicateKey, product.SKU, pqErr.Constraint)
			}
			if pqErr.Code.Name() == "foreign_key_violation" {
				return 0, fmt.Errorf("%w: invalid category_id %d (constraint: %s)", ErrDatabaseError, product.CategoryID, pqErr.Constraint)
			}
		}
		return 0, fmt.Errorf("%w: creating product: %v", ErrDatabaseError, err)
	}
	return product.ID, nil
}

func (r *productRepository) GetProductByID(productID int64, locale string) (*models.Product, error) {
	product := &models.Product{}
	query := `SELECT p.id, p.sku, p.category_id, p.price, p.cost_price,
	                 p.quantity_in_meter, p.quantity_in_gaz, p.min_stock_level, p.unit_type,
	                 p.is_active, p.created_at, p.updated_at,
	                 COALESCE(t.name, ft.name, '') AS name,
	                 COALESCE(t.description, ft.description) AS description,
	                 COALESCE(ct.name, cft.name, '') AS category_name
	          FROM products p
	          LEFT JOIN product_translations t ON t.product_id = p.id AND t.locale = $2
	          LEFT JOIN product_translations ft ON ft.product_id = p.id AND ft.locale = 'en'
	          LEFT JOIN category_translations ct ON ct.category_id = p.category_id AND ct.locale = $2
	          LEFT JOIN category_translations cft ON cft.category_id = p.category_id AND cft.locale = 'en'
	          WHERE p.id = $1`

	var costPrice sql.NullInt64
	var description, categoryName sql.NullString

	err := r.db.QueryRow(query, productID, locale).Scan(
		&product.ID, &product.SKU, &product.CategoryID, &product.Price, &costPrice,
		&product.QuantityInMeter, &product.QuantityInGaz, &product.MinStockLevel, &product.UnitType,
		&product.IsActive, &product.CreatedAt, &product.UpdatedAt,
		&product.Name, &description, &categoryName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product by ID %d: %v", ErrDatabaseError, productID, err)
	}

	if costPrice.Valid {
		product.CostPrice = &costPrice.Int64
	}
	if description.Valid {
		desc := description.String
		product.Description = &desc
	}
	if categoryName.Valid {
		name := categoryName.String
		product.CategoryName = &name
	}

	translations, err := r.GetTranslations(productID)
	if err != nil {
		return nil, err
	}
	product.Translations = translations
	return product, nil
}

func (r *productRepository) GetProducts(filters models.ProductFilters) ([]models.Product, int, error) {
	products := []models.Product{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    p.id, p.sku, p.category_id, p.price, p.cost_price,
	    p.quantity_in_meter, p.quantity_in_gaz, p.min_stock_level, p.unit_type,
	    p.is_active, p.created_at, p.updated_at,
	    COALESCE(t.name, ft.name, '') AS name,
	    COALESCE(t.description, ft.description) AS description,
	    COALESCE(ct.name, cft.name, '') AS category_name,
	    COUNT(*) OVER() AS total_count
	  FROM products p
	  LEFT JOIN product_translations t ON t.product_id = p.id AND t.locale = $1
	  LEFT JOIN product_translations ft ON ft.product_id = p.id AND ft.locale = 'en'
	  LEFT JOIN category_translations ct ON ct.category_id = p.category_id AND ct.locale = $1
	  LEFT JOIN category_translations cft ON cft.category_id = p.category_id AND cft.locale = 'en'`)

	conditions := []string{}
	args := []interface{}{filters.Locale}
	argCount := 2

	if filters.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("p.category_id = $%d", argCount))
		args = append(args, *filters.CategoryID)
		argCount++
	}
	if filters.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("p.is_active = $%d", argCount))
		args = append(args, *filters.IsActive)
		argCount++
	}
	if filters.LowStock != nil && *filters.LowStock {
		conditions = append(conditions, `p.min_stock_level > 0 AND
		    CASE WHEN p.unit_type = 'gaz' THEN p.quantity_in_gaz ELSE p.quantity_in_meter END <= p.min_stock_level`)
	}
	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(p.sku ILIKE $%d OR t.name ILIKE $%d OR ft.name ILIKE $%d)", argCount, argCount, argCount))
		args = append(args, "%"+*filters.Search+"%")
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY name")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Product
		var costPrice sql.NullInt64
		var description, categoryName sql.NullString

		if err := rows.Scan(
			&p.ID, &p.SKU, &p.CategoryID, &p.Price, &costPrice,
			&p.QuantityInMeter, &p.QuantityInGaz, &p.MinStockLevel, &p.UnitType,
			&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
			&p.Name, &description, &categoryName,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}

		if costPrice.Valid {
			p.CostPrice = &costPrice.Int64
		}
		if description.Valid {
			desc := description.String
			p.Description = &desc
		}
		if categoryName.Valid {
			name := categoryName.String
			p.CategoryName = &name
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating products: %v", ErrDatabaseError, err)
	}
	return products, totalCount, nil
}

// UpdateProduct writes the catalog fields of a product. Stock quantities are
// deliberately excluded; they belong to the StockRepository.
func (r *productRepository) UpdateProduct(executor SQLExecutor, product *models.Product) error {
	query := `UPDATE products SET
	            sku = $1, category_id = $2, price = $3, cost_price = $4,
	            min_stock_level = $5, unit_type = $6, is_active = $7, updated_at = $8
	          WHERE id = $9`

	var costPrice sql.NullInt64
	if product.CostPrice != nil {
		costPrice = sql.NullInt64{Int64: *product.CostPrice, Valid: true}
	}

	result, err := executor.Exec(query,
		product.SKU, product.CategoryID, product.Price, costPrice,
		product.MinStockLevel, product.UnitType, product.IsActive, time.Now(),
		product.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" {
				return fmt.Errorf("%w: product SKU '%s' already exists (constraint: %s)", ErrDuplicateKey, product.SKU, pqErr.Constraint)
			}
			if pqErr.Code.Name() == "foreign_key_violation" {
				return fmt.Errorf("%w: invalid category_id %d (constraint: %s)", ErrDatabaseError, product.CategoryID, pqErr.Constraint)
			}
		}
		return fmt.Errorf("%w: updating product ID %d: %v", ErrDatabaseError, product.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) DeleteProduct(executor SQLExecutor, productID int64) error {
	query := `DELETE FROM products WHERE id = $1`
	result, err := executor.Exec(query, productID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return fmt.Errorf("%w: product ID %d is referenced by sale items (constraint: %s)", ErrInUse, productID, pqErr.Constraint)
		}
		return fmt.Errorf("%w: deleting product ID %d: %v", ErrDatabaseError, productID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) UpsertTranslation(executor SQLExecutor, productID int64, tr models.Translation) error {
	query := `INSERT INTO product_translations (product_id, locale, name, description)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (product_id, locale)
	          DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description`
	_, err := executor.Exec(query, productID, tr.Locale, tr.Name, tr.Description)
	if err != nil {
		return fmt.Errorf("%w: upserting product translation (%d/%s): %v", ErrDatabaseError, productID, tr.Locale, err)
	}
	return nil
}

func (r *productRepository) GetTranslations(productID int64) ([]models.Translation, error) {
	translations := []models.Translation{}
	query := `SELECT locale, name, description
	          FROM product_translations
	          WHERE product_id = $1
	          ORDER BY locale`

	rows, err := r.db.Query(query, productID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying product translations for ID %d: %v", ErrDatabaseError, productID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var tr models.Translation
		if err := rows.Scan(&tr.Locale, &tr.Name, &tr.Description); err != nil {
			return nil, fmt.Errorf("%w: scanning product translation: %v", ErrDatabaseError, err)
		}
		translations = append(translations, tr)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating product translations: %v", ErrDatabaseError, err)
	}
	return translations, nil
}
