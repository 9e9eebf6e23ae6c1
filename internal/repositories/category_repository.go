package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fabric_pos_backend/internal/models"
)

// CategoryRepository defines the interface for category-related database operations.
// Category names and descriptions live in category_translations, one row per locale.
type CategoryRepository interface {
	CreateCategory(executor SQLExecutor, category *models.Category) (int64, error)
	GetCategoryByID(categoryID int64, locale string) (*models.Category, error)
	GetCategories(locale string, page, pageSize int) ([]models.Category, int, error)
	UpdateCategory(executor SQLExecutor, category *models.Category) error
	DeleteCategory(executor SQLExecutor, categoryID int64) error

	UpsertTranslation(executor SQLExecutor, categoryID int64, tr models.Translation) error
	GetTranslations(categoryID int64) ([]models.Translation, error)
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository.
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) CreateCategory(executor SQLExecutor, category *models.Category) (int64, error) {
	query := `INSERT INTO categories (is_active, created_at, updated_at)
	          VALUES ($1, $2, $3)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query, category.IsActive, currentTime, currentTime).Scan(&category.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating category: %v", ErrDatabaseError, err)
	}
	return category.ID, nil
}

func (r *categoryRepository) GetCategoryByID(categoryID int64, locale string) (*models.Category, error) {
	category := &models.Category{}
	query := `SELECT c.id, c.is_active, c.created_at, c.updated_at,
	                 COALESCE(t.name, ft.name, '') AS name
	          FROM categories c
	          LEFT JOIN category_translations t ON t.category_id = c.id AND t.locale = $2
	          LEFT JOIN category_translations ft ON ft.category_id = c.id AND ft.locale = 'en'
	          WHERE c.id = $1`
	err := r.db.QueryRow(query, categoryID, locale).Scan(
		&category.ID, &category.IsActive, &category.CreatedAt, &category.UpdatedAt, &category.Name,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting category by ID %d: %v", ErrDatabaseError, categoryID, err)
	}

	translations, err := r.GetTranslations(categoryID)
	if err != nil {
		return nil, err
	}
	category.Translations = translations
	return category, nil
}

func (r *categoryRepository) GetCategories(locale string, page, pageSize int) ([]models.Category, int, error) {
	categories := []models.Category{}
	totalCount := 0

	query := `SELECT c.id, c.is_active, c.created_at, c.updated_at,
	                 COALESCE(t.name, ft.name, '') AS name,
	                 COUNT(*) OVER() AS total_count
	          FROM categories c
	          LEFT JOIN category_translations t ON t.category_id = c.id AND t.locale = $1
	          LEFT JOIN category_translations ft ON ft.category_id = c.id AND ft.locale = 'en'
	          ORDER BY name
	          LIMIT $2 OFFSET $3`
	offset := (page - 1) * pageSize

	rows, err := r.db.Query(query, locale, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting categories: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var category models.Category
		if err := rows.Scan(&category.ID, &category.IsActive, &category.CreatedAt, &category.UpdatedAt,
			&category.Name, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning category: %v", ErrDatabaseError, err)
		}
		categories = append(categories, category)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating categories: %v", ErrDatabaseError, err)
	}
	return categories, totalCount, nil
}

func (r *categoryRepository) UpdateCategory(executor SQLExecutor, category *models.Category) error {
	query := `UPDATE categories SET is_active = $1, updated_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, category.IsActive, time.Now(), category.ID)
	if err != nil {
		return fmt.Errorf("%w: updating category ID %d: %v", ErrDatabaseError, category.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *categoryRepository) DeleteCategory(executor SQLExecutor, categoryID int64) error {
	// Refuse deletion while products still reference this category.
	var count int
	checkQuery := `SELECT COUNT(*) FROM products WHERE category_id = $1`
	err := executor.QueryRow(checkQuery, categoryID).Scan(&count)
	if err != nil {
		return fmt.Errorf("%w: checking if category %d is in use: %v", ErrDatabaseError, categoryID, err)
	}
	if count > 0 {
		return fmt.Errorf("%w: category ID %d is used by %d product(s)", ErrInUse, categoryID, count)
	}

	query := `DELETE FROM categories WHERE id = $1`
	result, err := executor.Exec(query, categoryID)
	if err != nil {
		return fmt.Errorf("%w: deleting category ID %d: %v", ErrDatabaseError, categoryID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *categoryRepository) UpsertTranslation(executor SQLExecutor, categoryID int64, tr models.Translation) error {
	query := `INSERT INTO category_translations (category_id, locale, name, description)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (category_id, locale)
	          DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description`
	_, err := executor.Exec(query, categoryID, tr.Locale, tr.Name, tr.Description)
	if err != nil {
		return fmt.Errorf("%w: upserting category translation (%d/%s): %v", ErrDatabaseError, categoryID, tr.Locale, err)
	}
	return nil
}

func (r *categoryRepository) GetTranslations(categoryID int64) ([]models.Translation, error) {
	translations := []models.Translation{}
	query := `SELECT locale, name, description
	          FROM category_translations
	          WHERE category_id = $1
	          ORDER BY locale`

	rows, err := r.db.Query(query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying category translations for ID %d: %v", ErrDatabaseError, categoryID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var tr models.Translation
		if err := rows.Scan(&tr.Locale, &tr.Name, &tr.Description); err != nil {
			return nil, fmt.Errorf("%w: scanning category translation: %v", ErrDatabaseError, err)
		}
		translations = append(translations, tr)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating category translations: %v", ErrDatabaseError, err)
	}
	return translations, nil
}
