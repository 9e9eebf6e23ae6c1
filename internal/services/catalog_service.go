package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"fabric_pos_backend/internal/models"
	"fabric_pos_backend/internal/repositories"
)

var (
	ErrCategoryNotFound   = errors.New("category not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrUnsupportedLocale  = errors.New("unsupported locale")
	ErrMissingEnglishName = errors.New("an English translation with a name is required")
	ErrInvalidUnit        = errors.New("unit type must be 'meter' or 'gaz'")
)

// TranslationInput is one locale's name/description pair as submitted by the
// client. Every catalog write carries at least the English entry.
type TranslationInput struct {
	Locale      string  `json:"locale" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

// CreateCategoryRequest is used for creating a new category.
type CreateCategoryRequest struct {
	Translations []TranslationInput `json:"translations" binding:"required,min=1,dive"`
	IsActive     *bool              `json:"is_active"`
}

// UpdateCategoryRequest is used for updating a category. Translations given
// are upserted per locale; omitted locales keep their current values.
type UpdateCategoryRequest struct {
	Translations []TranslationInput `json:"translations" binding:"omitempty,dive"`
	IsActive     *bool              `json:"is_active"`
}

// CreateProductRequest is used for creating a new product. Price and cost
// price are paisa; initial stock lands in the column named by UnitType.
type CreateProductRequest struct {
	SKU           string             `json:"sku" binding:"required"`
	CategoryID    int64              `json:"category_id" binding:"required"`
	Price         int64              `json:"price" binding:"required,gt=0"`
	CostPrice     *int64             `json:"cost_price"`
	UnitType      models.UnitType    `json:"unit_type" binding:"required"`
	InitialStock  decimal.Decimal    `json:"initial_stock"`
	MinStockLevel decimal.Decimal    `json:"min_stock_level"`
	Translations  []TranslationInput `json:"translations" binding:"required,min=1,dive"`
	IsActive      *bool              `json:"is_active"`
}

// UpdateProductRequest is used for updating a product. Stock quantities are
// deliberately absent: they change only through sales, cancellations and
// stock adjustments.
type UpdateProductRequest struct {
	SKU           *string            `json:"sku"`
	CategoryID    *int64             `json:"category_id"`
	Price         *int64             `json:"price" binding:"omitempty,gt=0"`
	CostPrice     *int64             `json:"cost_price"`
	MinStockLevel *decimal.Decimal   `json:"min_stock_level"`
	Translations  []TranslationInput `json:"translations" binding:"omitempty,dive"`
	IsActive      *bool              `json:"is_active"`
}

// CatalogService handles categories and products, including their bilingual
// translations.
type CatalogService interface {
	CreateCategory(req CreateCategoryRequest) (*models.Category, error)
	GetCategoryByID(categoryID int64, locale string) (*models.Category, error)
	GetCategories(locale string, page, pageSize int) ([]models.Category, int, error)
	UpdateCategory(categoryID int64, req UpdateCategoryRequest) (*models.Category, error)
	DeleteCategory(categoryID int64) error

	CreateProduct(req CreateProductRequest) (*models.Product, error)
	GetProductByID(productID int64, locale string) (*models.Product, error)
	GetProducts(filters models.ProductFilters) ([]models.Product, int, error)
	UpdateProduct(productID int64, req UpdateProductRequest) (*models.Product, error)
	DeleteProduct(productID int64) error
}

type catalogService struct {
	db           *sql.DB
	categoryRepo repositories.CategoryRepository
	productRepo  repositories.ProductRepository
}

// NewCatalogService creates a new instance of CatalogService.
func NewCatalogService(db *sql.DB, categoryRepo repositories.CategoryRepository,
	productRepo repositories.ProductRepository) CatalogService {
	return &catalogService{db: db, categoryRepo: categoryRepo, productRepo: productRepo}
}

// validateTranslations checks locales and, when requireEnglish is set, that
// the English entry is present. Names are trimmed in place.
func validateTranslations(translations []TranslationInput, requireEnglish bool) error {
	hasEnglish := false
	seen := make(map[string]bool, len(translations))
	for i := range translations {
		tr := &translations[i]
		if !models.ValidLocale(tr.Locale) {
			return fmt.Errorf("%w: '%s'", ErrUnsupportedLocale, tr.Locale)
		}
		if seen[tr.Locale] {
			return fmt.Errorf("%w: locale '%s' given twice", ErrUnsupportedLocale, tr.Locale)
		}
		seen[tr.Locale] = true
		tr.Name = strings.TrimSpace(tr.Name)
		if tr.Name == "" {
			return ErrMissingEnglishName
		}
		if tr.Locale == models.LocaleEnglish {
			hasEnglish = true
		}
	}
	if requireEnglish && !hasEnglish {
		return ErrMissingEnglishName
	}
	return nil
}

// mirrorTranslations fills the missing locale with the present one's name so
// both locales always resolve to something readable. Receipts printed in Urdu
// should not show blank product names just because nobody typed the Urdu one.
func mirrorTranslations(translations []TranslationInput) []TranslationInput {
	present := make(map[string]bool, len(translations))
	for _, tr := range translations {
		present[tr.Locale] = true
	}
	out := translations
	for _, tr := range translations {
		other := models.LocaleUrdu
		if tr.Locale == models.LocaleUrdu {
			other = models.LocaleEnglish
		}
		if !present[other] {
			out = append(out, TranslationInput{Locale: other, Name: tr.Name, Description: tr.Description})
			present[other] = true
		}
	}
	return out
}

func (s *catalogService) CreateCategory(req CreateCategoryRequest) (*models.Category, error) {
	if err := validateTranslations(req.Translations, true); err != nil {
		return nil, err
	}
	translations := mirrorTranslations(req.Translations)

	category := &models.Category{IsActive: true}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	categoryID, err := s.categoryRepo.CreateCategory(tx, category)
	if err != nil {
		return nil, err
	}
	for _, tr := range translations {
		if err := s.categoryRepo.UpsertTranslation(tx, categoryID, models.Translation(tr)); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit category creation: %w", err)
	}
	return s.GetCategoryByID(categoryID, models.LocaleEnglish)
}

func (s *catalogService) GetCategoryByID(categoryID int64, locale string) (*models.Category, error) {
	locale = normalizeLocale(locale)
	category, err := s.categoryRepo.GetCategoryByID(categoryID, locale)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

func (s *catalogService) GetCategories(locale string, page, pageSize int) ([]models.Category, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return s.categoryRepo.GetCategories(normalizeLocale(locale), page, pageSize)
}

func (s *catalogService) UpdateCategory(categoryID int64, req UpdateCategoryRequest) (*models.Category, error) {
	if err := validateTranslations(req.Translations, false); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	category, err := s.categoryRepo.GetCategoryByID(categoryID, models.LocaleEnglish)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if err := s.categoryRepo.UpdateCategory(tx, category); err != nil {
		return nil, err
	}
	for _, tr := range req.Translations {
		if err := s.categoryRepo.UpsertTranslation(tx, categoryID, models.Translation(tr)); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit category update: %w", err)
	}
	return s.GetCategoryByID(categoryID, models.LocaleEnglish)
}

func (s *catalogService) DeleteCategory(categoryID int64) error {
	err := s.categoryRepo.DeleteCategory(s.db, categoryID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrCategoryNotFound
	}
	return err
}

func (s *catalogService) CreateProduct(req CreateProductRequest) (*models.Product, error) {
	if !req.UnitType.Valid() {
		return nil, ErrInvalidUnit
	}
	if req.InitialStock.IsNegative() || req.MinStockLevel.IsNegative() {
		return nil, ErrNonPositiveAmount
	}
	if err := validateTranslations(req.Translations, true); err != nil {
		return nil, err
	}
	translations := mirrorTranslations(req.Translations)

	product := &models.Product{
		SKU:           strings.TrimSpace(req.SKU),
		CategoryID:    req.CategoryID,
		Price:         req.Price,
		CostPrice:     req.CostPrice,
		UnitType:      req.UnitType,
		MinStockLevel: req.MinStockLevel,
		IsActive:      true,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	switch req.UnitType {
	case models.UnitGaz:
		product.QuantityInGaz = req.InitialStock
	default:
		product.QuantityInMeter = req.InitialStock
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	productID, err := s.productRepo.CreateProduct(tx, product)
	if err != nil {
		return nil, err
	}
	for _, tr := range translations {
		if err := s.productRepo.UpsertTranslation(tx, productID, models.Translation(tr)); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit product creation: %w", err)
	}
	return s.GetProductByID(productID, models.LocaleEnglish)
}

func (s *catalogService) GetProductByID(productID int64, locale string) (*models.Product, error) {
	product, err := s.productRepo.GetProductByID(productID, normalizeLocale(locale))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *catalogService) GetProducts(filters models.ProductFilters) ([]models.Product, int, error) {
	filters.Locale = normalizeLocale(filters.Locale)
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	return s.productRepo.GetProducts(filters)
}

func (s *catalogService) UpdateProduct(productID int64, req UpdateProductRequest) (*models.Product, error) {
	if err := validateTranslations(req.Translations, false); err != nil {
		return nil, err
	}
	if req.MinStockLevel != nil && req.MinStockLevel.IsNegative() {
		return nil, ErrNonPositiveAmount
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	product, err := s.productRepo.GetProductByID(productID, models.LocaleEnglish)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if req.SKU != nil {
		product.SKU = strings.TrimSpace(*req.SKU)
	}
	if req.CategoryID != nil {
		product.CategoryID = *req.CategoryID
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.CostPrice != nil {
		product.CostPrice = req.CostPrice
	}
	if req.MinStockLevel != nil {
		product.MinStockLevel = *req.MinStockLevel
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.productRepo.UpdateProduct(tx, product); err != nil {
		return nil, err
	}
	for _, tr := range req.Translations {
		if err := s.productRepo.UpsertTranslation(tx, productID, models.Translation(tr)); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit product update: %w", err)
	}
	return s.GetProductByID(productID, models.LocaleEnglish)
}

func (s *catalogService) DeleteProduct(productID int64) error {
	err := s.productRepo.DeleteProduct(s.db, productID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrProductNotFound
	}
	return err
}

// normalizeLocale falls back to English for empty or unknown locales so read
// paths never fail on a bad Accept-Language value.
func normalizeLocale(locale string) string {
	if models.ValidLocale(locale) {
		return locale
	}
	return models.LocaleEnglish
}
