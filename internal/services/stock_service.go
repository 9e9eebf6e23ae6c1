package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"fabric_pos_backend/internal/models"
	"fabric_pos_backend/internal/repositories"
	"fabric_pos_backend/pkg/utils"
)

var ErrInvalidDirection = errors.New("direction must be 'increase' or 'decrease'")

// AdjustStockRequest describes a manual stock correction: goods received,
// damaged fabric written off, or a physical recount.
type AdjustStockRequest struct {
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	Direction string          `json:"direction" binding:"required"`
	Reason    *string         `json:"reason"`
}

// StockService handles manual stock adjustments and the movement audit trail.
// Sale-driven stock changes go through SaleService, not here.
type StockService interface {
	AdjustProductStock(productID, actorID int64, req AdjustStockRequest) (*models.Product, error)
	GetMovements(filters models.StockMovementFilters) ([]models.StockMovement, int, error)
}

type stockService struct {
	db           *sql.DB
	stockRepo    repositories.StockRepository
	movementRepo repositories.StockMovementRepository
	productRepo  repositories.ProductRepository
}

// NewStockService creates a new instance of StockService.
func NewStockService(db *sql.DB, stockRepo repositories.StockRepository,
	movementRepo repositories.StockMovementRepository, productRepo repositories.ProductRepository) StockService {
	return &stockService{db: db, stockRepo: stockRepo, movementRepo: movementRepo, productRepo: productRepo}
}

// AdjustProductStock applies a manual correction to one product in its own
// unit dimension and records the movement, both in one transaction.
func (s *stockService) AdjustProductStock(productID, actorID int64, req AdjustStockRequest) (*models.Product, error) {
	direction := repositories.StockDirection(req.Direction)
	if !direction.Valid() {
		return nil, ErrInvalidDirection
	}
	if !req.Quantity.IsPositive() {
		return nil, ErrNonPositiveAmount
	}
	if req.Quantity.Exponent() < -2 && !req.Quantity.Equal(req.Quantity.Round(2)) {
		return nil, ErrQuantityPrecision
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	locked, err := s.stockRepo.LockProducts(tx, []int64{productID})
	if err != nil {
		return nil, err
	}
	product, ok := locked[productID]
	if !ok {
		return nil, ErrProductNotFound
	}

	newLevel, err := s.stockRepo.AdjustStock(tx, productID, product.UnitType, direction, req.Quantity)
	if err != nil {
		return nil, err
	}

	movementType := models.MovementAdjustmentIn
	signedQuantity := req.Quantity
	if direction == repositories.StockDecrease {
		movementType = models.MovementAdjustmentOut
		signedQuantity = req.Quantity.Neg()
	}
	movement := &models.StockMovement{
		ProductID:    productID,
		UserID:       &actorID,
		MovementType: movementType,
		Quantity:     signedQuantity,
		UnitType:     product.UnitType,
		Reason:       req.Reason,
	}
	if _, err := s.movementRepo.CreateMovement(tx, movement); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit stock adjustment: %w", err)
	}

	utils.LogInfo("stock adjusted", map[string]interface{}{
		"product_id":     productID,
		"user_id":        actorID,
		"direction":      req.Direction,
		"quantity":       req.Quantity.StringFixed(2),
		"unit_type":      product.UnitType,
		"previous_stock": product.Available(product.UnitType).StringFixed(2),
		"new_stock":      newLevel.StringFixed(2),
	})

	return s.productRepo.GetProductByID(productID, models.LocaleEnglish)
}

func (s *stockService) GetMovements(filters models.StockMovementFilters) ([]models.StockMovement, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	return s.movementRepo.GetMovements(filters)
}
