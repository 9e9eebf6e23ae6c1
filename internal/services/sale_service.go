package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fabric_pos_backend/internal/models"
	"fabric_pos_backend/internal/repositories"
	"fabric_pos_backend/pkg/utils"
)

var (
	ErrSaleNotFound         = errors.New("sale not found")
	ErrSaleAlreadyCancelled = errors.New("sale is already cancelled")
	ErrEmptySale            = errors.New("a sale must contain at least one item")
	ErrProductUnavailable   = errors.New("product not found or not active")
	ErrQuantityPrecision    = errors.New("quantity supports at most two decimal places")
)

// maxInvoiceAttempts bounds how many times sale creation is retried when the
// generated invoice number collides with an existing one.
const maxInvoiceAttempts = 3

// Shortage describes one product that could not cover the requested quantity.
type Shortage struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitType    models.UnitType `json:"unit_type"`
	Requested   decimal.Decimal `json:"requested"`
	Available   decimal.Decimal `json:"available"`
}

// InsufficientStockError reports every shortage in the attempted sale at
// once, so the cashier sees the full picture instead of fixing lines one by
// one. The sale has no effect when this error is returned.
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s: requested %s %s, available %s",
			s.ProductName, s.Requested.StringFixed(2), s.UnitType, s.Available.StringFixed(2)))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

// CreateSaleItemRequest is one requested line of a new sale. The unit type
// and unit price come from the product itself, never from the client.
type CreateSaleItemRequest struct {
	ProductID int64           `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
}

// CreateSaleRequest is used for creating a new sale. Monetary fields are paisa.
type CreateSaleRequest struct {
	CustomerID     *int64                  `json:"customer_id"`
	Items          []CreateSaleItemRequest `json:"items" binding:"required,min=1,dive"`
	DiscountAmount int64                   `json:"discount_amount" binding:"gte=0"`
	PaidAmount     int64                   `json:"paid_amount" binding:"gte=0"`
	Notes          *string                 `json:"notes"`
}

// SaleService handles the sale lifecycle: creation with stock decrement,
// cancellation with stock restoration, and deletion.
type SaleService interface {
	CreateSale(staffID int64, req CreateSaleRequest) (*models.Sale, error)
	GetSaleByID(saleID int64) (*models.Sale, error)
	GetSales(filters models.SaleFilters) ([]models.Sale, int, error)
	CancelSale(saleID, actorID int64) (*models.Sale, error)
	DeleteSale(saleID, actorID int64) error
}

type saleService struct {
	db           *sql.DB
	saleRepo     repositories.SaleRepository
	stockRepo    repositories.StockRepository
	movementRepo repositories.StockMovementRepository
	taxPolicy    TaxPolicy
}

// NewSaleService creates a new instance of SaleService.
func NewSaleService(db *sql.DB, saleRepo repositories.SaleRepository, stockRepo repositories.StockRepository,
	movementRepo repositories.StockMovementRepository, taxPolicy TaxPolicy) SaleService {
	return &saleService{
		db:           db,
		saleRepo:     saleRepo,
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
		taxPolicy:    taxPolicy,
	}
}

// CreateSale runs the whole sale as one transaction: lock products, verify
// stock, compute totals, insert the sale and its lines, decrement stock and
// record movements. A failure at any step leaves no trace.
//
// The transaction is retried from the top on an invoice-number collision
// (fresh number each attempt) and once on a Postgres deadlock; a failed
// statement poisons the transaction, so partial retries are not possible.
func (s *saleService) CreateSale(staffID int64, req CreateSaleRequest) (*models.Sale, error) {
	if err := validateSaleItems(req.Items); err != nil {
		return nil, err
	}

	invoiceAttempts := 0
	deadlockRetried := false
	for {
		sale, err := s.createSaleTx(staffID, req)
		if err == nil {
			return sale, nil
		}
		if repositories.IsDeadlock(err) && !deadlockRetried {
			deadlockRetried = true
			utils.LogInfo("sale creation hit a deadlock, retrying once")
			continue
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			invoiceAttempts++
			if invoiceAttempts < maxInvoiceAttempts {
				continue
			}
			return nil, fmt.Errorf("invoice number generation kept colliding: %w", err)
		}
		return nil, err
	}
}

func validateSaleItems(items []CreateSaleItemRequest) error {
	if len(items) == 0 {
		return ErrEmptySale
	}
	for _, item := range items {
		if !item.Quantity.IsPositive() {
			return ErrNonPositiveAmount
		}
		if item.Quantity.Exponent() < -2 && !item.Quantity.Equal(item.Quantity.Round(2)) {
			return fmt.Errorf("%w: product ID %d", ErrQuantityPrecision, item.ProductID)
		}
	}
	return nil
}

func (s *saleService) createSaleTx(staffID int64, req CreateSaleRequest) (*models.Sale, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Cumulative requested quantity per product; one product may appear on
	// several lines.
	requested := make(map[int64]decimal.Decimal)
	productIDs := make([]int64, 0, len(req.Items))
	for _, item := range req.Items {
		if _, seen := requested[item.ProductID]; !seen {
			productIDs = append(productIDs, item.ProductID)
		}
		requested[item.ProductID] = requested[item.ProductID].Add(item.Quantity)
	}

	locked, err := s.stockRepo.LockProducts(tx, productIDs)
	if err != nil {
		return nil, err
	}

	var shortages []Shortage
	lineAmounts := make([]LineAmount, 0, len(req.Items))
	for _, productID := range productIDs {
		product, ok := locked[productID]
		if !ok || !product.IsActive {
			return nil, fmt.Errorf("%w: product ID %d", ErrProductUnavailable, productID)
		}
		want := requested[productID]
		if available := product.Available(product.UnitType); available.LessThan(want) {
			shortages = append(shortages, Shortage{
				ProductID:   productID,
				ProductName: product.Name,
				UnitType:    product.UnitType,
				Requested:   want,
				Available:   available,
			})
		}
	}
	if len(shortages) > 0 {
		return nil, &InsufficientStockError{Shortages: shortages}
	}
	for _, item := range req.Items {
		lineAmounts = append(lineAmounts, LineAmount{
			Quantity:  item.Quantity,
			UnitPrice: locked[item.ProductID].Price,
		})
	}

	totals, err := ComputeTotals(lineAmounts, req.DiscountAmount, req.PaidAmount, s.taxPolicy)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sale := &models.Sale{
		InvoiceNumber:  utils.NewInvoiceNumber(now),
		UserID:         staffID,
		CustomerID:     req.CustomerID,
		Subtotal:       totals.Subtotal,
		TaxAmount:      totals.TaxAmount,
		DiscountAmount: req.DiscountAmount,
		TotalAmount:    totals.TotalAmount,
		PaidAmount:     req.PaidAmount,
		DueAmount:      totals.DueAmount,
		Notes:          req.Notes,
		Status:         totals.Status,
	}
	saleID, err := s.saleRepo.CreateSale(tx, sale)
	if err != nil {
		return nil, err
	}

	for _, item := range req.Items {
		product := locked[item.ProductID]
		saleItem := &models.SaleItem{
			SaleID:     saleID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitType:   product.UnitType,
			UnitPrice:  product.Price,
			TotalPrice: LineTotal(item.Quantity, product.Price),
		}
		if _, err := s.saleRepo.CreateSaleItem(tx, saleItem); err != nil {
			return nil, err
		}

		if _, err := s.stockRepo.AdjustStock(tx, item.ProductID, product.UnitType,
			repositories.StockDecrease, item.Quantity); err != nil {
			return nil, err
		}

		movement := &models.StockMovement{
			ProductID:    item.ProductID,
			UserID:       &staffID,
			MovementType: models.MovementSale,
			Quantity:     item.Quantity.Neg(),
			UnitType:     product.UnitType,
			SaleID:       &saleID,
		}
		if _, err := s.movementRepo.CreateMovement(tx, movement); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sale transaction: %w", err)
	}

	utils.LogInfo("sale created", map[string]interface{}{
		"sale_id":        saleID,
		"invoice_number": sale.InvoiceNumber,
		"staff_id":       staffID,
		"total":          utils.FormatPaisa(sale.TotalAmount),
		"status":         sale.Status,
	})
	return s.GetSaleByID(saleID)
}

func (s *saleService) GetSaleByID(saleID int64) (*models.Sale, error) {
	sale, err := s.saleRepo.GetSaleByID(saleID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	items, err := s.saleRepo.GetSaleItemsBySaleID(s.db, saleID)
	if err != nil {
		return nil, err
	}
	sale.Items = items
	return sale, nil
}

func (s *saleService) GetSales(filters models.SaleFilters) ([]models.Sale, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	return s.saleRepo.GetSales(filters)
}

// CancelSale marks the sale cancelled and puts every sold quantity back on
// the shelf, all in one transaction. Cancelling twice is rejected so stock
// is never credited twice for the same sale.
func (s *saleService) CancelSale(saleID, actorID int64) (*models.Sale, error) {
	deadlockRetried := false
	for {
		sale, err := s.cancelSaleTx(saleID, actorID)
		if err != nil && repositories.IsDeadlock(err) && !deadlockRetried {
			deadlockRetried = true
			continue
		}
		return sale, err
	}
}

func (s *saleService) cancelSaleTx(saleID, actorID int64) (*models.Sale, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sale, err := s.saleRepo.GetSaleForUpdate(tx, saleID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	if sale.Status == models.SaleStatusCancelled {
		return nil, ErrSaleAlreadyCancelled
	}

	items, err := s.saleRepo.GetSaleItemsBySaleID(tx, saleID)
	if err != nil {
		return nil, err
	}

	if err := s.restoreStock(tx, saleID, actorID, items, models.MovementCancellationReturn); err != nil {
		return nil, err
	}

	if err := s.saleRepo.UpdateSaleStatus(tx, saleID, models.SaleStatusCancelled, time.Now()); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	utils.LogInfo("sale cancelled", map[string]interface{}{
		"sale_id":        saleID,
		"invoice_number": sale.InvoiceNumber,
		"user_id":        actorID,
	})
	return s.GetSaleByID(saleID)
}

// restoreStock credits every item's quantity back to its product, locking the
// product rows first and writing one movement row per item.
func (s *saleService) restoreStock(tx *sql.Tx, saleID, actorID int64, items []models.SaleItem, movementType string) error {
	if len(items) == 0 {
		return nil
	}

	productIDs := make([]int64, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	if _, err := s.stockRepo.LockProducts(tx, productIDs); err != nil {
		return err
	}

	for _, item := range items {
		if _, err := s.stockRepo.AdjustStock(tx, item.ProductID, item.UnitType,
			repositories.StockIncrease, item.Quantity); err != nil {
			return err
		}
		movement := &models.StockMovement{
			ProductID:    item.ProductID,
			UserID:       &actorID,
			MovementType: movementType,
			Quantity:     item.Quantity,
			UnitType:     item.UnitType,
			SaleID:       &saleID,
		}
		if _, err := s.movementRepo.CreateMovement(tx, movement); err != nil {
			return err
		}
	}
	return nil
}

// DeleteSale removes the sale and its items. A pending or completed sale has
// its stock restored first; a cancelled sale already gave its stock back at
// cancellation time, so deletion must not credit it again.
func (s *saleService) DeleteSale(saleID, actorID int64) error {
	deadlockRetried := false
	for {
		err := s.deleteSaleTx(saleID, actorID)
		if err != nil && repositories.IsDeadlock(err) && !deadlockRetried {
			deadlockRetried = true
			continue
		}
		return err
	}
}

func (s *saleService) deleteSaleTx(saleID, actorID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sale, err := s.saleRepo.GetSaleForUpdate(tx, saleID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrSaleNotFound
		}
		return err
	}

	items, err := s.saleRepo.GetSaleItemsBySaleID(tx, saleID)
	if err != nil {
		return err
	}

	if sale.Status != models.SaleStatusCancelled {
		if err := s.restoreStock(tx, saleID, actorID, items, models.MovementDeletionReturn); err != nil {
			return err
		}
	}

	if _, err := s.saleRepo.DeleteSaleItemsBySaleID(tx, saleID); err != nil {
		return err
	}
	if err := s.saleRepo.DeleteSale(tx, saleID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit deletion: %w", err)
	}

	utils.LogInfo("sale deleted", map[string]interface{}{
		"sale_id":        saleID,
		"invoice_number": sale.InvoiceNumber,
		"user_id":        actorID,
		"stock_restored": sale.Status != models.SaleStatusCancelled,
	})
	return nil
}
