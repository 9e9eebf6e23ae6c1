package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fabric_pos_backend/internal/models"
	"fabric_pos_backend/internal/repositories"
	"fabric_pos_backend/internal/services"
	"fabric_pos_backend/pkg/utils"
)

// ProductHandler holds the catalog and stock services.
type ProductHandler struct {
	catalogService services.CatalogService
	stockService   services.StockService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(cs services.CatalogService, ss services.StockService) *ProductHandler {
	return &ProductHandler{catalogService: cs, stockService: ss}
}

// CreateProduct handles the creation of a new product with translations.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	product, err := h.catalogService.CreateProduct(req)
	if err != nil {
		respondCatalogError(c, err, "CreateProduct")
		return
	}
	c.JSON(http.StatusCreated, product)
}

// GetProduct returns one product resolved for the requested locale.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := h.catalogService.GetProductByID(productID, c.Query("locale"))
	if err != nil {
		respondCatalogError(c, err, "GetProduct")
		return
	}
	c.JSON(http.StatusOK, product)
}

// GetProducts returns a filtered, paginated product list.
func (h *ProductHandler) GetProducts(c *gin.Context) {
	var filters models.ProductFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	products, totalCount, err := h.catalogService.GetProducts(filters)
	if err != nil {
		respondCatalogError(c, err, "GetProducts")
		return
	}
	c.JSON(http.StatusOK, paginatedResponse{Data: products, TotalCount: totalCount, Page: filters.Page, PageSize: filters.PageSize})
}

// UpdateProduct handles product updates. Stock fields are rejected by shape:
// the request type simply has none.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	product, err := h.catalogService.UpdateProduct(productID, req)
	if err != nil {
		respondCatalogError(c, err, "UpdateProduct")
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct removes a product that no sale references.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteProduct(productID); err != nil {
		respondCatalogError(c, err, "DeleteProduct")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// AdjustStock applies a manual stock correction to one product.
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	product, err := h.stockService.AdjustProductStock(productID, actorID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProductNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), ""))
		case errors.Is(err, services.ErrInvalidDirection),
			errors.Is(err, services.ErrNonPositiveAmount),
			errors.Is(err, services.ErrQuantityPrecision):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
		case errors.Is(err, repositories.ErrInsufficientStock):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Adjustment would make stock negative.", err.Error()))
		default:
			utils.LogError(err, "AdjustStock: unexpected error")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to adjust stock.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, product)
}
