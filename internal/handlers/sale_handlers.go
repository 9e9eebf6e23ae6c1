package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fabric_pos_backend/internal/models"
	"fabric_pos_backend/internal/services"
	"fabric_pos_backend/pkg/utils"
)

// SaleHandler holds the sale service.
type SaleHandler struct {
	saleService services.SaleService
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(ss services.SaleService) *SaleHandler {
	return &SaleHandler{saleService: ss}
}

// CreateSale handles the creation of a new sale. The staff member is the
// authenticated user, never a field of the request body.
func (h *SaleHandler) CreateSale(c *gin.Context) {
	staffID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	sale, err := h.saleService.CreateSale(staffID, req)
	if err != nil {
		var stockErr *services.InsufficientStockError
		switch {
		case errors.As(err, &stockErr):
			// 409 with the full shortage list so the cashier can fix the
			// whole basket in one go.
			utils.RespondWithError(c, &utils.APIError{
				StatusCode: http.StatusConflict,
				Code:       utils.ErrCodeConflict,
				Message:    "Insufficient stock for one or more products.",
				Details:    stockErr.Error(),
			})
		case errors.Is(err, services.ErrProductUnavailable):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), ""))
		case errors.Is(err, services.ErrEmptySale),
			errors.Is(err, services.ErrNonPositiveAmount),
			errors.Is(err, services.ErrQuantityPrecision),
			errors.Is(err, services.ErrNegativeDiscount),
			errors.Is(err, services.ErrNegativePayment),
			errors.Is(err, services.ErrDiscountExceeds):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
		default:
			utils.LogError(err, "CreateSale: unexpected error")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create sale.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// GetSale returns one sale with its items.
func (h *SaleHandler) GetSale(c *gin.Context) {
	saleID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	sale, err := h.saleService.GetSaleByID(saleID)
	if err != nil {
		respondSaleError(c, err, "GetSale")
		return
	}
	c.JSON(http.StatusOK, sale)
}

// GetSales returns a filtered, paginated sale list.
func (h *SaleHandler) GetSales(c *gin.Context) {
	var filters models.SaleFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	sales, totalCount, err := h.saleService.GetSales(filters)
	if err != nil {
		respondSaleError(c, err, "GetSales")
		return
	}
	c.JSON(http.StatusOK, paginatedResponse{Data: sales, TotalCount: totalCount, Page: filters.Page, PageSize: filters.PageSize})
}

// CancelSale cancels a sale and restores its stock.
func (h *SaleHandler) CancelSale(c *gin.Context) {
	saleID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	sale, err := h.saleService.CancelSale(saleID, actorID)
	if err != nil {
		respondSaleError(c, err, "CancelSale")
		return
	}
	c.JSON(http.StatusOK, sale)
}

// DeleteSale removes a sale, restoring stock unless it was already cancelled.
func (h *SaleHandler) DeleteSale(c *gin.Context) {
	saleID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.saleService.DeleteSale(saleID, actorID); err != nil {
		respondSaleError(c, err, "DeleteSale")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sale deleted successfully"})
}

// respondSaleError maps sale service errors onto API responses.
func respondSaleError(c *gin.Context, err error, operation string) {
	switch {
	case errors.Is(err, services.ErrSaleNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Sale not found.", ""))
	case errors.Is(err, services.ErrSaleAlreadyCancelled):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Sale is already cancelled.", ""))
	default:
		utils.LogError(err, operation+": unexpected error")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Internal server error.", "Internal error"))
	}
}
