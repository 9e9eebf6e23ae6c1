package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fabric_pos_backend/internal/models"
	"fabric_pos_backend/internal/services"
	"fabric_pos_backend/pkg/utils"
)

// StockMovementHandler holds the stock service.
type StockMovementHandler struct {
	stockService services.StockService
}

// NewStockMovementHandler creates a new StockMovementHandler.
func NewStockMovementHandler(ss services.StockService) *StockMovementHandler {
	return &StockMovementHandler{stockService: ss}
}

// GetStockMovements returns the filtered, paginated stock audit trail.
func (h *StockMovementHandler) GetStockMovements(c *gin.Context) {
	var filters models.StockMovementFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	movements, totalCount, err := h.stockService.GetMovements(filters)
	if err != nil {
		utils.LogError(err, "GetStockMovements: unexpected error")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch stock movements.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, paginatedResponse{Data: movements, TotalCount: totalCount, Page: filters.Page, PageSize: filters.PageSize})
}
