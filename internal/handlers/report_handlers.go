package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fabric_pos_backend/internal/services"
	"fabric_pos_backend/pkg/utils"
)

// ReportHandler holds the report service.
type ReportHandler struct {
	reportService services.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

// GetDashboardStats returns the POS home-screen snapshot.
func (h *ReportHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.reportService.GetDashboardStats()
	if err != nil {
		utils.LogError(err, "GetDashboardStats: unexpected error")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to compute dashboard stats.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, stats)
}
