package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fabric_pos_backend/internal/repositories"
	"fabric_pos_backend/internal/services"
	"fabric_pos_backend/pkg/utils"
)

// CategoryHandler holds the catalog service.
type CategoryHandler struct {
	catalogService services.CatalogService
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(cs services.CatalogService) *CategoryHandler {
	return &CategoryHandler{catalogService: cs}
}

// CreateCategory handles the creation of a new category with translations.
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req services.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	category, err := h.catalogService.CreateCategory(req)
	if err != nil {
		respondCatalogError(c, err, "CreateCategory")
		return
	}
	c.JSON(http.StatusCreated, category)
}

// GetCategory returns one category resolved for the requested locale.
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	category, err := h.catalogService.GetCategoryByID(categoryID, c.Query("locale"))
	if err != nil {
		respondCatalogError(c, err, "GetCategory")
		return
	}
	c.JSON(http.StatusOK, category)
}

// GetCategories returns a paginated category list for the requested locale.
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	categories, totalCount, err := h.catalogService.GetCategories(c.Query("locale"), page, pageSize)
	if err != nil {
		respondCatalogError(c, err, "GetCategories")
		return
	}
	c.JSON(http.StatusOK, paginatedResponse{Data: categories, TotalCount: totalCount, Page: page, PageSize: pageSize})
}

// UpdateCategory handles category updates, upserting any given translations.
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	category, err := h.catalogService.UpdateCategory(categoryID, req)
	if err != nil {
		respondCatalogError(c, err, "UpdateCategory")
		return
	}
	c.JSON(http.StatusOK, category)
}

// DeleteCategory removes a category that no product references.
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteCategory(categoryID); err != nil {
		respondCatalogError(c, err, "DeleteCategory")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

// respondCatalogError maps catalog service errors onto API responses.
func respondCatalogError(c *gin.Context, err error, operation string) {
	switch {
	case errors.Is(err, services.ErrCategoryNotFound), errors.Is(err, services.ErrProductNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), ""))
	case errors.Is(err, services.ErrUnsupportedLocale),
		errors.Is(err, services.ErrMissingEnglishName),
		errors.Is(err, services.ErrInvalidUnit),
		errors.Is(err, services.ErrNonPositiveAmount):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
	case errors.Is(err, repositories.ErrDuplicateKey), errors.Is(err, repositories.ErrInUse):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), ""))
	default:
		utils.LogError(err, operation+": unexpected error")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Internal server error.", "Internal error"))
	}
}
