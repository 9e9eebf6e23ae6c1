package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fabric_pos_backend/internal/models"
	"fabric_pos_backend/internal/services"
	"fabric_pos_backend/pkg/utils"
)

// UserHandler holds the user service.
type UserHandler struct {
	userService services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(us services.UserService) *UserHandler {
	return &UserHandler{userService: us}
}

// CreateUser handles admin creation of staff or customer accounts.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req services.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	user, err := h.userService.CreateUser(req)
	if err != nil {
		respondUserError(c, err, "CreateUser")
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GetUser returns one user with roles and direct permissions.
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		respondUserError(c, err, "GetUser")
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetUsers returns a filtered, paginated user list.
func (h *UserHandler) GetUsers(c *gin.Context) {
	var filters models.UserFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	users, totalCount, err := h.userService.GetUsers(filters)
	if err != nil {
		respondUserError(c, err, "GetUsers")
		return
	}
	c.JSON(http.StatusOK, paginatedResponse{Data: users, TotalCount: totalCount, Page: filters.Page, PageSize: filters.PageSize})
}

// UpdateUser handles profile updates.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	user, err := h.userService.UpdateUser(userID, req)
	if err != nil {
		respondUserError(c, err, "UpdateUser")
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeactivateUser disables an account without deleting it.
func (h *UserHandler) DeactivateUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.userService.DeactivateUser(userID); err != nil {
		respondUserError(c, err, "DeactivateUser")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deactivated successfully"})
}

// ReactivateUser re-enables a deactivated account.
func (h *UserHandler) ReactivateUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.userService.ReactivateUser(userID); err != nil {
		respondUserError(c, err, "ReactivateUser")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User reactivated successfully"})
}

// respondUserError maps user service errors onto API responses.
func respondUserError(c *gin.Context, err error, operation string) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "User not found.", ""))
	case errors.Is(err, services.ErrEmailTaken):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Email is already registered.", ""))
	default:
		utils.LogError(err, operation+": unexpected error")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Internal server error.", "Internal error"))
	}
}
