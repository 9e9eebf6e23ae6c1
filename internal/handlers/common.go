package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fabric_pos_backend/pkg/utils"
)

// parseIDParam reads a positive int64 path parameter. On failure it writes
// the error response and returns false; the caller just returns.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := utils.StrToInt64(c.Param(name))
	if err != nil || id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid "+name+" parameter.", "must be a positive integer"))
		return 0, false
	}
	return id, true
}

// currentUserID reads the authenticated user's ID set by the auth middleware.
func currentUserID(c *gin.Context) (int64, bool) {
	value, exists := c.Get("userID")
	if !exists {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized,
			"User not authenticated.", "missing user context"))
		return 0, false
	}
	userID, ok := value.(int64)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError,
			"Invalid user context.", "user ID has unexpected type"))
		return 0, false
	}
	return userID, true
}

// paginatedResponse is the common list envelope.
type paginatedResponse struct {
	Data       interface{} `json:"data"`
	TotalCount int         `json:"total_count"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
}
