package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fabric_pos_backend/internal/services"
	"fabric_pos_backend/pkg/utils"
)

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized,
				"Authorization header required.", ""))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized,
				"Invalid authorization header format. Use Bearer <token>.", ""))
			return
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized,
				"Invalid or expired token.", err.Error()))
			return
		}

		// User information for downstream handlers.
		c.Set("userID", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("roles", claims.Roles)

		c.Next()
	}
}

// RequirePermission creates a Gin middleware that allows the request only if
// the authenticated user holds the named permission. The check reads the
// database, not the token, so a revoked grant takes effect immediately.
func RequirePermission(accessService services.AccessService, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get("userID")
		if !exists {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized,
				"User not authenticated.", "AuthMiddleware must run first"))
			return
		}
		userID, ok := value.(int64)
		if !ok {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError,
				"Invalid user context.", ""))
			return
		}

		allowed, err := accessService.Can(userID, permission)
		if err != nil {
			utils.LogError(err, "RequirePermission: permission check failed")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError,
				"Failed to verify permissions.", "Internal error"))
			return
		}
		if !allowed {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden,
				"You do not have permission to access this resource.", "required permission: "+permission))
			return
		}

		c.Next()
	}
}
