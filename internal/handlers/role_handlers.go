package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fabric_pos_backend/internal/repositories"
	"fabric_pos_backend/internal/services"
	"fabric_pos_backend/pkg/utils"
)

// RoleHandler holds the access service.
type RoleHandler struct {
	accessService services.AccessService
}

// NewRoleHandler creates a new RoleHandler.
func NewRoleHandler(as services.AccessService) *RoleHandler {
	return &RoleHandler{accessService: as}
}

// CreateRole handles the creation of a new role with its permission grants.
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req services.RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	role, err := h.accessService.CreateRole(req)
	if err != nil {
		respondAccessError(c, err, "CreateRole")
		return
	}
	c.JSON(http.StatusCreated, role)
}

// GetRole returns one role with its permissions.
func (h *RoleHandler) GetRole(c *gin.Context) {
	roleID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	role, err := h.accessService.GetRoleByID(roleID)
	if err != nil {
		respondAccessError(c, err, "GetRole")
		return
	}
	c.JSON(http.StatusOK, role)
}

// GetRoles returns all roles with their permissions.
func (h *RoleHandler) GetRoles(c *gin.Context) {
	roles, err := h.accessService.GetRoles()
	if err != nil {
		respondAccessError(c, err, "GetRoles")
		return
	}
	c.JSON(http.StatusOK, roles)
}

// UpdateRole handles updating a role and resyncing its grants.
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	roleID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	role, err := h.accessService.UpdateRole(roleID, req)
	if err != nil {
		respondAccessError(c, err, "UpdateRole")
		return
	}
	c.JSON(http.StatusOK, role)
}

// DeleteRole removes a non-protected role.
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	roleID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.accessService.DeleteRole(roleID); err != nil {
		respondAccessError(c, err, "DeleteRole")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role deleted successfully"})
}

// GetPermissions returns the permission catalog.
func (h *RoleHandler) GetPermissions(c *gin.Context) {
	permissions, err := h.accessService.GetPermissions()
	if err != nil {
		respondAccessError(c, err, "GetPermissions")
		return
	}
	c.JSON(http.StatusOK, permissions)
}

// assignmentRequest names the role or permission being attached to a user.
type assignmentRequest struct {
	RoleID       *int64 `json:"role_id"`
	PermissionID *int64 `json:"permission_id"`
}

// AssignToUser attaches a role or grants a direct permission to a user.
func (h *RoleHandler) AssignToUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req assignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.RoleID == nil && req.PermissionID == nil) {
		utils.RespondValidationFailed(c, "either role_id or permission_id is required")
		return
	}

	var err error
	if req.RoleID != nil {
		err = h.accessService.AssignRoleToUser(userID, *req.RoleID)
	} else {
		err = h.accessService.GrantPermissionToUser(userID, *req.PermissionID)
	}
	if err != nil {
		respondAccessError(c, err, "AssignToUser")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Assignment saved successfully"})
}

// RemoveFromUser detaches a role or revokes a direct permission from a user.
func (h *RoleHandler) RemoveFromUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req assignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.RoleID == nil && req.PermissionID == nil) {
		utils.RespondValidationFailed(c, "either role_id or permission_id is required")
		return
	}

	var err error
	if req.RoleID != nil {
		err = h.accessService.RemoveRoleFromUser(userID, *req.RoleID)
	} else {
		err = h.accessService.RevokePermissionFromUser(userID, *req.PermissionID)
	}
	if err != nil {
		respondAccessError(c, err, "RemoveFromUser")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Assignment removed successfully"})
}

// respondAccessError maps access service errors onto API responses.
func respondAccessError(c *gin.Context, err error, operation string) {
	switch {
	case errors.Is(err, services.ErrRoleNotFound), errors.Is(err, repositories.ErrNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), ""))
	case errors.Is(err, services.ErrProtectedRole):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, err.Error(), ""))
	case errors.Is(err, repositories.ErrDuplicateKey):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), ""))
	default:
		utils.LogError(err, operation+": unexpected error")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Internal server error.", "Internal error"))
	}
}
