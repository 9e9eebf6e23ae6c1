package services

import (
	"database/sql"
	"errors"
	"fmt"

	"fabric_pos_backend/internal/models"
	"fabric_pos_backend/internal/repositories"
)

var (
	ErrRoleNotFound      = errors.New("role not found")
	ErrProtectedRole     = errors.New("this role is protected and cannot be modified or deleted")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrUnknownPermission = errors.New("unknown permission")
)

// Permission names. Checks compare against these exact strings; an
// unrecognized name always denies.
const (
	PermViewProducts   = "view_products"
	PermManageProducts = "manage_products"
	PermViewSales      = "view_sales"
	PermCreateSales    = "create_sales"
	PermCancelSales    = "cancel_sales"
	PermDeleteSales    = "delete_sales"
	PermAdjustStock    = "adjust_stock"
	PermViewReports    = "view_reports"
	PermManageUsers    = "manage_users"
	PermManageRoles    = "manage_roles"
)

var knownPermissions = map[string]bool{
	PermViewProducts:   true,
	PermManageProducts: true,
	PermViewSales:      true,
	PermCreateSales:    true,
	PermCancelSales:    true,
	PermDeleteSales:    true,
	PermAdjustStock:    true,
	PermViewReports:    true,
	PermManageUsers:    true,
	PermManageRoles:    true,
}

// RoleRequest is used for creating or updating a role.
type RoleRequest struct {
	Name          string  `json:"name" binding:"required"`
	Description   *string `json:"description"`
	PermissionIDs []int64 `json:"permission_ids"`
}

// AccessService answers the single question the middleware asks (can this
// user do that) and manages the roles and grants behind the answer.
type AccessService interface {
	// Can reports whether the user may perform the named permission.
	// Holders of the admin role may do everything.
	Can(userID int64, permission string) (bool, error)

	CreateRole(req RoleRequest) (*models.Role, error)
	GetRoleByID(roleID int64) (*models.Role, error)
	GetRoles() ([]models.Role, error)
	UpdateRole(roleID int64, req RoleRequest) (*models.Role, error)
	DeleteRole(roleID int64) error
	GetPermissions() ([]models.Permission, error)

	AssignRoleToUser(userID, roleID int64) error
	RemoveRoleFromUser(userID, roleID int64) error
	GrantPermissionToUser(userID, permissionID int64) error
	RevokePermissionFromUser(userID, permissionID int64) error
}

type accessService struct {
	db       *sql.DB
	rbacRepo repositories.RBACRepository
}

// NewAccessService creates a new instance of AccessService.
func NewAccessService(db *sql.DB, rbacRepo repositories.RBACRepository) AccessService {
	return &accessService{db: db, rbacRepo: rbacRepo}
}

// Can checks, in order: admin role, a direct grant to the user, and grants
// through any of the user's roles. The first hit allows.
func (s *accessService) Can(userID int64, permission string) (bool, error) {
	if !knownPermissions[permission] {
		return false, fmt.Errorf("%w: '%s'", ErrUnknownPermission, permission)
	}

	isAdmin, err := s.rbacRepo.UserHasRole(userID, models.RoleAdmin)
	if err != nil {
		return false, err
	}
	if isAdmin {
		return true, nil
	}

	direct, err := s.rbacRepo.UserHasDirectPermission(userID, permission)
	if err != nil {
		return false, err
	}
	if direct {
		return true, nil
	}

	return s.rbacRepo.AnyUserRoleGrants(userID, permission)
}

func (s *accessService) CreateRole(req RoleRequest) (*models.Role, error) {
	role := &models.Role{Name: req.Name, Description: req.Description}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	roleID, err := s.rbacRepo.CreateRole(tx, role)
	if err != nil {
		return nil, err
	}
	if len(req.PermissionIDs) > 0 {
		if err := s.rbacRepo.SyncRolePermissions(tx, roleID, req.PermissionIDs); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit role creation: %w", err)
	}
	return s.rbacRepo.GetRoleByID(roleID)
}

func (s *accessService) GetRoleByID(roleID int64) (*models.Role, error) {
	role, err := s.rbacRepo.GetRoleByID(roleID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return role, nil
}

func (s *accessService) GetRoles() ([]models.Role, error) {
	return s.rbacRepo.GetRoles()
}

// UpdateRole changes a role's name, description and grants. The built-in
// admin and customer roles keep their names; only their grants may change.
func (s *accessService) UpdateRole(roleID int64, req RoleRequest) (*models.Role, error) {
	role, err := s.GetRoleByID(roleID)
	if err != nil {
		return nil, err
	}
	if models.IsProtectedRole(role.Name) && req.Name != role.Name {
		return nil, ErrProtectedRole
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	role.Name = req.Name
	role.Description = req.Description
	if err := s.rbacRepo.UpdateRole(tx, role); err != nil {
		return nil, err
	}
	if err := s.rbacRepo.SyncRolePermissions(tx, roleID, req.PermissionIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit role update: %w", err)
	}
	return s.rbacRepo.GetRoleByID(roleID)
}

func (s *accessService) DeleteRole(roleID int64) error {
	role, err := s.GetRoleByID(roleID)
	if err != nil {
		return err
	}
	if models.IsProtectedRole(role.Name) {
		return ErrProtectedRole
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.rbacRepo.DeleteRole(tx, roleID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit role deletion: %w", err)
	}
	return nil
}

func (s *accessService) GetPermissions() ([]models.Permission, error) {
	return s.rbacRepo.GetPermissions()
}

func (s *accessService) AssignRoleToUser(userID, roleID int64) error {
	return s.rbacRepo.AssignRoleToUser(s.db, userID, roleID)
}

func (s *accessService) RemoveRoleFromUser(userID, roleID int64) error {
	err := s.rbacRepo.RemoveRoleFromUser(s.db, userID, roleID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrRoleNotFound
	}
	return err
}

func (s *accessService) GrantPermissionToUser(userID, permissionID int64) error {
	return s.rbacRepo.GrantPermissionToUser(s.db, userID, permissionID)
}

func (s *accessService) RevokePermissionFromUser(userID, permissionID int64) error {
	return s.rbacRepo.RevokePermissionFromUser(s.db, userID, permissionID)
}
