package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fabric_pos_backend/internal/models"
)

// RBACRepository defines the interface for role and permission database operations.
type RBACRepository interface {
	CreateRole(executor SQLExecutor, role *models.Role) (int64, error)
	GetRoleByID(roleID int64) (*models.Role, error)
	GetRoleByName(name string) (*models.Role, error)
	GetRoles() ([]models.Role, error)
	UpdateRole(executor SQLExecutor, role *models.Role) error
	DeleteRole(executor SQLExecutor, roleID int64) error

	GetPermissions() ([]models.Permission, error)
	CreatePermission(executor SQLExecutor, permission *models.Permission) (int64, error)
	SyncRolePermissions(executor SQLExecutor, roleID int64, permissionIDs []int64) error

	AssignRoleToUser(executor SQLExecutor, userID, roleID int64) error
	RemoveRoleFromUser(executor SQLExecutor, userID, roleID int64) error
	GrantPermissionToUser(executor SQLExecutor, userID, permissionID int64) error
	RevokePermissionFromUser(executor SQLExecutor, userID, permissionID int64) error

	UserHasRole(userID int64, roleName string) (bool, error)
	UserHasDirectPermission(userID int64, permissionName string) (bool, error)
	AnyUserRoleGrants(userID int64, permissionName string) (bool, error)
}

type rbacRepository struct {
	db *sql.DB
}

// NewRBACRepository creates a new instance of RBACRepository.
func NewRBACRepository(db *sql.DB) RBACRepository {
	return &rbacRepository{db: db}
}

func (r *rbacRepository) CreateRole(executor SQLExecutor, role *models.Role) (int64, error) {
	query := `INSERT INTO roles (name, description, created_at, updated_at)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`
	currentTime := time.Now()

	err := executor.QueryRow(query, role.Name, role.Description, currentTime, currentTime).Scan(&role.ID)
	if err != nil {
		if IsUniqueViolation(err, "") {
			return 0, fmt.Errorf("%w: role '%s' already exists", ErrDuplicateKey, role.Name)
		}
		return 0, fmt.Errorf("%w: creating role: %v", ErrDatabaseError, err)
	}
	return role.ID, nil
}

func (r *rbacRepository) getRole(query string, arg interface{}) (*models.Role, error) {
	role := &models.Role{}
	err := r.db.QueryRow(query, arg).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: querying role: %v", ErrDatabaseError, err)
	}

	permissions, err := r.getRolePermissions(role.ID)
	if err != nil {
		return nil, err
	}
	role.Permissions = permissions
	return role, nil
}

func (r *rbacRepository) GetRoleByID(roleID int64) (*models.Role, error) {
	return r.getRole(`SELECT id, name, description, created_at, updated_at FROM roles WHERE id = $1`, roleID)
}

func (r *rbacRepository) GetRoleByName(name string) (*models.Role, error) {
	return r.getRole(`SELECT id, name, description, created_at, updated_at FROM roles WHERE name = $1`, name)
}

func (r *rbacRepository) getRolePermissions(roleID int64) ([]models.Permission, error) {
	permissions := []models.Permission{}
	query := `SELECT pe.id, pe.name, pe.description, pe.created_at, pe.updated_at
	          FROM permissions pe
	          JOIN role_permissions rp ON rp.permission_id = pe.id
	          WHERE rp.role_id = $1
	          ORDER BY pe.name`

	rows, err := r.db.Query(query, roleID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying permissions for role ID %d: %v", ErrDatabaseError, roleID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning role permission: %v", ErrDatabaseError, err)
		}
		permissions = append(permissions, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating role permissions: %v", ErrDatabaseError, err)
	}
	return permissions, nil
}

func (r *rbacRepository) GetRoles() ([]models.Role, error) {
	roles := []models.Role{}
	query := `SELECT id, name, description, created_at, updated_at FROM roles ORDER BY name`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying roles: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning role row: %v", ErrDatabaseError, err)
		}
		roles = append(roles, role)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating role rows: %v", ErrDatabaseError, err)
	}

	for i := range roles {
		permissions, err := r.getRolePermissions(roles[i].ID)
		if err != nil {
			return nil, err
		}
		roles[i].Permissions = permissions
	}
	return roles, nil
}

func (r *rbacRepository) UpdateRole(executor SQLExecutor, role *models.Role) error {
	query := `UPDATE roles SET name = $1, description = $2, updated_at = $3 WHERE id = $4`
	result, err := executor.Exec(query, role.Name, role.Description, time.Now(), role.ID)
	if err != nil {
		if IsUniqueViolation(err, "") {
			return fmt.Errorf("%w: role '%s' already exists", ErrDuplicateKey, role.Name)
		}
		return fmt.Errorf("%w: updating role ID %d: %v", ErrDatabaseError, role.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *rbacRepository) DeleteRole(executor SQLExecutor, roleID int64) error {
	// Assignment rows go first; role_permissions and user_roles reference roles.
	if _, err := executor.Exec(`DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return fmt.Errorf("%w: deleting permission grants for role ID %d: %v", ErrDatabaseError, roleID, err)
	}
	if _, err := executor.Exec(`DELETE FROM user_roles WHERE role_id = $1`, roleID); err != nil {
		return fmt.Errorf("%w: deleting user assignments for role ID %d: %v", ErrDatabaseError, roleID, err)
	}

	result, err := executor.Exec(`DELETE FROM roles WHERE id = $1`, roleID)
	if err != nil {
		return fmt.Errorf("%w: deleting role ID %d: %v", ErrDatabaseError, roleID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *rbacRepository) GetPermissions() ([]models.Permission, error) {
	permissions := []models.Permission{}
	query := `SELECT id, name, description, created_at, updated_at FROM permissions ORDER BY name`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying permissions: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning permission row: %v", ErrDatabaseError, err)
		}
		permissions = append(permissions, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating permission rows: %v", ErrDatabaseError, err)
	}
	return permissions, nil
}

func (r *rbacRepository) CreatePermission(executor SQLExecutor, permission *models.Permission) (int64, error) {
	query := `INSERT INTO permissions (name, description, created_at, updated_at)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`
	currentTime := time.Now()

	err := executor.QueryRow(query, permission.Name, permission.Description, currentTime, currentTime).Scan(&permission.ID)
	if err != nil {
		if IsUniqueViolation(err, "") {
			return 0, fmt.Errorf("%w: permission '%s' already exists", ErrDuplicateKey, permission.Name)
		}
		return 0, fmt.Errorf("%w: creating permission: %v", ErrDatabaseError, err)
	}
	return permission.ID, nil
}

// SyncRolePermissions replaces the role's grants with exactly the given set.
func (r *rbacRepository) SyncRolePermissions(executor SQLExecutor, roleID int64, permissionIDs []int64) error {
	if _, err := executor.Exec(`DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return fmt.Errorf("%w: clearing grants for role ID %d: %v", ErrDatabaseError, roleID, err)
	}
	for _, permissionID := range permissionIDs {
		_, err := executor.Exec(`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)`, roleID, permissionID)
		if err != nil {
			if IsForeignKeyViolation(err) {
				return fmt.Errorf("%w: permission ID %d does not exist", ErrNotFound, permissionID)
			}
			return fmt.Errorf("%w: granting permission ID %d to role ID %d: %v", ErrDatabaseError, permissionID, roleID, err)
		}
	}
	return nil
}

func (r *rbacRepository) AssignRoleToUser(executor SQLExecutor, userID, roleID int64) error {
	query := `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	_, err := executor.Exec(query, userID, roleID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: user ID %d or role ID %d does not exist", ErrNotFound, userID, roleID)
		}
		return fmt.Errorf("%w: assigning role ID %d to user ID %d: %v", ErrDatabaseError, roleID, userID, err)
	}
	return nil
}

func (r *rbacRepository) RemoveRoleFromUser(executor SQLExecutor, userID, roleID int64) error {
	result, err := executor.Exec(`DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	if err != nil {
		return fmt.Errorf("%w: removing role ID %d from user ID %d: %v", ErrDatabaseError, roleID, userID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *rbacRepository) GrantPermissionToUser(executor SQLExecutor, userID, permissionID int64) error {
	query := `INSERT INTO user_permissions (user_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	_, err := executor.Exec(query, userID, permissionID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: user ID %d or permission ID %d does not exist", ErrNotFound, userID, permissionID)
		}
		return fmt.Errorf("%w: granting permission ID %d to user ID %d: %v", ErrDatabaseError, permissionID, userID, err)
	}
	return nil
}

func (r *rbacRepository) RevokePermissionFromUser(executor SQLExecutor, userID, permissionID int64) error {
	result, err := executor.Exec(`DELETE FROM user_permissions WHERE user_id = $1 AND permission_id = $2`, userID, permissionID)
	if err != nil {
		return fmt.Errorf("%w: revoking permission ID %d from user ID %d: %v", ErrDatabaseError, permissionID, userID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *rbacRepository) UserHasRole(userID int64, roleName string) (bool, error) {
	query := `SELECT EXISTS (
	            SELECT 1 FROM user_roles ur
	            JOIN roles ro ON ro.id = ur.role_id
	            WHERE ur.user_id = $1 AND ro.name = $2
	          )`
	var exists bool
	if err := r.db.QueryRow(query, userID, roleName).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: checking role '%s' for user ID %d: %v", ErrDatabaseError, roleName, userID, err)
	}
	return exists, nil
}

func (r *rbacRepository) UserHasDirectPermission(userID int64, permissionName string) (bool, error) {
	query := `SELECT EXISTS (
	            SELECT 1 FROM user_permissions up
	            JOIN permissions pe ON pe.id = up.permission_id
	            WHERE up.user_id = $1 AND pe.name = $2
	          )`
	var exists bool
	if err := r.db.QueryRow(query, userID, permissionName).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: checking direct permission '%s' for user ID %d: %v", ErrDatabaseError, permissionName, userID, err)
	}
	return exists, nil
}

func (r *rbacRepository) AnyUserRoleGrants(userID int64, permissionName string) (bool, error) {
	query := `SELECT EXISTS (
	            SELECT 1 FROM user_roles ur
	            JOIN role_permissions rp ON rp.role_id = ur.role_id
	            JOIN permissions pe ON pe.id = rp.permission_id
	            WHERE ur.user_id = $1 AND pe.name = $2
	          )`
	var exists bool
	if err := r.db.QueryRow(query, userID, permissionName).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: checking role grants of '%s' for user ID %d: %v", ErrDatabaseError, permissionName, userID, err)
	}
	return exists, nil
}
