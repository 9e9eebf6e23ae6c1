package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fabric_pos_backend/internal/models"
)

// UserRepository defines the interface for user account database operations.
type UserRepository interface {
	CreateUser(executor SQLExecutor, user *models.User, hashedPassword string) (int64, error)
	FindUserByEmail(email string) (*models.User, string, error) // returns user, hashed password
	FindUserByID(userID int64) (*models.User, error)
	GetUsers(filters models.UserFilters) ([]models.User, int, error)
	UpdateUser(executor SQLExecutor, user *models.User) error
	SetUserActive(executor SQLExecutor, userID int64, active bool) error

	GetUserRoles(userID int64) ([]models.Role, error)
	GetUserDirectPermissions(userID int64) ([]models.Permission, error)
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(executor SQLExecutor, user *models.User, hashedPassword string) (int64, error) {
	query := `INSERT INTO users (name, email, password_hash, phone, address, is_customer, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	currentTime := time.Now()

	err := executor.QueryRow(query,
		user.Name, user.Email, hashedPassword, user.Phone, user.Address,
		user.IsCustomer, true, currentTime, currentTime,
	).Scan(&user.ID)

	if err != nil {
		if IsUniqueViolation(err, "") {
			return 0, fmt.Errorf("%w: email '%s' already registered", ErrDuplicateKey, user.Email)
		}
		return 0, fmt.Errorf("%w: creating user: %v", ErrDatabaseError, err)
	}
	return user.ID, nil
}

const userColumns = `id, name, email, password_hash, phone, address, is_customer, is_active, created_at, updated_at`

func (r *userRepository) scanUser(row *sql.Row) (*models.User, string, error) {
	user := &models.User{}
	var hashedPassword string
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &hashedPassword, &user.Phone, &user.Address,
		&user.IsCustomer, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("%w: scanning user: %v", ErrDatabaseError, err)
	}
	return user, hashedPassword, nil
}

func (r *userRepository) FindUserByEmail(email string) (*models.User, string, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, hashedPassword, err := r.scanUser(r.db.QueryRow(query, email))
	if err != nil {
		return nil, "", err
	}

	roles, err := r.GetUserRoles(user.ID)
	if err != nil {
		return nil, "", err
	}
	user.Roles = roles
	return user, hashedPassword, nil
}

func (r *userRepository) FindUserByID(userID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, _, err := r.scanUser(r.db.QueryRow(query, userID))
	if err != nil {
		return nil, err
	}

	roles, err := r.GetUserRoles(userID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles

	permissions, err := r.GetUserDirectPermissions(userID)
	if err != nil {
		return nil, err
	}
	user.Permissions = permissions
	return user, nil
}

func (r *userRepository) GetUsers(filters models.UserFilters) ([]models.User, int, error) {
	users := []models.User{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, name, email, phone, address, is_customer, is_active, created_at, updated_at,
	    COUNT(*) OVER() AS total_count
	  FROM users`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.IsCustomer != nil {
		conditions = append(conditions, fmt.Sprintf("is_customer = $%d", argCount))
		args = append(args, *filters.IsCustomer)
		argCount++
	}
	if filters.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argCount))
		args = append(args, *filters.IsActive)
		argCount++
	}
	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", argCount, argCount))
		args = append(args, "%"+*filters.Search+"%")
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY name")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying users: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Address,
			&u.IsCustomer, &u.IsActive, &u.CreatedAt, &u.UpdatedAt, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning user row: %v", ErrDatabaseError, err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating user rows: %v", ErrDatabaseError, err)
	}
	return users, totalCount, nil
}

func (r *userRepository) UpdateUser(executor SQLExecutor, user *models.User) error {
	query := `UPDATE users SET name = $1, email = $2, phone = $3, address = $4, is_customer = $5, updated_at = $6
	          WHERE id = $7`
	result, err := executor.Exec(query, user.Name, user.Email, user.Phone, user.Address, user.IsCustomer, time.Now(), user.ID)
	if err != nil {
		if IsUniqueViolation(err, "") {
			return fmt.Errorf("%w: email '%s' already registered", ErrDuplicateKey, user.Email)
		}
		return fmt.Errorf("%w: updating user ID %d: %v", ErrDatabaseError, user.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) SetUserActive(executor SQLExecutor, userID int64, active bool) error {
	query := `UPDATE users SET is_active = $1, updated_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, active, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("%w: setting active flag for user ID %d: %v", ErrDatabaseError, userID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) GetUserRoles(userID int64) ([]models.Role, error) {
	roles := []models.Role{}
	query := `SELECT ro.id, ro.name, ro.description, ro.created_at, ro.updated_at
	          FROM roles ro
	          JOIN user_roles ur ON ur.role_id = ro.id
	          WHERE ur.user_id = $1
	          ORDER BY ro.name`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying roles for user ID %d: %v", ErrDatabaseError, userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning user role: %v", ErrDatabaseError, err)
		}
		roles = append(roles, role)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating user roles: %v", ErrDatabaseError, err)
	}
	return roles, nil
}

func (r *userRepository) GetUserDirectPermissions(userID int64) ([]models.Permission, error) {
	permissions := []models.Permission{}
	query := `SELECT pe.id, pe.name, pe.description, pe.created_at, pe.updated_at
	          FROM permissions pe
	          JOIN user_permissions up ON up.permission_id = pe.id
	          WHERE up.user_id = $1
	          ORDER BY pe.name`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying direct permissions for user ID %d: %v", ErrDatabaseError, userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning direct permission: %v", ErrDatabaseError, err)
		}
		permissions = append(permissions, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating direct permissions: %v", ErrDatabaseError, err)
	}
	return permissions, nil
}
