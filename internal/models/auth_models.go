package models

import "time"

// User represents a staff member or customer account.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // '-' means never sent in JSON responses
	Phone        *string   `json:"phone,omitempty" db:"phone"`
	Address      *string   `json:"address,omitempty" db:"address"`
	IsCustomer   bool      `json:"is_customer" db:"is_customer"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	Roles       []Role       `json:"roles,omitempty"`       // attached roles, joined on demand
	Permissions []Permission `json:"permissions,omitempty"` // direct permission overrides
}

// Role groups permissions. The "admin" and "customer" roles are protected:
// they can never be deleted or renamed.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name" db:"name" binding:"required"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	Permissions []Permission `json:"permissions,omitempty"`
}

// Permission represents a single named capability, e.g. "create_sales".
type Permission struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name" db:"name" binding:"required"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Protected role names.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// IsProtectedRole reports whether a role name belongs to one of the
// built-in roles that must never be deleted or renamed.
func IsProtectedRole(name string) bool {
	return name == RoleAdmin || name == RoleCustomer
}

// UserFilters defines the available filters for querying users.
type UserFilters struct {
	IsCustomer *bool   `form:"is_customer"`
	IsActive   *bool   `form:"is_active"`
	Search     *string `form:"search"`
	Page       int     `form:"page"`
	PageSize   int     `form:"page_size"`
}
