package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"fabric_pos_backend/internal/models"
	"fabric_pos_backend/internal/repositories"
)

// CreateUserRequest is used by an admin to create a staff or customer account.
type CreateUserRequest struct {
	Name       string  `json:"name" binding:"required"`
	Email      string  `json:"email" binding:"required,email"`
	Password   string  `json:"password" binding:"required,min=8"`
	Phone      *string `json:"phone"`
	Address    *string `json:"address"`
	IsCustomer bool    `json:"is_customer"`
	RoleIDs    []int64 `json:"role_ids"`
}

// UpdateUserRequest is used for updating an account's profile fields.
type UpdateUserRequest struct {
	Name       *string `json:"name"`
	Email      *string `json:"email" binding:"omitempty,email"`
	Phone      *string `json:"phone"`
	Address    *string `json:"address"`
	IsCustomer *bool   `json:"is_customer"`
}

// UserService handles account administration. Self-service registration and
// login live in AuthService.
type UserService interface {
	CreateUser(req CreateUserRequest) (*models.User, error)
	GetUserByID(userID int64) (*models.User, error)
	GetUsers(filters models.UserFilters) ([]models.User, int, error)
	UpdateUser(userID int64, req UpdateUserRequest) (*models.User, error)
	DeactivateUser(userID int64) error
	ReactivateUser(userID int64) error
}

type userService struct {
	db       *sql.DB
	userRepo repositories.UserRepository
	rbacRepo repositories.RBACRepository
}

// NewUserService creates a new instance of UserService.
func NewUserService(db *sql.DB, userRepo repositories.UserRepository,
	rbacRepo repositories.RBACRepository) UserService {
	return &userService{db: db, userRepo: userRepo, rbacRepo: rbacRepo}
}

func (s *userService) CreateUser(req CreateUserRequest) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:      req.Phone,
		Address:    req.Address,
		IsCustomer: req.IsCustomer,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	userID, err := s.userRepo.CreateUser(tx, user, string(hashedPassword))
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	for _, roleID := range req.RoleIDs {
		if err := s.rbacRepo.AssignRoleToUser(tx, userID, roleID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit user creation: %w", err)
	}
	return s.userRepo.FindUserByID(userID)
}

func (s *userService) GetUserByID(userID int64) (*models.User, error) {
	user, err := s.userRepo.FindUserByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) GetUsers(filters models.UserFilters) ([]models.User, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	return s.userRepo.GetUsers(filters)
}

func (s *userService) UpdateUser(userID int64, req UpdateUserRequest) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.Address != nil {
		user.Address = req.Address
	}
	if req.IsCustomer != nil {
		user.IsCustomer = *req.IsCustomer
	}

	if err := s.userRepo.UpdateUser(s.db, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return s.userRepo.FindUserByID(userID)
}

// DeactivateUser disables logins without touching the user's sales history.
// Accounts are never hard-deleted; sales reference them.
func (s *userService) DeactivateUser(userID int64) error {
	err := s.userRepo.SetUserActive(s.db, userID, false)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func (s *userService) ReactivateUser(userID int64) error {
	err := s.userRepo.SetUserActive(s.db, userID, true)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}
