package services

import (
	"errors"
	"time"

	"imagehub/auth"
	"imagehub/models"
	"imagehub/repositories"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// The AuthService interface defines the identity operations: registration,
// login, token-subject validation and administrative user management.
type AuthService interface {
	Register(input *RegisterInput) (*UserResponse, error)
	Login(email, password string) (*LoginResult, error)
	ValidateUser(id uint) (*models.User, error)
	GetAllUsers(page, limit int, filter repositories.UserFilter) (*PaginatedUsersResponse, error)
	UpdateUser(id uint, input *UpdateUserInput) (*UserResponse, error)
	DeleteUser(id uint) error
	ChangePassword(userID uint, currentPassword, newPassword string) error
	AdminChangeUserPassword(adminID, userID uint, newPassword string) error
}

// --- Structs for Input/Output ---

type RegisterInput struct {
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6"`
	Name     string      `json:"name" validate:"required"`
	Role     models.Role `json:"role" validate:"omitempty"` // Defaults to USER when omitted
}

type UpdateUserInput struct {
	// Pointers distinguish "not provided" from "set to empty".
	Email *string      `json:"email" validate:"omitempty,email"`
	Name  *string      `json:"name"`
	Role  *models.Role `json:"role"`
}

type UserResponse struct {
	ID         uint        `json:"id"`
	Email      string      `json:"email"`
	Name       string      `json:"name"`
	Role       models.Role `json:"role"`
	ImageCount int64       `json:"image_count"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

type PaginatedUsersResponse struct {
	Data       []UserResponse `json:"data"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
}

// LoginResult is the successful login payload: a bearer token plus a short
// public summary of the account.
type LoginResult struct {
	AccessToken string      `json:"access_token"`
	User        UserSummary `json:"user"`
}

type UserSummary struct {
	ID    uint        `json:"id"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

// The authService structure is the implementation of the AuthService interface
type authService struct {
	repo       repositories.UserRepository
	bcryptCost int
}

var _ AuthService = (*authService)(nil)
var _ auth.UserValidator = (*authService)(nil)

// NewAuthService creates a new AuthService instance
func NewAuthService(repo repositories.UserRepository, bcryptCost int) AuthService {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &authService{repo: repo, bcryptCost: bcryptCost}
}

// Register creates a new account. The requested role is honored as-is and
// defaults to USER.
func (s *authService) Register(input *RegisterInput) (*UserResponse, error) {
	_, err := s.repo.FindByEmail(input.Email)
	if err == nil {
		return nil, NewConflict("Email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewInternal("Database error checking existing user")
	}

	role := input.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, NewValidation("Invalid role")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, NewInternal("Could not hash password")
	}

	user := models.User{
		Email:    input.Email,
		Password: string(hashedPassword),
		Name:     input.Name,
		Role:     role,
	}

	if err := s.repo.Create(&user); err != nil {
		return nil, NewInternal("Failed to create user: " + err.Error())
	}

	resp := mapUserToResponse(&user)
	return &resp, nil
}

// Login verifies credentials and issues a signed token. Unknown email and
// wrong password produce the same error so callers can't probe accounts.
func (s *authService) Login(email, password string) (*LoginResult, error) {
	user, err := s.repo.FindByEmail(email)
	if err != nil {
		return nil, NewUnauthorized("Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, NewUnauthorized("Invalid credentials")
	}

	token, err := auth.GenerateToken(user)
	if err != nil {
		return nil, NewInternal("Could not generate token")
	}

	return &LoginResult{
		AccessToken: token,
		User: UserSummary{
			ID:    user.ID,
			Email: user.Email,
			Role:  user.Role,
		},
	}, nil
}

// ValidateUser rehydrates an account from a validated token subject.
func (s *authService) ValidateUser(id uint) (*models.User, error) {
	user, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewUnauthorized("User not found")
		}
		return nil, NewInternal("Database error retrieving user")
	}
	return user, nil
}

// GetAllUsers returns a page of users, newest first, each annotated with its
// image count.
func (s *authService) GetAllUsers(page, limit int, filter repositories.UserFilter) (*PaginatedUsersResponse, error) {
	page, limit = normalizePage(page, limit)

	users, total, err := s.repo.FindAll(page, limit, filter)
	if err != nil {
		return nil, NewInternal("Database error retrieving users")
	}

	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	counts, err := s.repo.CountImages(ids)
	if err != nil {
		return nil, NewInternal("Database error counting images")
	}

	data := make([]UserResponse, 0, len(users))
	for i := range users {
		resp := mapUserToResponse(&users[i])
		resp.ImageCount = counts[users[i].ID]
		data = append(data, resp)
	}

	return &PaginatedUsersResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		TotalPages: totalPages(total, limit),
	}, nil
}

// UpdateUser applies a partial update to email, name and role.
func (s *authService) UpdateUser(id uint, input *UpdateUserInput) (*UserResponse, error) {
	user, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewUnauthorized("User not found")
		}
		return nil, NewInternal("Database error retrieving user for update")
	}

	if input.Email != nil && *input.Email != user.Email {
		// Check if the new email is already taken by another user
		existing, err := s.repo.FindByEmail(*input.Email)
		if err == nil && existing.ID != user.ID {
			return nil, NewConflict("Email address is already in use by another account")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewInternal("Database error checking email uniqueness")
		}
		user.Email = *input.Email
	}
	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, NewValidation("Invalid role")
		}
		user.Role = *input.Role
	}

	if err := s.repo.Update(user); err != nil {
		return nil, NewInternal("Failed to save user updates: " + err.Error())
	}

	resp := mapUserToResponse(user)
	return &resp, nil
}

// DeleteUser removes the account row.
func (s *authService) DeleteUser(id uint) error {
	user, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewUnauthorized("User not found")
		}
		return NewInternal("Database error retrieving user for delete")
	}

	if err := s.repo.Delete(user); err != nil {
		return NewInternal("Failed to delete user: " + err.Error())
	}
	return nil
}

// ChangePassword lets an account holder rotate their own password after
// proving knowledge of the current one.
func (s *authService) ChangePassword(userID uint, currentPassword, newPassword string) error {
	user, err := s.repo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewUnauthorized("User not found")
		}
		return NewInternal("Database error retrieving user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return NewUnauthorized("Current password is incorrect")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return NewInternal("Could not hash new password")
	}
	user.Password = string(hashedPassword)

	if err := s.repo.Update(user); err != nil {
		return NewInternal("Failed to save new password")
	}
	return nil
}

// AdminChangeUserPassword overwrites a user's password on behalf of an ADMIN
// actor, without the target's current password.
func (s *authService) AdminChangeUserPassword(adminID, userID uint, newPassword string) error {
	admin, err := s.repo.FindByID(adminID)
	if err != nil || admin.Role != models.RoleAdmin {
		return NewUnauthorized("Unauthorized - Admin access required")
	}

	user, err := s.repo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewUnauthorized("User not found")
		}
		return NewInternal("Database error retrieving user")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return NewInternal("Could not hash new password")
	}
	user.Password = string(hashedPassword)

	if err := s.repo.Update(user); err != nil {
		return NewInternal("Failed to save new password")
	}
	return nil
}

func mapUserToResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
