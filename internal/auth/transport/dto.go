// Package transport defines request and response DTOs for the auth module.
package transport

import (
	"time"

	"cleanops_backend/internal/auth/repository"

	"github.com/google/uuid"
)

// LoginRequest carries staff credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginResponse returns the minted access token and the authenticated user.
type LoginResponse struct {
	AccessToken string       `json:"accessToken"`
	User        UserResponse `json:"user"`
}

// CreateUserRequest provisions a staff account.
type CreateUserRequest struct {
	Email       string   `json:"email" validate:"required,email"`
	Password    string   `json:"password" validate:"required,min=8"`
	DisplayName *string  `json:"displayName" validate:"omitempty,max=255"`
	Roles       []string `json:"roles" validate:"omitempty,dive,min=1,max=64"`
}

// RoleUpdateRequest replaces a user's role set.
type RoleUpdateRequest struct {
	Roles []string `json:"roles" validate:"required,min=1,dive,min=1,max=64"`
}

// UserResponse is the API shape of a staff user.
type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName *string   `json:"displayName,omitempty"`
	Roles       []string  `json:"roles"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ToUserResponse converts a repository user to its API shape.
func ToUserResponse(u repository.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Roles:       u.Roles,
		CreatedAt:   u.CreatedAt,
	}
}
