// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"taskmgr/internal/domain/entity"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new user.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput identifies the user by username or email.
type LoginInput struct {
	UsernameOrEmail string
	Password        string
}

// UpdateProfileInput carries the profile fields to change. Nil fields are left untouched.
type UpdateProfileInput struct {
	Username *string
	Email    *string
}

// ChangePasswordInput replaces the password after proving knowledge of the current one.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

// --- Output DTOs ---

// RegisterOutput returns the newly created user's basic information.
type RegisterOutput struct {
	User *entity.User
}

// LoginOutput returns the session token issued after a successful login.
type LoginOutput struct {
	Token     string
	ExpiresAt time.Time
	User      *entity.User
}

// UserUsecase defines the interface for credential and profile operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type UserUsecase interface {
	Register(ctx context.Context, input *RegisterInput) (*RegisterOutput, error)
	// Authenticate returns the user when the credentials match. Unknown users and
	// wrong passwords fail with the same error.
	Authenticate(ctx context.Context, usernameOrEmail, password string) (*entity.User, error)
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input *UpdateProfileInput) (*entity.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, input *ChangePasswordInput) error
}
