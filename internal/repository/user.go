package repository

import (
	"context"
	"errors"

	"account-server/internal/domain"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrAlreadyExists is returned on a username or email uniqueness violation.
	ErrAlreadyExists = errors.New("user already exists")
)

// ProfileUpdate carries the optional profile fields of an account update.
// Nil fields are left untouched.
type ProfileUpdate struct {
	FullName *string
	Email    *string
}

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByIdentifier matches either the username or the email.
	GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
	// UpdateRefreshToken persists the token field only; nil clears it.
	UpdateRefreshToken(ctx context.Context, id string, token *string) error
	// UpdatePassword persists a new password hash without touching other fields.
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) error
}
