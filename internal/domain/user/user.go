// Package user holds the account aggregate backing authentication.
// The booking core treats caller identity as an opaque input; this package
// only exists to issue those identities.
package user

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/staybook/service-stays/internal/domain"
)

// Role distinguishes guests (who book) from hosts (who list).
type Role string

const (
	RoleGuest Role = "guest"
	RoleHost  Role = "host"
)

// IsValid reports whether the role is a known value.
func (r Role) IsValid() bool {
	return r == RoleGuest || r == RoleHost
}

// User is a registered account.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// NewUser creates a User with an already-hashed password.
func NewUser(username, passwordHash string, role Role, now time.Time) (*User, error) {
	if username == "" {
		return nil, domain.NewValidationError(domain.CodeValidation, "username is required")
	}
	if passwordHash == "" {
		return nil, domain.NewValidationError(domain.CodeValidation, "password is required")
	}
	if !role.IsValid() {
		return nil, domain.NewValidationError(domain.CodeValidation, "role must be guest or host")
	}
	return &User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now.UTC(),
	}, nil
}

// Repository defines the persistence contract for user accounts.
type Repository interface {
	// FindByID retrieves a user by ID.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByUsername retrieves a user by username.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// Save persists a new user. Duplicate usernames are a conflict.
	Save(ctx context.Context, user *User) error
}
