package auth

import (
	"context"

	"stockcore/internal/core/id"
)

// UserRepository defines user persistence.
type UserRepository interface {
	// Create inserts a new user.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by id.
	GetByID(ctx context.Context, userID id.ID) (*User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update persists changes to a user (login bookkeeping included).
	Update(ctx context.Context, user *User) error

	// ExistsByEmail checks whether a user with the email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
