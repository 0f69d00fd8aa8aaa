package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// Update updates an existing user
	Update(ctx context.Context, user *User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByUserName finds a user by CPF or CNPJ
	FindByUserName(ctx context.Context, userName string) (*User, error)

	// FindByEmail finds a user by email, case-insensitively
	FindByEmail(ctx context.Context, email string) (*User, error)

	// ExistsByUserName checks if a document is already registered
	ExistsByUserName(ctx context.Context, userName string) (bool, error)

	// ExistsByEmail checks if an email is already registered
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// AuthTokenRepository defines the interface for authentication token persistence
type AuthTokenRepository interface {
	Create(ctx context.Context, token *AuthenticationToken) error
	// Update stores a redeemed token. It fails with ErrTokenUsed when the
	// token was already redeemed by someone else.
	Update(ctx context.Context, token *AuthenticationToken) error
	FindByToken(ctx context.Context, token string) (*AuthenticationToken, error)
	// DeleteExpired removes tokens expired before the given time
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
