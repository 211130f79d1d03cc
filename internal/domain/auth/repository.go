package auth

import (
	"context"

	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
)

// UserRepository defines user storage operations.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update writes the user with an optimistic version check.
	Update(ctx context.Context, user *User) error

	List(ctx context.Context, filter UserFilter) ([]User, int, error)
	Exists(ctx context.Context, email string) (bool, error)

	// DirectReports returns ids of active and inactive users whose manager is managerID.
	DirectReports(ctx context.Context, managerID id.ID) ([]id.ID, error)

	// ListReports returns the direct reports themselves.
	ListReports(ctx context.Context, managerID id.ID) ([]User, error)
}

// TokenRepository defines token storage operations.
type TokenRepository interface {
	SaveRefreshToken(ctx context.Context, token *RefreshToken) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error
	RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error
}

// UserFilter for listing users.
type UserFilter struct {
	Search    string
	IsActive  *bool
	Role      security.Role
	ManagerID *id.ID
	Limit     int
	Offset    int
}
