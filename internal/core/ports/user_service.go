package ports

import (
	"context"

	"github.com/cugino/restaurant-auth/internal/core/domain"
)

// CreateUserInput carries the fields for user creation. Password may be a
// plaintext value or an already-bcrypt-hashed credential; the service
// upgrades plaintext transparently.
type CreateUserInput struct {
	Name            string
	Password        string
	Role            domain.Role
	EstablishmentID *int64
}

// UpdateUserInput carries partial updates. Nil pointers leave the field
// untouched; RemoveEstablishment clears the link (refused for servers).
type UpdateUserInput struct {
	Name                *string
	Password            *string
	Role                *domain.Role
	EstablishmentID     *int64
	RemoveEstablishment bool
}

// UserService is the authentication and user-management core.
type UserService interface {
	CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	ListUsersByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)
	ListUsersByEstablishment(ctx context.Context, establishmentID int64) ([]*domain.User, error)
	UpdateUser(ctx context.Context, id int64, in UpdateUserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error

	// VerifyCredentials returns (nil, nil) for an unknown name as well as
	// a wrong password, so callers cannot enumerate users.
	VerifyCredentials(ctx context.Context, name, password string) (*domain.User, error)
	ChangePassword(ctx context.Context, id int64, currentPassword, newPassword string) error
	Login(ctx context.Context, name, password string) (string, *domain.User, error)
	IssueToken(user *domain.User) (string, error)
	// ValidateToken checks signature, expiry, issuer and audience, then
	// resolves the current stored user by id so role changes take effect
	// before the token expires.
	ValidateToken(ctx context.Context, token string) (*domain.User, error)

	Permissions(ctx context.Context, id int64) ([]string, error)
	CanAccessEstablishment(ctx context.Context, userID, establishmentID int64) (bool, error)
}
