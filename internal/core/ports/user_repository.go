package ports

import (
	"context"

	"github.com/cugino/restaurant-auth/internal/core/domain"
)

// UserRepository is the boundary to the relational credential store. The
// store enforces name uniqueness with a unique index as the final backstop
// beyond the service-level check, and provides per-operation atomicity
// only — multi-step sequences are not transactional.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByName(ctx context.Context, name string) (*domain.User, error)
	FindAll(ctx context.Context) ([]*domain.User, error)
	FindByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)
	FindByEstablishment(ctx context.Context, establishmentID int64) ([]*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
}
