package account

import (
	"context"

	"github.com/google/uuid"

	"github.com/policardmed/carteirinha/internal/platform/auth"
)

// UserRepository persists accounts. Lookups of a missing user and deletes
// that affect no row return an apperr NotFound; a taken username on
// Create/Update returns an apperr Conflict.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*User, int, error)
	CountByRole(ctx context.Context, role auth.Role) (int, error)
	IDsByRole(ctx context.Context, role auth.Role) ([]uuid.UUID, error)
}
