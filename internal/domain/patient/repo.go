package patient

import (
	"context"

	"github.com/google/uuid"
)

// PatientRepository persists patients. Reads attach the owning user.
// Missing rows are apperr NotFound; unique-constraint violations are apperr
// Conflict naming the field; an unknown user_id is apperr NotFound.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByCPF(ctx context.Context, cpf string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
}
