package healthcard

import (
	"context"

	"github.com/google/uuid"
)

// HealthCardRepository persists cards. A duplicate card number is apperr
// Conflict and an unknown patient is apperr NotFound.
type HealthCardRepository interface {
	Create(ctx context.Context, hc *HealthCard) error
	GetByID(ctx context.Context, id uuid.UUID) (*HealthCard, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*HealthCard, error)
	Update(ctx context.Context, hc *HealthCard) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*HealthCard, int, error)
}
