package payment

import (
	"context"

	"github.com/google/uuid"
)

// PaymentRepository persists payments. Reads attach the owner's profile.
// No method writes user_id after Create.
type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Payment, error)
	// UpdateStatus moves the payment from one status to another and returns
	// the updated row. It is a Conflict when the stored status is no longer
	// from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Payment, error)
	ListRecent(ctx context.Context, limit int) ([]*Payment, error)
	ListByUsers(ctx context.Context, userIDs []uuid.UUID) ([]*Payment, error)
}
