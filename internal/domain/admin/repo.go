package admin

import (
	"context"

	"github.com/google/uuid"

	"github.com/policardmed/carteirinha/internal/domain/payment"
	"github.com/policardmed/carteirinha/internal/platform/auth"
)

// The admin views own no tables; they read through the account and payment
// stores.

// UserStats is satisfied by account.UserRepository.
type UserStats interface {
	CountByRole(ctx context.Context, role auth.Role) (int, error)
	IDsByRole(ctx context.Context, role auth.Role) ([]uuid.UUID, error)
}

// PaymentLister is satisfied by payment.PaymentRepository.
type PaymentLister interface {
	ListRecent(ctx context.Context, limit int) ([]*payment.Payment, error)
	ListByUsers(ctx context.Context, userIDs []uuid.UUID) ([]*payment.Payment, error)
}

// Refunder is satisfied by *payment.Service.
type Refunder interface {
	Refund(ctx context.Context, p *auth.Principal, id uuid.UUID) (*payment.Payment, error)
}
