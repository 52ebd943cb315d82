package payment

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/policardmed/carteirinha/internal/platform/apperr"
	"github.com/policardmed/carteirinha/internal/platform/auth"
	"github.com/policardmed/carteirinha/internal/platform/db"
	"github.com/policardmed/carteirinha/internal/platform/websocket"
)

const (
	EventCreated       = "payment.created"
	EventStatusChanged = "payment.status_changed"
	EventRefunded      = "payment.refunded"
)

type Service struct {
	payments PaymentRepository
	events   websocket.EventPublisher
}

// NewService wires the payment rules. events may be nil.
func NewService(payments PaymentRepository, events websocket.EventPublisher) *Service {
	return &Service{payments: payments, events: events}
}

// Create records a payment. Only subscribers and admins may pay, and a
// subscriber only for their own account.
func (s *Service) Create(ctx context.Context, p *auth.Principal, req CreateRequest) (*Payment, error) {
	if !p.HasRole(auth.RoleSubscriber, auth.RoleAdmin) {
		return nil, apperr.Unauthorized("Only subscribers or admins can create payments.")
	}
	if err := req.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}
	ownerID := uuid.MustParse(req.OwnerID())
	if p.Role == auth.RoleSubscriber && !p.Owns(ownerID) {
		return nil, apperr.Unauthorized("Subscribers can only create payments for themselves.")
	}

	pay := &Payment{UserID: ownerID, Amount: req.Amount, Status: StatusPending}
	if req.Status != "" {
		pay.Status = Status(req.Status)
	}
	if err := s.payments.Create(ctx, pay); err != nil {
		return nil, err
	}

	created, err := s.payments.GetByID(ctx, pay.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, p, EventCreated, created)
	return created, nil
}

func (s *Service) FindOne(ctx context.Context, p *auth.Principal, id uuid.UUID) (*Payment, error) {
	pay, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureSelfOrAdmin(p, pay.UserID); err != nil {
		return nil, err
	}
	return pay, nil
}

func (s *Service) FindAllByUser(ctx context.Context, p *auth.Principal, userID uuid.UUID) ([]*Payment, error) {
	if err := auth.EnsureSelfOrAdmin(p, userID); err != nil {
		return nil, err
	}
	return s.payments.ListByUser(ctx, userID)
}

// UpdateStatus overwrites the status with any known value. Only admins may
// call it; the refund rules live in Refund.
func (s *Service) UpdateStatus(ctx context.Context, p *auth.Principal, id uuid.UUID, status string) (*Payment, error) {
	if err := auth.EnsureAdmin(p); err != nil {
		return nil, err
	}
	pay, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next := Status(status)
	if !next.Valid() {
		return nil, apperr.BadRequest("Invalid payment status %q.", status)
	}

	updated, err := s.payments.UpdateStatus(ctx, id, pay.Status, next)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, p, EventStatusChanged, updated)
	return updated, nil
}

// Refund marks a completed payment as failed. No money movement is modeled.
func (s *Service) Refund(ctx context.Context, p *auth.Principal, id uuid.UUID) (*Payment, error) {
	if err := auth.EnsureAdmin(p); err != nil {
		return nil, err
	}
	pay, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case pay.Status.Refundable():
	case pay.Status == StatusFailed:
		return nil, apperr.BadRequest("Payment with ID %q has already been refunded/failed.", id)
	default:
		return nil, apperr.BadRequest("Payment with ID %q has status %s and cannot be refunded.", id, pay.Status)
	}

	refunded, err := s.payments.UpdateStatus(ctx, id, StatusCompleted, StatusFailed)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, p, EventRefunded, refunded)
	return refunded, nil
}

// publish fans the event out to the tenant-wide topic and the owner's
// topic. Delivery failures are logged; the write already succeeded.
func (s *Service) publish(ctx context.Context, p *auth.Principal, eventType string, pay *Payment) {
	if s.events == nil {
		return
	}
	tenant := db.TenantFromContext(ctx)
	if tenant == "" && p != nil {
		tenant = p.TenantID
	}
	data, err := json.Marshal(pay)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("payment_id", pay.ID.String()).Msg("marshal payment event")
		return
	}

	for _, topic := range []string{websocket.TopicPayments, websocket.UserTopic(pay.UserID)} {
		err := s.events.Publish(ctx, websocket.Event{
			Type:       eventType,
			Topic:      topic,
			TenantID:   tenant,
			ResourceID: pay.ID.String(),
			Data:       data,
		})
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("topic", topic).Msg("publish payment event")
		}
	}
}
