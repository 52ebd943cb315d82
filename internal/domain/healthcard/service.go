package healthcard

import (
	"context"

	"github.com/google/uuid"

	"github.com/policardmed/carteirinha/internal/platform/apperr"
	"github.com/policardmed/carteirinha/pkg/dates"
)

type Service struct {
	cards HealthCardRepository
}

func NewService(cards HealthCardRepository) *Service {
	return &Service{cards: cards}
}

// Create issues a card. The patient reference is checked by the store's
// foreign key, so an unknown patient surfaces as NotFound from the insert.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*HealthCard, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}

	hc := &HealthCard{
		CardNumber:     req.CardNumber,
		IssueDate:      dates.MustParse(req.IssueDate),
		ExpirationDate: dates.MustParse(req.ExpirationDate),
		Status:         StatusActive,
		PatientID:      uuid.MustParse(req.HolderID()),
	}
	if req.Status != "" {
		hc.Status = Status(req.Status)
	}
	if err := s.cards.Create(ctx, hc); err != nil {
		return nil, err
	}
	return hc, nil
}

func (s *Service) FindAll(ctx context.Context, limit, offset int) ([]*HealthCard, int, error) {
	return s.cards.List(ctx, limit, offset)
}

func (s *Service) FindOne(ctx context.Context, id uuid.UUID) (*HealthCard, error) {
	return s.cards.GetByID(ctx, id)
}

// FindByPatientID returns an empty slice for a patient without cards.
func (s *Service) FindByPatientID(ctx context.Context, patientID uuid.UUID) ([]*HealthCard, error) {
	return s.cards.ListByPatient(ctx, patientID)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*HealthCard, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}

	hc, err := s.cards.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.CardNumber != nil {
		hc.CardNumber = *req.CardNumber
	}
	if req.IssueDate != nil {
		hc.IssueDate = dates.MustParse(*req.IssueDate)
	}
	if req.ExpirationDate != nil {
		hc.ExpirationDate = dates.MustParse(*req.ExpirationDate)
	}
	if req.Status != nil {
		hc.Status = Status(*req.Status)
	}

	if err := s.cards.Update(ctx, hc); err != nil {
		return nil, err
	}
	return hc, nil
}

func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	return s.cards.Delete(ctx, id)
}
