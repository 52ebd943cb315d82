package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/policardmed/carteirinha/internal/domain/account"
	"github.com/policardmed/carteirinha/internal/platform/apperr"
	"github.com/policardmed/carteirinha/pkg/cpf"
	"github.com/policardmed/carteirinha/pkg/dates"
)

// UserFinder resolves the account a patient record belongs to.
type UserFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*account.User, error)
}

type Service struct {
	patients PatientRepository
	users    UserFinder
}

func NewService(patients PatientRepository, users UserFinder) *Service {
	return &Service{patients: patients, users: users}
}

// Create stores a patient for an existing user. CPF, medical record number
// and owning user are unique; the store's constraints decide conflicts.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}
	userID := uuid.MustParse(req.OwnerID())

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}

	p := &Patient{
		FirstName:                 req.FirstName,
		SurName:                   req.SurName,
		CPF:                       cpf.Normalize(req.CPF),
		BirthDate:                 dates.MustParse(req.BirthDate),
		MedicalRecordNumber:       req.MedicalRecordNumber,
		MedicalRecordNumberHolder: req.MedicalRecordNumberHolder,
		ContractStartDate:         dates.MustParse(req.ContractStartDate),
		ContractExpirationDate:    dates.MustParse(req.ContractExpirationDate),
		ContractType:              ContractType(req.ContractType),
		UserID:                    &userID,
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, err
	}
	return s.patients.GetByID(ctx, p.ID)
}

func (s *Service) FindAll(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

func (s *Service) FindOne(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// FindByCPF accepts punctuated or bare CPFs.
func (s *Service) FindByCPF(ctx context.Context, raw string) (*Patient, error) {
	normalized := cpf.Normalize(raw)
	if len(normalized) != cpf.Length {
		return nil, apperr.NotFound("Patient not found")
	}
	return s.patients.GetByCPF(ctx, normalized)
}

// Update merges req into the stored patient. A changed CPF is only checked
// for uniqueness by the store when it actually differs.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}

	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		p.FirstName = *req.FirstName
	}
	if req.SurName != nil {
		p.SurName = *req.SurName
	}
	if req.CPF != nil {
		p.CPF = cpf.Normalize(*req.CPF)
	}
	if req.BirthDate != nil {
		p.BirthDate = dates.MustParse(*req.BirthDate)
	}
	if req.MedicalRecordNumber != nil {
		p.MedicalRecordNumber = *req.MedicalRecordNumber
	}
	if req.MedicalRecordNumberHolder != nil {
		p.MedicalRecordNumberHolder = req.MedicalRecordNumberHolder
	}
	if req.ContractStartDate != nil {
		p.ContractStartDate = dates.MustParse(*req.ContractStartDate)
	}
	if req.ContractExpirationDate != nil {
		p.ContractExpirationDate = dates.MustParse(*req.ContractExpirationDate)
	}
	if req.ContractType != nil {
		p.ContractType = ContractType(*req.ContractType)
	}

	if err := s.patients.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Remove hard-deletes the patient; its health cards go with it.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	return s.patients.Delete(ctx, id)
}
