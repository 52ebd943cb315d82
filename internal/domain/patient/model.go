package patient

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"github.com/policardmed/carteirinha/internal/domain/account"
	"github.com/policardmed/carteirinha/pkg/cpf"
	"github.com/policardmed/carteirinha/pkg/dates"
)

type ContractType string

const (
	ContractFullDiscount    ContractType = "full_discount"
	ContractPartialDiscount ContractType = "partial_discount"
	ContractNoDiscount      ContractType = "no_discount"
)

var contractTypes = []interface{}{
	string(ContractFullDiscount), string(ContractPartialDiscount), string(ContractNoDiscount),
}

// Patient is the insured person's record. CPF is stored as 11 digits.
type Patient struct {
	ID                        uuid.UUID     `json:"id"`
	FirstName                 string        `json:"firstName"`
	SurName                   string        `json:"surName"`
	CPF                       string        `json:"cpf"`
	BirthDate                 time.Time     `json:"birthDate"`
	MedicalRecordNumber       string        `json:"medicalRecordNumber"`
	MedicalRecordNumberHolder *string       `json:"medicalRecordNumberHolder"`
	ContractStartDate         time.Time     `json:"contractStartDate"`
	ContractExpirationDate    time.Time     `json:"contractExpirationDate"`
	ContractType              ContractType  `json:"contractType"`
	UserID                    *uuid.UUID    `json:"userId,omitempty"`
	User                      *account.User `json:"user"`
	CreatedAt                 time.Time     `json:"createdAt"`
	UpdatedAt                 time.Time     `json:"updatedAt"`
}

// UserRef identifies the owning account as {"id": "..."}.
type UserRef struct {
	ID string `json:"id"`
}

type CreateRequest struct {
	FirstName                 string   `json:"firstName"`
	SurName                   string   `json:"surName"`
	CPF                       string   `json:"cpf"`
	BirthDate                 string   `json:"birthDate"`
	MedicalRecordNumber       string   `json:"medicalRecordNumber"`
	MedicalRecordNumberHolder *string  `json:"medicalRecordNumberHolder"`
	ContractStartDate         string   `json:"contractStartDate"`
	ContractExpirationDate    string   `json:"contractExpirationDate"`
	ContractType              string   `json:"contractType"`
	User                      *UserRef `json:"user"`
	// UserID is accepted in place of user.id.
	UserID string `json:"userId"`
}

// OwnerID resolves the owning user from either request form.
func (r CreateRequest) OwnerID() string {
	if r.User != nil && r.User.ID != "" {
		return r.User.ID
	}
	return r.UserID
}

func (r CreateRequest) Validate() error {
	owner := r.OwnerID()
	return validation.Errors{
		"firstName":              validation.Validate(r.FirstName, validation.Required, validation.Length(1, 100)),
		"surName":                validation.Validate(r.SurName, validation.Required, validation.Length(1, 100)),
		"cpf":                    validation.Validate(r.CPF, validation.Required, cpf.Rule),
		"birthDate":              validation.Validate(r.BirthDate, validation.Required, dates.Rule),
		"medicalRecordNumber":    validation.Validate(r.MedicalRecordNumber, validation.Required, validation.Length(1, 50)),
		"contractStartDate":      validation.Validate(r.ContractStartDate, validation.Required, dates.Rule),
		"contractExpirationDate": validation.Validate(r.ContractExpirationDate, validation.Required, dates.Rule),
		"contractType":           validation.Validate(r.ContractType, validation.Required, validation.In(contractTypes...)),
		"user":                   validation.Validate(owner, validation.Required, is.UUID),
	}.Filter()
}

// UpdateRequest carries a partial update; nil fields are left alone.
type UpdateRequest struct {
	FirstName                 *string `json:"firstName"`
	SurName                   *string `json:"surName"`
	CPF                       *string `json:"cpf"`
	BirthDate                 *string `json:"birthDate"`
	MedicalRecordNumber       *string `json:"medicalRecordNumber"`
	MedicalRecordNumberHolder *string `json:"medicalRecordNumberHolder"`
	ContractStartDate         *string `json:"contractStartDate"`
	ContractExpirationDate    *string `json:"contractExpirationDate"`
	ContractType              *string `json:"contractType"`
}

func (r UpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&r.SurName, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&r.CPF, validation.NilOrNotEmpty, cpf.Rule),
		validation.Field(&r.BirthDate, validation.NilOrNotEmpty, dates.Rule),
		validation.Field(&r.MedicalRecordNumber, validation.NilOrNotEmpty, validation.Length(1, 50)),
		validation.Field(&r.ContractStartDate, validation.NilOrNotEmpty, dates.Rule),
		validation.Field(&r.ContractExpirationDate, validation.NilOrNotEmpty, dates.Rule),
		validation.Field(&r.ContractType, validation.NilOrNotEmpty, validation.In(contractTypes...)),
	)
}
