package healthcard

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"github.com/policardmed/carteirinha/pkg/dates"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusExpired  Status = "expired"
)

var statuses = []interface{}{string(StatusActive), string(StatusInactive), string(StatusExpired)}

// HealthCard is the physical/virtual membership card issued to a patient.
type HealthCard struct {
	ID             uuid.UUID `json:"id"`
	CardNumber     string    `json:"cardNumber"`
	IssueDate      time.Time `json:"issueDate"`
	ExpirationDate time.Time `json:"expirationDate"`
	Status         Status    `json:"status"`
	PatientID      uuid.UUID `json:"patientId"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// PatientRef identifies the card holder as {"id": "..."}.
type PatientRef struct {
	ID string `json:"id"`
}

type CreateRequest struct {
	CardNumber     string      `json:"cardNumber"`
	IssueDate      string      `json:"issueDate"`
	ExpirationDate string      `json:"expirationDate"`
	Status         string      `json:"status"`
	Patient        *PatientRef `json:"patient"`
	// PatientID is accepted in place of patient.id.
	PatientID string `json:"patientId"`
}

func (r CreateRequest) HolderID() string {
	if r.Patient != nil && r.Patient.ID != "" {
		return r.Patient.ID
	}
	return r.PatientID
}

func (r CreateRequest) Validate() error {
	return validation.Errors{
		"cardNumber":     validation.Validate(r.CardNumber, validation.Required, validation.Length(1, 64)),
		"issueDate":      validation.Validate(r.IssueDate, validation.Required, dates.Rule),
		"expirationDate": validation.Validate(r.ExpirationDate, validation.Required, dates.Rule),
		"status":         validation.Validate(r.Status, validation.In(statuses...)),
		"patient":        validation.Validate(r.HolderID(), validation.Required, is.UUID),
	}.Filter()
}

// UpdateRequest carries a partial update; nil fields are left alone.
type UpdateRequest struct {
	CardNumber     *string `json:"cardNumber"`
	IssueDate      *string `json:"issueDate"`
	ExpirationDate *string `json:"expirationDate"`
	Status         *string `json:"status"`
}

func (r UpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CardNumber, validation.NilOrNotEmpty, validation.Length(1, 64)),
		validation.Field(&r.IssueDate, validation.NilOrNotEmpty, dates.Rule),
		validation.Field(&r.ExpirationDate, validation.NilOrNotEmpty, dates.Rule),
		validation.Field(&r.Status, validation.NilOrNotEmpty, validation.In(statuses...)),
	)
}
