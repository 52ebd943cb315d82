package account

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"github.com/policardmed/carteirinha/internal/platform/auth"
)

// User is an account. The password hash never leaves the service layer; the
// JSON form is the public profile.
type User struct {
	ID        uuid.UUID   `json:"id"`
	Username  string      `json:"username"`
	Password  string      `json:"-"`
	Name      string      `json:"name"`
	Role      auth.Role   `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	Patient   *PatientRef `json:"patient"`
}

// PatientRef is the patient record owned by a user, if any.
type PatientRef struct {
	ID                  uuid.UUID `json:"id"`
	FirstName           string    `json:"firstName"`
	SurName             string    `json:"surName"`
	CPF                 string    `json:"cpf"`
	MedicalRecordNumber string    `json:"medicalRecordNumber"`
}

// Session is the result of a successful login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (r CreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 50), is.PrintableASCII),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&r.Password, validation.Required, validation.By(strongPassword)),
		validation.Field(&r.Role, validation.By(knownRole)),
	)
}

// UpdateUserRequest carries a partial update; nil fields are left alone.
type UpdateUserRequest struct {
	Username *string `json:"username"`
	Name     *string `json:"name"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.NilOrNotEmpty, validation.Length(3, 50), is.PrintableASCII),
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 120)),
		validation.Field(&r.Password, validation.NilOrNotEmpty, validation.By(strongPassword)),
		validation.Field(&r.Role, validation.NilOrNotEmpty, validation.By(knownRole)),
	)
}

var (
	lowerRe  = regexp.MustCompile(`[a-z]`)
	upperRe  = regexp.MustCompile(`[A-Z]`)
	digitRe  = regexp.MustCompile(`[0-9]`)
	symbolRe = regexp.MustCompile(`[^a-zA-Z0-9\s]`)

	errPasswordTooShort   = validation.NewError("validation_password_length", "must be at least 8 characters long")
	errPasswordTooLong    = validation.NewError("validation_password_length", "must be at most 72 bytes long")
	errPasswordNotComplex = validation.NewError("validation_password_complexity",
		"must include a lowercase letter, an uppercase letter, a digit and a symbol")
)

func strongPassword(value interface{}) error {
	pw, ok := stringValue(value)
	if !ok || pw == "" {
		return nil
	}
	if len(pw) < 8 {
		return errPasswordTooShort
	}
	// bcrypt only accepts 72 bytes; count bytes, not runes.
	if len(pw) > auth.MaxPasswordBytes {
		return errPasswordTooLong
	}
	if !lowerRe.MatchString(pw) || !upperRe.MatchString(pw) ||
		!digitRe.MatchString(pw) || !symbolRe.MatchString(pw) {
		return errPasswordNotComplex
	}
	return nil
}

func knownRole(value interface{}) error {
	s, ok := stringValue(value)
	if !ok || s == "" {
		return nil
	}
	if _, err := auth.ParseRole(s); err != nil {
		return validation.NewError("validation_role", "must be one of admin, patient, subscriber, affiliate")
	}
	return nil
}

func stringValue(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	}
	return "", false
}
