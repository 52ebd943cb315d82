package payment

import (
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"github.com/policardmed/carteirinha/internal/domain/account"
)

type Status string

// StatusFailed doubles as "refunded": a refund moves a completed payment to
// failed.
const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var statuses = []interface{}{string(StatusPending), string(StatusCompleted), string(StatusFailed)}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Refundable reports whether a refund may move a payment in status s to
// failed. Only completed payments qualify.
func (s Status) Refundable() bool {
	return s == StatusCompleted
}

type Payment struct {
	ID        uuid.UUID     `json:"id"`
	UserID    uuid.UUID     `json:"userId"`
	Amount    float64       `json:"amount"`
	Status    Status        `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	User      *account.User `json:"user,omitempty"`
}

// MaxAmount is the largest value the NUMERIC(12,2) amount column holds.
const MaxAmount = 9999999999.99

var errAmountCents = validation.NewError("validation_amount_cents", "must have at most two decimal places")

// wholeCents rejects amounts the database would round, such as 10.005.
func wholeCents(value interface{}) error {
	v, ok := value.(float64)
	if !ok {
		return nil
	}
	// The shortest decimal form of v is what the client sent.
	digits := strconv.FormatFloat(v, 'f', -1, 64)
	if i := strings.IndexByte(digits, '.'); i >= 0 && len(digits)-i-1 > 2 {
		return errAmountCents
	}
	return nil
}

type UserRef struct {
	ID string `json:"id"`
}

type CreateRequest struct {
	Amount float64  `json:"amount"`
	Status string   `json:"status"`
	User   *UserRef `json:"user"`
	// UserID is accepted in place of user.id.
	UserID string `json:"userId"`
}

func (r CreateRequest) OwnerID() string {
	if r.User != nil && r.User.ID != "" {
		return r.User.ID
	}
	return r.UserID
}

func (r CreateRequest) Validate() error {
	return validation.Errors{
		"amount": validation.Validate(r.Amount, validation.Required, validation.Min(0.0).Exclusive(), validation.Max(MaxAmount), validation.By(wholeCents)),
		"status": validation.Validate(r.Status, validation.In(statuses...)),
		"user":   validation.Validate(r.OwnerID(), validation.Required, is.UUID),
	}.Filter()
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}
