// Package dates parses the calendar dates accepted by the API: a plain
// 2006-01-02 date or a full RFC 3339 timestamp, truncated to its day.
package dates

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const Layout = "2006-01-02"

func Parse(s string) (time.Time, error) {
	if t, err := time.Parse(Layout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// MustParse panics on input that Rule rejects. Use it on validated input
// and fixtures.
func MustParse(s string) time.Time {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

var ErrInvalid = validation.NewError("validation_date", "must be a date in YYYY-MM-DD format")

// Rule validates string or *string dates; empty values pass.
var Rule = validation.By(func(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case *string:
		if v == nil {
			return nil
		}
		s = *v
	default:
		return ErrInvalid
	}
	if s == "" {
		return nil
	}
	if _, err := Parse(s); err != nil {
		return ErrInvalid
	}
	return nil
})
