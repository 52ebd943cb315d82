// Package cpf validates and normalizes Brazilian individual taxpayer numbers.
package cpf

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const Length = 11

// Normalize strips every non-digit, so "116.001.947-96" becomes "11600194796".
// It does not check the result.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(Length)
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Valid reports whether s, after normalization, has 11 digits that are not
// all the same and whose two check digits match.
func Valid(s string) bool {
	d := Normalize(s)
	if len(d) != Length || allSame(d) {
		return false
	}
	return checkDigit(d[:9], 10) == int(d[9]-'0') &&
		checkDigit(d[:10], 11) == int(d[10]-'0')
}

// checkDigit weights digits from firstWeight down to 2.
func checkDigit(digits string, firstWeight int) int {
	sum := 0
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i]-'0') * (firstWeight - i)
	}
	r := (sum * 10) % 11
	if r == 10 {
		return 0
	}
	return r
}

func allSame(d string) bool {
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			return false
		}
	}
	return true
}

// Format renders a valid CPF as ###.###.###-##. Anything else is returned
// unchanged.
func Format(s string) string {
	d := Normalize(s)
	if len(d) != Length {
		return s
	}
	return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
}

var ErrInvalid = validation.NewError("validation_is_cpf", "must be a valid CPF")

// Rule is an ozzo-validation rule for string CPFs. Empty values pass so it
// composes with validation.Required.
var Rule = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		if p, isPtr := value.(*string); isPtr {
			if p == nil {
				return nil
			}
			s, ok = *p, true
		}
	}
	if !ok {
		return errors.New("must be a string")
	}
	if s == "" || Valid(s) {
		return nil
	}
	return ErrInvalid
})
