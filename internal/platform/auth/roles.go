package auth

import (
	"fmt"
	"strings"
)

// Role is an account's single role.
type Role string

const (
	RoleAdmin      Role = "admin"
	RolePatient    Role = "patient"
	RoleSubscriber Role = "subscriber"
	RoleAffiliate  Role = "affiliate"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RolePatient, RoleSubscriber, RoleAffiliate}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RolePatient, RoleSubscriber, RoleAffiliate:
		return true
	}
	return false
}

// ParseRole accepts a role name case-insensitively. The SPA historically
// sent "paciente" for patients; it is accepted as an alias.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "paciente" {
		return RolePatient, nil
	}
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// RoleValues returns the roles as []interface{} for validation.In.
func RoleValues(roles ...Role) []interface{} {
	if len(roles) == 0 {
		roles = Roles
	}
	out := make([]interface{}, len(roles))
	for i, r := range roles {
		out[i] = r
	}
	return out
}
