package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/policardmed/carteirinha/internal/platform/apperr"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caller. Services receive it explicitly.
type Principal struct {
	UserID   uuid.UUID
	Username string
	Role     Role
	TenantID string
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// HasRole reports whether the principal holds any of roles.
func (p *Principal) HasRole(roles ...Role) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// Owns reports whether userID is the principal's own account.
func (p *Principal) Owns(userID uuid.UUID) bool {
	return p != nil && p.UserID == userID
}

// EnsureAdmin fails with Unauthorized unless p is an admin.
func EnsureAdmin(p *Principal) error {
	if !p.IsAdmin() {
		return apperr.Unauthorized("Only admins can access this resource.")
	}
	return nil
}

// EnsureSelfOrAdmin fails with Unauthorized unless p is an admin or userID
// is p's own account.
func EnsureSelfOrAdmin(p *Principal, userID uuid.UUID) error {
	if p.IsAdmin() || p.Owns(userID) {
		return nil
	}
	return apperr.Unauthorized("You are not authorized to access this resource.")
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok && p != nil
}

// FromEcho returns the request's principal or an Unauthorized error.
func FromEcho(c echo.Context) (*Principal, error) {
	p, ok := PrincipalFromContext(c.Request().Context())
	if !ok {
		return nil, apperr.Unauthorized("authentication required")
	}
	return p, nil
}

// SetPrincipal attaches p to the request context. Handler tests use it in
// place of the JWT middleware.
func SetPrincipal(c echo.Context, p *Principal) {
	c.SetRequest(c.Request().WithContext(WithPrincipal(c.Request().Context(), p)))
}
