package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/policardmed/carteirinha/internal/platform/apperr"
)

// RequireRole rejects requests whose principal holds none of roles. Admins
// always pass.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := FromEcho(c)
			if err != nil {
				return err
			}
			if p.IsAdmin() || p.HasRole(roles...) {
				return next(c)
			}
			return apperr.Unauthorized("required role: %s", strings.Join(names, " or "))
		}
	}
}
