package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/policardmed/carteirinha/internal/platform/auth"
)

// Recovery converts a panicking handler into a plain 500 so the caller never
// sees the panic value. http.ErrAbortHandler is re-raised for net/http.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}

				req := c.Request()
				evt := logger.Error().
					Str("panic", fmt.Sprint(r)).
					Str("method", req.Method).
					Str("path", req.URL.Path)
				if rid, ok := c.Get("request_id").(string); ok {
					evt = evt.Str("request_id", rid)
				}
				if p, ok := auth.PrincipalFromContext(req.Context()); ok {
					evt = evt.Str("user_id", p.UserID.String())
				}
				evt.Bytes("stack", debug.Stack()).Msg("handler panicked")

				err = echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
			}()
			return next(c)
		}
	}
}
