package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/policardmed/carteirinha/internal/platform/apperr"
)

type JWTConfig struct {
	Tokens *Tokens
	// Skipper marks requests that may proceed without a token.
	Skipper func(c echo.Context) bool
}

// JWTMiddleware authenticates the bearer token and stores the Principal on
// the request context. It also exposes the token's tenant to the tenant
// middleware under "jwt_tenant_id".
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			tokenStr, err := bearerToken(c)
			if err != nil {
				return err
			}

			claims, err := cfg.Tokens.Parse(tokenStr)
			if err != nil {
				return apperr.Unauthorized("invalid token")
			}
			p, err := claims.Principal()
			if err != nil {
				return apperr.Unauthorized("invalid token")
			}

			c.Set("jwt_tenant_id", p.TenantID)
			SetPrincipal(c, p)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		// Browsers cannot set headers on a websocket handshake.
		if isWebsocketUpgrade(c) {
			if token := c.QueryParam("access_token"); token != "" {
				return token, nil
			}
		}
		return "", apperr.Unauthorized("missing authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", apperr.Unauthorized("invalid authorization format")
	}
	return strings.TrimSpace(token), nil
}

func isWebsocketUpgrade(c echo.Context) bool {
	return strings.EqualFold(c.Request().Header.Get(echo.HeaderUpgrade), "websocket")
}
