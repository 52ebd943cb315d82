package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// publicPaths bypass authentication. Routes are served both at the root and
// under /api, so only the unprefixed form is listed.
var publicPaths = map[string]bool{
	"/health":        true,
	"/health/db":     true,
	"/auth/login":    true,
	"/auth/register": true,
}

// AuthSkipper returns true for requests whose route is public.
func AuthSkipper(c echo.Context) bool {
	return IsPublicPath(c.Path())
}

func IsPublicPath(path string) bool {
	return publicPaths[strings.TrimPrefix(path, "/api")]
}

// IsHealthPath reports whether path is a health probe; those also skip
// tenant resolution.
func IsHealthPath(path string) bool {
	p := strings.TrimPrefix(path, "/api")
	return p == "/health" || p == "/health/db"
}
