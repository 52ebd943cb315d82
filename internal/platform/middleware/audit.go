package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/policardmed/carteirinha/internal/platform/auth"
)

// AuditEntry records who touched which record and how.
type AuditEntry struct {
	Timestamp  time.Time
	RequestID  string
	UserID     string
	Role       string
	Tenant     string
	Resource   string
	ResourceID string
	Action     string
	Method     string
	Path       string
	RemoteIP   string
	Status     int
}

// Audit emits an "audit" log event for every request against a record
// collection (patients, health cards, payments, users, admin views).
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			resource, id := splitResourcePath(c.Request().URL.Path)
			if !auditedResources[resource] {
				return next(c)
			}

			err := next(c)

			entry := buildAuditEntry(c, resource, id)
			if err != nil && !c.Response().Committed {
				entry.Status = statusOf(err)
			}

			evt := logger.Info()
			if entry.Status == http.StatusUnauthorized {
				evt = logger.Warn()
			}
			evt.
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Str("role", entry.Role).
				Str("tenant", entry.Tenant).
				Str("resource", entry.Resource).
				Str("resource_id", entry.ResourceID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.RemoteIP).
				Int("status", entry.Status).
				Msg("record_access")

			return err
		}
	}
}

var auditedResources = map[string]bool{
	"patients":     true,
	"health-cards": true,
	"payments":     true,
	"users":        true,
	"admin":        true,
}

func buildAuditEntry(c echo.Context, resource, id string) AuditEntry {
	req := c.Request()
	entry := AuditEntry{
		Timestamp:  time.Now().UTC(),
		Resource:   resource,
		ResourceID: id,
		Action:     httpMethodToAction(req.Method),
		Method:     req.Method,
		Path:       req.URL.Path,
		RemoteIP:   c.RealIP(),
		Status:     c.Response().Status,
	}
	entry.RequestID, _ = c.Get("request_id").(string)
	entry.Tenant, _ = c.Get("tenant_id").(string)
	if p, ok := auth.PrincipalFromContext(req.Context()); ok {
		entry.UserID = p.UserID.String()
		entry.Role = string(p.Role)
	}
	return entry
}

// splitResourcePath returns the collection name and, when present, the
// first UUID segment after it. "/api/payments/<id>/status" yields
// ("payments", "<id>").
func splitResourcePath(path string) (resource, id string) {
	path = strings.TrimPrefix(path, "/api")
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 0 {
		return "", ""
	}
	resource = segments[0]
	for _, s := range segments[1:] {
		if _, err := uuid.Parse(s); err == nil {
			return resource, s
		}
	}
	return resource, ""
}

func httpMethodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}
