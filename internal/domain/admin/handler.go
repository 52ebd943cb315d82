package admin

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/policardmed/carteirinha/internal/platform/apperr"
	"github.com/policardmed/carteirinha/internal/platform/auth"
	"github.com/policardmed/carteirinha/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the admin views under /admin. The services check the
// role again, so the group guard only saves a round trip.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	ag := g.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	ag.GET("/stats/user-roles", h.GetUserRoleCounts)
	ag.GET("/stats/recent-payments", h.GetRecentPayments)
	ag.GET("/payments/subscriber", h.GetSubscriberPayments)
	ag.POST("/payments/:id/refund", h.RefundPayment)
}

func (h *Handler) GetUserRoleCounts(c echo.Context) error {
	p, err := auth.FromEcho(c)
	if err != nil {
		return err
	}
	counts, err := h.svc.GetUserRoleCounts(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, counts)
}

func (h *Handler) GetRecentPayments(c echo.Context) error {
	p, err := auth.FromEcho(c)
	if err != nil {
		return err
	}
	limit, err := pagination.Limit(c, "limit", DefaultRecentLimit, MaxRecentLimit)
	if err != nil {
		return err
	}
	payments, err := h.svc.GetRecentPayments(c.Request().Context(), p, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payments)
}

func (h *Handler) GetSubscriberPayments(c echo.Context) error {
	p, err := auth.FromEcho(c)
	if err != nil {
		return err
	}
	payments, err := h.svc.GetAllSubscriberPayments(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payments)
}

func (h *Handler) RefundPayment(c echo.Context) error {
	p, err := auth.FromEcho(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.BadRequest("invalid id")
	}
	pay, err := h.svc.RefundPayment(c.Request().Context(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pay)
}
