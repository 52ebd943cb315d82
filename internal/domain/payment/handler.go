package payment

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/policardmed/carteirinha/internal/platform/apperr"
	"github.com/policardmed/carteirinha/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/payments", h.CreatePayment)
	g.GET("/payments/user/:userId", h.ListUserPayments)
	g.GET("/payments/:id", h.GetPayment)
	g.PUT("/payments/:id/status", h.UpdateStatus)
}

func principalAndParam(c echo.Context, name string) (*auth.Principal, uuid.UUID, error) {
	p, err := auth.FromEcho(c)
	if err != nil {
		return nil, uuid.Nil, err
	}
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return nil, uuid.Nil, apperr.BadRequest("invalid id")
	}
	return p, id, nil
}

func (h *Handler) CreatePayment(c echo.Context) error {
	p, err := auth.FromEcho(c)
	if err != nil {
		return err
	}
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	pay, err := h.svc.Create(c.Request().Context(), p, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, pay)
}

func (h *Handler) GetPayment(c echo.Context) error {
	p, id, err := principalAndParam(c, "id")
	if err != nil {
		return err
	}
	pay, err := h.svc.FindOne(c.Request().Context(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pay)
}

func (h *Handler) ListUserPayments(c echo.Context) error {
	p, userID, err := principalAndParam(c, "userId")
	if err != nil {
		return err
	}
	payments, err := h.svc.FindAllByUser(c.Request().Context(), p, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payments)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	p, id, err := principalAndParam(c, "id")
	if err != nil {
		return err
	}
	var req UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	pay, err := h.svc.UpdateStatus(c.Request().Context(), p, id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pay)
}
