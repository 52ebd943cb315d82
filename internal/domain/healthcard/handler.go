package healthcard

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/policardmed/carteirinha/internal/platform/apperr"
	"github.com/policardmed/carteirinha/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/health-cards", h.ListHealthCards)
	g.GET("/health-cards/patient/:patientId", h.ListByPatient)
	g.GET("/health-cards/:id", h.GetHealthCard)
	g.POST("/health-cards", h.CreateHealthCard)
	g.PATCH("/health-cards/:id", h.UpdateHealthCard)
	g.DELETE("/health-cards/:id", h.DeleteHealthCard)
}

func (h *Handler) CreateHealthCard(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	hc, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, hc)
}

func (h *Handler) ListHealthCards(c echo.Context) error {
	page, err := pagination.FromContext(c)
	if err != nil {
		return err
	}
	cards, total, err := h.svc.FindAll(c.Request().Context(), page.Limit, page.Offset)
	if err != nil {
		return err
	}
	return pagination.Write(c, page, cards, total)
}

func (h *Handler) GetHealthCard(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.BadRequest("invalid id")
	}
	hc, err := h.svc.FindOne(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, hc)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return apperr.BadRequest("invalid patient id")
	}
	cards, err := h.svc.FindByPatientID(c.Request().Context(), patientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cards)
}

func (h *Handler) UpdateHealthCard(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.BadRequest("invalid id")
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	hc, err := h.svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, hc)
}

func (h *Handler) DeleteHealthCard(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.BadRequest("invalid id")
	}
	if err := h.svc.Remove(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
