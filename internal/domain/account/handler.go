package account

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

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/auth/login", h.Login)
	g.POST("/auth/register", h.Register)
	g.GET("/auth/verify", h.Verify)

	g.GET("/users", h.ListUsers, auth.RequireRole(auth.RoleAdmin))
	g.GET("/users/:id", h.GetUser)
	g.PATCH("/users/:id", h.UpdateUser)
	g.DELETE("/users/:id", h.DeleteUser, auth.RequireRole(auth.RoleAdmin))
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	session, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	if session == nil {
		return apperr.Unauthorized("invalid username or password")
	}
	return c.JSON(http.StatusOK, session)
}

func (h *Handler) Register(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	u, err := h.svc.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) Verify(c echo.Context) error {
	p, err := auth.FromEcho(c)
	if err != nil {
		return err
	}
	u, err := h.svc.Verify(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) ListUsers(c echo.Context) error {
	p, err := auth.FromEcho(c)
	if err != nil {
		return err
	}
	page, err := pagination.FromContext(c)
	if err != nil {
		return err
	}
	users, total, err := h.svc.List(c.Request().Context(), p, page.Limit, page.Offset)
	if err != nil {
		return err
	}
	return pagination.Write(c, page, users, total)
}

func (h *Handler) GetUser(c echo.Context) error {
	p, id, err := principalAndID(c)
	if err != nil {
		return err
	}
	u, err := h.svc.Get(c.Request().Context(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) UpdateUser(c echo.Context) error {
	p, id, err := principalAndID(c)
	if err != nil {
		return err
	}
	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	u, err := h.svc.Update(c.Request().Context(), p, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) DeleteUser(c echo.Context) error {
	p, id, err := principalAndID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), p, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func principalAndID(c echo.Context) (*auth.Principal, uuid.UUID, error) {
	p, err := auth.FromEcho(c)
	if err != nil {
		return nil, uuid.Nil, err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, uuid.Nil, apperr.BadRequest("invalid id")
	}
	return p, id, nil
}
