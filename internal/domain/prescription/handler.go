package prescription

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/akith22/DiagNote/internal/platform/auth"
	"github.com/akith22/DiagNote/internal/workflow"
	"github.com/akith22/DiagNote/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/prescriptions", h.Create, auth.RequireRole(auth.RoleDoctor))
	api.PUT("/prescriptions/:id", h.Update, auth.RequireRole(auth.RoleDoctor))
	api.GET("/prescriptions", h.ListForDoctor, auth.RequireRole(auth.RoleDoctor))

	view := auth.RequireRole(auth.RoleDoctor, auth.RolePatient)
	api.GET("/appointments/:id/prescriptions", h.ListForAppointment, view)
	api.GET("/appointments/:id/prescriptions/latest", h.GetLatest, view)
}

type createBody struct {
	AppointmentID int64  `json:"appointment_id"`
	Notes         string `json:"notes"`
}

type updateBody struct {
	Notes string `json:"notes"`
}

func caller(c echo.Context) (auth.Identity, error) {
	ident, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return auth.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "no caller identity")
	}
	return ident, nil
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) Create(c echo.Context) error {
	ident, err := caller(c)
	if err != nil {
		return err
	}
	var body createBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Create(c.Request().Context(), ident, body.AppointmentID, body.Notes)
	if err != nil {
		return workflow.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Update(c echo.Context) error {
	ident, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var body updateBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Update(c.Request().Context(), ident, id, body.Notes)
	if err != nil {
		return workflow.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetLatest(c echo.Context) error {
	ident, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.GetLatestForAppointment(c.Request().Context(), ident, id)
	if err != nil {
		return workflow.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListForAppointment(c echo.Context) error {
	ident, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListForAppointment(c.Request().Context(), ident, id)
	if err != nil {
		return workflow.HTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListForDoctor(c echo.Context) error {
	ident, err := caller(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListForDoctor(c.Request().Context(), ident, pg.Limit, pg.Offset)
	if err != nil {
		return workflow.HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
