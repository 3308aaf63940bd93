package appointment

import (
	"net/http"
	"strconv"
	"time"

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
	g := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RolePatient))
	g.POST("/appointments", h.Book)
	g.GET("/appointments", h.List)
	g.GET("/appointments/:id", h.Get)
	g.PUT("/appointments/:id/reschedule", h.Reschedule)
	g.PUT("/appointments/:id/cancel", h.Cancel)
}

type bookRequest struct {
	DoctorID    int64     `json:"doctor_id"`
	PatientID   int64     `json:"patient_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

type rescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
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

func (h *Handler) Book(c echo.Context) error {
	ident, err := caller(c)
	if err != nil {
		return err
	}
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.Book(c.Request().Context(), ident, req.DoctorID, req.PatientID, req.ScheduledAt)
	if err != nil {
		return workflow.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	ident, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Get(c.Request().Context(), ident, id)
	if err != nil {
		return workflow.HTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

// List returns the caller's own active appointments.
func (h *Handler) List(c echo.Context) error {
	ident, err := caller(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)

	var (
		items []*Appointment
		total int
	)
	switch ident.Role {
	case auth.RoleDoctor:
		items, total, err = h.svc.ListForDoctor(c.Request().Context(), ident, ident.ID, pg.Limit, pg.Offset)
	case auth.RolePatient:
		items, total, err = h.svc.ListForPatient(c.Request().Context(), ident, ident.ID, pg.Limit, pg.Offset)
	default:
		return echo.NewHTTPError(http.StatusForbidden, "required role: DOCTOR or PATIENT")
	}
	if err != nil {
		return workflow.HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Reschedule(c echo.Context) error {
	ident, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.Reschedule(c.Request().Context(), ident, id, req.ScheduledAt)
	if err != nil {
		return workflow.HTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Cancel(c echo.Context) error {
	ident, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Cancel(c.Request().Context(), ident, id); err != nil {
		return workflow.HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
