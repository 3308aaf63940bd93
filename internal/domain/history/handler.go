package history

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/akith22/DiagNote/internal/platform/auth"
	"github.com/akith22/DiagNote/internal/workflow"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleDoctor))
	g.GET("/patients/:id/history", h.PatientHistory)
	g.GET("/doctors/me/appointment-stats", h.AppointmentStats)
}

func (h *Handler) PatientHistory(c echo.Context) error {
	ident, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no caller identity")
	}
	patientID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || patientID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	hist, err := h.svc.PatientHistory(c.Request().Context(), ident, patientID)
	if err != nil {
		return workflow.HTTPError(err)
	}
	return c.JSON(http.StatusOK, hist)
}

func (h *Handler) AppointmentStats(c echo.Context) error {
	ident, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no caller identity")
	}
	stats, err := h.svc.AppointmentStats(c.Request().Context(), ident)
	if err != nil {
		return workflow.HTTPError(err)
	}
	return c.JSON(http.StatusOK, stats)
}
