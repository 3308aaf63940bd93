package lab

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
	api.POST("/lab-requests", h.CreateRequest, auth.RequireRole(auth.RoleDoctor))
	api.GET("/lab-requests", h.ListForDoctor, auth.RequireRole(auth.RoleDoctor))
	api.GET("/lab-requests/:id", h.GetRequest)
	api.GET("/lab-requests/:id/reports", h.ListReports)
	api.POST("/lab-requests/:id/reports", h.UploadReports, auth.RequireRole(auth.RoleLabTech))
	api.GET("/appointments/:id/lab-requests", h.ListByAppointment)
	api.GET("/lab-reports/:id/file", h.DownloadReport)
}

type createRequestBody struct {
	AppointmentID int64  `json:"appointment_id"`
	TestType      string `json:"test_type"`
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

func (h *Handler) CreateRequest(c echo.Context) error {
	ident, err := caller(c)
	if err != nil {
		return err
	}
	var body createRequestBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	lr, err := h.svc.CreateRequest(c.Request().Context(), ident, body.AppointmentID, body.TestType)
	if err != nil {
		return workflow.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, lr)
}

func (h *Handler) GetRequest(c echo.Context) error {
	ident, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	lr, err := h.svc.GetByID(c.Request().Context(), ident, id)
	if err != nil {
		return workflow.HTTPError(err)
	}
	return c.JSON(http.StatusOK, lr)
}

func (h *Handler) ListByAppointment(c echo.Context) error {
	ident, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListByAppointment(c.Request().Context(), ident, id)
	if err != nil {
		return workflow.HTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

// ListForDoctor lists the authenticated doctor's lab requests. A doctor_email
// query parameter is accepted for parity with the directory lookup but must
// resolve to the caller.
func (h *Handler) ListForDoctor(c echo.Context) error {
	ident, err := caller(c)
	if err != nil {
		return err
	}
	email := c.QueryParam("doctor_email")
	if email == "" {
		email = ident.Email
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListForDoctor(c.Request().Context(), ident, email, pg.Limit, pg.Offset)
	if err != nil {
		return workflow.HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

// UploadReports accepts one or more multipart files under the "files" field.
// A single successful file responds 201; partial failures respond 207 with
// the per-file outcomes.
func (h *Handler) UploadReports(c echo.Context) error {
	ident, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart form required")
	}
	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "at least one file is required")
	}

	var uploads []FileUpload
	var closers []func() error
	defer func() {
		for _, cl := range closers {
			cl()
		}
	}()
	for _, fh := range fileHeaders {
		src, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable file "+fh.Filename)
		}
		closers = append(closers, src.Close)
		uploads = append(uploads, FileUpload{Name: fh.Filename, Content: src})
	}

	result, err := h.svc.AttachReports(c.Request().Context(), ident, id, uploads)
	if err != nil {
		return workflow.HTTPError(err)
	}
	if len(result.Failed) > 0 {
		return c.JSON(http.StatusMultiStatus, result)
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) ListReports(c echo.Context) error {
	ident, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListReports(c.Request().Context(), ident, id)
	if err != nil {
		return workflow.HTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) DownloadReport(c echo.Context) error {
	ident, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	rc, name, err := h.svc.DownloadReport(c.Request().Context(), ident, id)
	if err != nil {
		return workflow.HTTPError(err)
	}
	defer rc.Close()
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Stream(http.StatusOK, echo.MIMEOctetStream, rc)
}
