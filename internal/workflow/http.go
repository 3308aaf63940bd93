package workflow

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HTTPStatus maps an error Kind to the status code handlers respond with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindInvalidState:
		return http.StatusUnprocessableEntity
	case KindUnauthorized:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// HTTPError converts a service error into an echo HTTP error. Internal
// failures get a generic message so storage detail never reaches clients.
func HTTPError(err error) error {
	kind := KindOf(err)
	if kind == KindInternal {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	msg := err.Error()
	var we *Error
	if errors.As(err, &we) {
		msg = we.Message
	}
	return echo.NewHTTPError(HTTPStatus(kind), msg)
}
