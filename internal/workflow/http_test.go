package workflow

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindInvalidState, http.StatusUnprocessableEntity},
		{KindUnauthorized, http.StatusForbidden},
		{KindValidation, http.StatusBadRequest},
		{KindUnauthenticated, http.StatusUnauthorized},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.kind); got != tc.want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", tc.kind, got, tc.want)
		}
	}
}

func TestHTTPErrorHidesInternalDetail(t *testing.T) {
	err := HTTPError(Internal("scan appointment row", errors.New("pq: connection reset")))

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("HTTPError returned %T, want *echo.HTTPError", err)
	}
	if he.Code != http.StatusInternalServerError {
		t.Errorf("code = %d, want 500", he.Code)
	}
	if he.Message != "internal server error" {
		t.Errorf("message = %q, want generic", he.Message)
	}
}

func TestHTTPErrorCarriesMessage(t *testing.T) {
	err := HTTPError(NotFound("appointment %d not found", 42))

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("HTTPError returned %T, want *echo.HTTPError", err)
	}
	if he.Code != http.StatusNotFound {
		t.Errorf("code = %d, want 404", he.Code)
	}
	if he.Message != "appointment 42 not found" {
		t.Errorf("message = %q", he.Message)
	}
}
