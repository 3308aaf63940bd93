package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/akith22/DiagNote/internal/platform/auth"
)

// Logger emits one structured line per request. When the JWT middleware has
// resolved a caller by the time the handler returns, the caller's id and role
// are attached so clinical actions are attributable in the request log.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			req := c.Request()
			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}
			evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Int64("bytes_out", c.Response().Size).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP())

			if ident, ok := auth.IdentityFromContext(req.Context()); ok {
				evt.Int64("caller_id", ident.ID).Str("caller_role", string(ident.Role))
			}
			evt.Msg("request")

			return err
		}
	}
}
