package middleware

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Logger emits one structured line per request. Rejected lifecycle
// transitions and validation failures surface as *echo.HTTPError before
// the response is committed, so the status is resolved from the returned
// error rather than the (still 200) response writer. Lines carry the
// authenticated subject and the resource ID from the route so a denied
// claim transition can be traced to who attempted it.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			err := next(c)

			status := c.Response().Status
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				status = httpErr.Code
			}

			var evt *zerolog.Event
			switch {
			case status >= 500:
				evt = logger.Error().Err(err)
			case status >= 400:
				evt = logger.Warn().Err(err)
			default:
				evt = logger.Info()
			}

			evt.
				Str("request_id", RequestIDFrom(c)).
				Str("method", req.Method).
				Str("route", c.Path()).
				Str("path", req.URL.Path).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Int64("bytes_out", c.Response().Size).
				Str("remote_ip", c.RealIP())

			if sub, ok := c.Get("jwt_subject").(string); ok && sub != "" {
				evt = evt.Str("subject", sub)
			}
			if id := c.Param("id"); id != "" {
				evt = evt.Str("resource_id", id)
			}

			evt.Msg("request")
			return err
		}
	}
}
