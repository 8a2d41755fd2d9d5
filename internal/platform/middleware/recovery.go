package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Recovery converts handler panics into 500 responses. The response body
// carries the request ID so a client-side error report can be matched to
// the logged stack trace.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					rid := RequestIDFrom(c)
					logger.Error().
						Str("request_id", rid).
						Str("method", c.Request().Method).
						Str("path", c.Request().URL.Path).
						Str("panic", fmt.Sprintf("%v", r)).
						Bytes("stack", debug.Stack()).
						Msg("panic recovered")

					msg := "internal server error"
					if rid != "" {
						msg = fmt.Sprintf("internal server error (request %s)", rid)
					}
					err = echo.NewHTTPError(http.StatusInternalServerError, msg)
				}
			}()
			return next(c)
		}
	}
}
