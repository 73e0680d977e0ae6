package http

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/example/clinic-scheduler/internal/logging"
)

// RequestLogger attaches a request scoped logger to the context and emits one
// line per request with method, path, status, and latency.
func RequestLogger(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			logger := base.With().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Logger()

			ctx := logging.ContextWithLogger(req.Context(), logger)
			c.SetRequest(req.WithContext(ctx))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			logger.Info().
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Msg("request handled")

			return err
		}
	}
}
