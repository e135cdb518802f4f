package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger assigns a request id, attaches a per-request child of base
// to the request context and logs one line when the request finishes.
// Later middleware adds fields (client_id, user_id) to the same logger.
func RequestLogger(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid := req.Header.Get(RequestIDHeader)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(RequestIDHeader, rid)

			l := base.With().Str("request_id", rid).Logger()
			c.SetRequest(req.WithContext(l.WithContext(req.Context())))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			lg := zerolog.Ctx(c.Request().Context())
			ev := lg.Info()
			if status := c.Response().Status; status >= 500 {
				ev = lg.Error().Err(err)
			} else if status >= 400 {
				ev = lg.Warn()
			}
			ev.Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("host", req.Host).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("ip", c.RealIP()).
				Msg("request")
			return nil
		}
	}
}
