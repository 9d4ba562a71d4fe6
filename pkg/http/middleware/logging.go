package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"MandiPulse/pkg/logger"
)

// RequestLogging logs one line per request. 5xx responses are logged at error
// level and everything else at info.
func RequestLogging(l *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			if l == nil {
				return nil
			}

			req := c.Request()
			status := c.Response().Status
			fields := []logger.Field{
				logger.String("method", req.Method),
				logger.String("uri", req.RequestURI),
				logger.String("remote", c.RealIP()),
				logger.Int("status", status),
				logger.Duration("latency", time.Since(start)),
			}
			if status >= 500 {
				if err != nil {
					fields = append(fields, logger.Error(err))
				}
				l.Error("http request failed", fields...)
				return nil
			}
			l.Info("http request", fields...)
			return nil
		}
	}
}
