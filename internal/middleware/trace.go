package middleware

import (
	"myGroupBuy/business/recommendation"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TraceID reuses the caller's X-Request-ID or mints one, and carries it on
// the request context for service-level logs.
func TraceID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tid := c.Request().Header.Get(echo.HeaderXRequestID)
			if tid == "" {
				tid = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, tid)

			req := c.Request()
			c.SetRequest(req.WithContext(recommendation.WithTraceID(req.Context(), tid)))
			return next(c)
		}
	}
}
