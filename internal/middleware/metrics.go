package middleware

import (
	"strconv"
	"time"

	"myGroupBuy/pkg/metrics"

	"github.com/labstack/echo/v4"
)

// RecommendMetrics times a recommendation handler under the given label.
func RecommendMetrics(handler string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			metrics.RecommendLatency.WithLabelValues(handler).Observe(time.Since(start).Seconds())
			metrics.RecommendRequests.WithLabelValues(handler, strconv.Itoa(c.Response().Status)).Inc()
			return err
		}
	}
}
