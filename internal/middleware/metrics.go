package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thethakurshivam/grs-sub003/internal/service"
)

// Metrics records latency and status per route template. Responses carrying
// Retry-After are ledger contention and are counted separately.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
		if c.Writer.Header().Get("Retry-After") != "" {
			metricsSvc.RecordLedgerRetry(route)
		}
	}
}
