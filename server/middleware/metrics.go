package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/execkit/observability"
)

// Metrics records request counts and latency per gin route template.
// Unmatched routes are recorded as "unmatched".
func Metrics(m *observability.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		m.RecordRequestStart(ctx)
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordRequestEnd(ctx, route, c.Writer.Status(), time.Since(start))
	}
}
