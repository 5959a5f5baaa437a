package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/club-portal/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics records request latency per route template. Screen ids never reach
// the labels; requests that match no route share a single label.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
