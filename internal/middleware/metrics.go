package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"appointment-booking-server/internal/metrics"
)

// Metrics records request counts and latencies labelled by route template.
// A panicking handler is counted as a 500 before the panic reaches Recovery.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		done := m.RequestStarted()
		defer func() {
			path := c.FullPath()
			if path == "" {
				path = "unmatched"
			}
			if r := recover(); r != nil {
				done(c.Request.Method, path, http.StatusInternalServerError)
				panic(r)
			}
			done(c.Request.Method, path, c.Writer.Status())
		}()
		c.Next()
	}
}
