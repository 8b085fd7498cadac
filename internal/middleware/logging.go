package middleware

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"appointment-booking-server/internal/utils"
)

type loggerKey struct{}

func withLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// LoggerFromContext returns the request-scoped logger, or nil.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	l, _ := ctx.Value(loggerKey{}).(*slog.Logger)
	return l
}

// LoggerFrom returns the request logger for c, falling back to slog.Default.
func LoggerFrom(c *gin.Context) *slog.Logger {
	if l := LoggerFromContext(c.Request.Context()); l != nil {
		return l
	}
	return slog.Default()
}

// RequestLogger tags every request with an id and logs its outcome.
func RequestLogger(base *slog.Logger) gin.HandlerFunc {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(c *gin.Context) {
		id := counter.Add(1)
		logger := base.With(
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
		c.Request = c.Request.WithContext(withLogger(c.Request.Context(), logger))

		start := time.Now()
		c.Next()

		// Auth may have enriched the logger with the user.
		logger = LoggerFrom(c)
		attrs := []any{"status", c.Writer.Status(), "duration", time.Since(start)}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}
		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.ErrorContext(c.Request.Context(), "request completed", attrs...)
		case status >= 400:
			logger.WarnContext(c.Request.Context(), "request completed", attrs...)
		default:
			logger.InfoContext(c.Request.Context(), "request completed", attrs...)
		}
	}
}

// Recovery turns panics into a logged 500.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err any) {
		LoggerFrom(c).ErrorContext(c.Request.Context(), "panic recovered", "panic", err)
		utils.InternalServerError(c, "Internal server error")
		c.Abort()
	})
}
