package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/autopay/internal/shared/constants"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

// CustomLogger writes one access log line per request. Routes are logged by
// their pattern so subscription ids do not end up in the path field.
func CustomLogger(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		fields := []any{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString(constants.ContextKeyRequestID),
		}
		if principal, ok := GetPrincipal(c); ok {
			fields = append(fields, "principal", principal)
		}
		if _, ok := c.Get(constants.ContextKeyDelegatedKey); ok {
			fields = append(fields, "delegated", true)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Errorw("request failed", fields...)
		case status >= 400:
			log.Warnw("request rejected", fields...)
		default:
			log.Debugw("request served", fields...)
		}
	}
}
