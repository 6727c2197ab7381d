package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"finsight/internal/logger"
)

const requestIDKey = "requestID"

// RequestID returns the request ID assigned by RequestLogging, or "" when
// the middleware is not installed.
func RequestID(c *gin.Context) string {
	id, _ := c.Value(requestIDKey).(string)
	return id
}

// RequestLogging tags each request with a unique ID, echoes it in the
// X-Request-ID header, and logs method, path, status, latency, and client IP
// on completion. Server errors log at error level and client errors at warn
// so they stand out from routine traffic.
func RequestLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := uuid.New().String()
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}

		log := logger.Get()
		switch {
		case status >= 500:
			log.Errorw("request", fields...)
		case status >= 400:
			log.Warnw("request", fields...)
		default:
			log.Infow("request", fields...)
		}
	}
}
