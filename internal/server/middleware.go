package server

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// requestLogger logs one line per request. Server errors log at error
// level, everything else at debug.
func requestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "err", c.Errors.String())
		}
		if status >= 500 {
			logger.Error("request", fields...)
			return
		}
		logger.Debug("request", fields...)
	}
}
