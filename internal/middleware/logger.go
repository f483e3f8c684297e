package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger 使用 slog 记录请求
func RequestLogger() gin.HandlerFunc {
	logger := slog.Default().With("component", "HTTP")

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"playerId", GetPlayerID(c),
		}
		switch {
		case c.Writer.Status() >= 500:
			logger.Error("Request failed", attrs...)
		case c.Writer.Status() >= 400:
			logger.Warn("Request rejected", attrs...)
		default:
			logger.Debug("Request handled", attrs...)
		}
	}
}
