// internal/server/middleware.go
//
// gin 中介層：每個請求結束後以 slog 記錄一行存取紀錄。
package server

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// requestLogger 記錄 method、path、status 與耗時；5xx 以 error 等級輸出。
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= 500 {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
