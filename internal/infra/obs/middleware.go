package obs

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Middleware struct {
	Logger *slog.Logger
}

func (m Middleware) RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		ctx := context.WithValue(c.Request.Context(), requestIDKey{}, id)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Set("request_id", id)
		c.Next()
	}
}

// LoggerMiddleware logs one line per request; 5xx responses log at error level.
func (m Middleware) LoggerMiddleware() gin.HandlerFunc {
	log := m.Logger
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if log == nil {
			return
		}
		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		}
		log.Log(c.Request.Context(), level, "http",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"duration", time.Since(start),
			"request_id", c.GetString("request_id"),
		)
	}
}

// Recovery turns a handler panic into a logged 500.
func (m Middleware) Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		if m.Logger != nil {
			m.Logger.Error("panic recovered", "panic", recovered, "path", c.FullPath(), "request_id", c.GetString("request_id"))
		}
		c.AbortWithStatusJSON(500, gin.H{"code": "internal", "error": "Terjadi kesalahan server"})
	})
}

type requestIDKey struct{}

func RequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDKey{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
