package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/vaultvoice-backend/internal/platform/ctxutil"
	"github.com/yungbote/vaultvoice-backend/internal/platform/logger"
)

// AgentKey is the gin context key turn handlers set to the routed agent id.
const AgentKey = "agent_id"

// RequestLogger writes one line per request. Probes log at debug; turns carry
// the agent that answered so routing drift shows up in plain logs.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if log == nil {
			return
		}

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			fields = append(fields, "trace_id", td.TraceID, "request_id", td.RequestID)
		}
		if userID := ctxutil.UserID(c.Request.Context()); userID != "" {
			fields = append(fields, "user_id", userID)
		}
		if agent := c.GetString(AgentKey); agent != "" {
			fields = append(fields, "agent", agent)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("http request", fields...)
		case status >= 400:
			log.Warn("http request", fields...)
		case unmetered[c.Request.URL.Path]:
			log.Debug("http request", fields...)
		default:
			log.Info("http request", fields...)
		}
	}
}
