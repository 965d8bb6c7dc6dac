package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/vaultvoice-backend/internal/observability"
)

// unmetered paths are probes and scrapes; counting them drowns the turn traffic.
var unmetered = map[string]bool{
	"/healthcheck": true,
	"/metrics":     true,
}

func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil || unmetered[c.Request.URL.Path] {
			c.Next()
			return
		}
		start := time.Now()
		m.ApiInflightInc()
		c.Next()
		m.ApiInflightDec()

		route := c.FullPath()
		if route == "" {
			// Unmatched paths share one series so scanners cannot grow the label set.
			route = "unmatched"
		}
		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
