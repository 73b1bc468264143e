package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

const version = "1.0.0"

// Pinger reports whether a backing service is reachable.
type Pinger func(ctx context.Context) error

// HealthCheck reports uptime and the state of each optional backend. A
// configured backend that does not answer degrades the status to 503.
func HealthCheck(checks map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := "ok"
		backends := gin.H{}
		for name, ping := range checks {
			if ping == nil {
				backends[name] = "disabled"
				continue
			}
			if err := ping(ctx); err != nil {
				backends[name] = "error: " + err.Error()
				status = "degraded"
				continue
			}
			backends[name] = "ok"
		}

		code := http.StatusOK
		if status != "ok" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":   status,
			"service":  "pong-server",
			"version":  version,
			"uptime":   time.Since(startTime).String(),
			"backends": backends,
		})
	}
}
