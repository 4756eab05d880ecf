package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health reports liveness plus the state of optional dependencies. A failing
// optional service degrades the status but never fails the check.
// GET /health
func (h *Handlers) Health(c *gin.Context) {
	status := "ok"
	services := map[string]string{}
	if h.validator != nil {
		services = h.validator.Status(c.Request.Context())
		for _, s := range services {
			if s != "ok" {
				status = "degraded"
			}
		}
	}

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		services["database"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "services": services})
		return
	}
	services["database"] = "ok"

	body := gin.H{
		"status":    status,
		"timestamp": h.now().UTC(),
		"service":   "sprinta-backend",
		"services":  services,
	}
	if h.search != nil {
		body["search"] = gin.H{
			"indexEnabled": h.search.IndexEnabled(),
			"breaker":      h.search.BreakerState(),
		}
	}
	if h.hub != nil {
		body["realtime"] = gin.H{
			"stats":   h.hub.Stats(),
			"metrics": h.hub.GetMetrics(),
		}
	}
	c.JSON(http.StatusOK, body)
}
