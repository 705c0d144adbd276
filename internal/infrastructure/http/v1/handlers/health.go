package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"recipecost/internal/infrastructure/storage/postgres"
)

// DatabaseChecker pings the database and reports pool usage.
type DatabaseChecker interface {
	Check(ctx context.Context) (postgres.PoolStats, error)
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	db      DatabaseChecker
	version string
}

// NewHealthHandler creates a new health handler.
// A nil db means the service runs on the in-memory store.
func NewHealthHandler(db DatabaseChecker, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

func (h *HealthHandler) storage() string {
	if h.db == nil {
		return "memory"
	}
	return "postgres"
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness probe (is the service ready to accept traffic?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"checks": map[string]string{"database": "disabled"},
		})
		return
	}

	if _, err := h.db.Check(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{
				"database": "unhealthy: " + err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"database": "healthy",
		},
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	body := gin.H{
		"app":     "recipecost",
		"version": h.version,
		"storage": h.storage(),
	}
	if h.db != nil {
		if stats, err := h.db.Check(c.Request.Context()); err == nil {
			body["database"] = stats
		}
	}
	c.JSON(http.StatusOK, body)
}
