package handlers

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// Check tests one dependency
type Check func(ctx context.Context) error

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db        Check
	extra     map[string]Check
	startTime time.Time
	version   string
}

// NewHealthHandler creates a new health handler. db backs every check;
// extra checks only affect readiness.
func NewHealthHandler(db Check, version string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		extra:     make(map[string]Check),
		startTime: time.Now(),
		version:   version,
	}
}

// WithCheck adds a named readiness check
func (h *HealthHandler) WithCheck(name string, check Check) *HealthHandler {
	h.extra[name] = check
	return h
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version,omitempty"`
	Uptime    string            `json:"uptime,omitempty"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Liveness returns simple alive status (for k8s liveness checks)
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness returns detailed health status (for k8s readiness checks)
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	checkOne := func(name string, check Check) {
		if err := check(ctx); err != nil {
			checks[name] = "unhealthy: " + err.Error()
			allHealthy = false
			return
		}
		checks[name] = "healthy"
	}
	checkOne("database", h.db)
	for name, check := range h.extra {
		checkOne(name, check)
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	checks["memory_alloc_mb"] = formatMB(m.Alloc)

	status := "healthy"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, HealthResponse{
		Status:    status,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

// Health is a combined endpoint for basic health checks
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.db(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "database unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.version,
	})
}

func formatMB(bytes uint64) string {
	mb := float64(bytes) / 1024 / 1024
	return fmt.Sprintf("%.2f", mb)
}
