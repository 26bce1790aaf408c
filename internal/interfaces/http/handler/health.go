package handler

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/erp/ordersync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// HealthHandler reports liveness and dependency health
type HealthHandler struct {
	BaseHandler
	version     string
	lockBackend string
	checks      map[string]HealthCheck
	timeout     time.Duration
	startTime   time.Time
}

// NewHealthHandler creates a HealthHandler. lockBackend names the order lock
// in use ("redis" or "memory").
func NewHealthHandler(version, lockBackend string) *HealthHandler {
	return &HealthHandler{
		version:     version,
		lockBackend: lockBackend,
		checks:      make(map[string]HealthCheck),
		timeout:     3 * time.Second,
		startTime:   time.Now(),
	}
}

// AddCheck registers a dependency probe.
func (h *HealthHandler) AddCheck(name string, check HealthCheck) *HealthHandler {
	h.checks[name] = check
	return h
}

// Health runs every probe. Any failure answers 503.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := dto.HealthResponse{
		Status:      "ok",
		Version:     h.version,
		LockBackend: h.lockBackend,
		Checks:      make(map[string]string, len(names)),
	}
	status := http.StatusOK
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	c.JSON(status, dto.Response{Success: status == http.StatusOK, Data: resp})
}

// Ping answers liveness probes without touching dependencies.
func (h *HealthHandler) Ping(c *gin.Context) {
	h.Success(c, gin.H{
		"message":    "pong",
		"go_version": runtime.Version(),
		"uptime":     time.Since(h.startTime).Round(time.Second).String(),
	})
}
