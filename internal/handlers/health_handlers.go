package handlers

import (
	"context"
	"net/http"
	"time"

	"fixflow/internal/caching"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// HealthHandlers exposes liveness and readiness probes.
type HealthHandlers struct {
	pool     *pgxpool.Pool
	cacheSvc caching.CacheService
}

func NewHealthHandlers(pool *pgxpool.Pool, cacheSvc caching.CacheService) *HealthHandlers {
	return &HealthHandlers{pool: pool, cacheSvc: cacheSvc}
}

// Live reports that the process is up.
func (h *HealthHandlers) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Ready pings postgres and redis. A failed dependency returns 503 so
// the load balancer stops routing here.
func (h *HealthHandlers) Ready(c echo.Context) error {
	checks := map[string]string{"postgres": "ok", "redis": "ok"}
	status := http.StatusOK

	pingCtx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := h.pool.Ping(pingCtx); err != nil {
		checks["postgres"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if err := h.cacheSvc.Ping(pingCtx); err != nil {
		checks["redis"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	return c.JSON(status, checks)
}
