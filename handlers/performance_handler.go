package handlers

import (
	"time"

	"github.com/fenilmodi00/ipo-pipeline/database"
	"github.com/fenilmodi00/ipo-pipeline/shared"
	"github.com/gofiber/fiber/v2"
)

// PerformanceHandler exposes service metrics and tracks request latency.
type PerformanceHandler struct {
	Services     []*shared.ServiceMetrics
	HTTP         *shared.HTTPMetrics
	Latency      *shared.PerformanceMetrics
	RateLimiters map[string]*shared.HTTPRequestRateLimiter
}

func NewPerformanceHandler(httpMetrics *shared.HTTPMetrics, services ...*shared.ServiceMetrics) *PerformanceHandler {
	return &PerformanceHandler{
		Services: services,
		HTTP:     httpMetrics,
		Latency:  shared.NewPerformanceMetrics(),
	}
}

// Track records the handling time of every request.
func (h *PerformanceHandler) Track() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		h.Latency.RecordProcessingTime(time.Since(start))
		return err
	}
}

// GetMetrics returns current performance metrics
func (h *PerformanceHandler) GetMetrics(c *fiber.Ctx) error {
	services := make([]shared.ServiceMetricsSnapshot, 0, len(h.Services))
	for _, m := range h.Services {
		if m != nil {
			services = append(services, m.GetSnapshot())
		}
	}

	metrics := fiber.Map{
		"services": services,
		"requests": h.Latency.GetPerformanceSnapshot(),
	}
	if h.HTTP != nil {
		metrics["upstream_http"] = h.HTTP.GetSnapshot()
	}
	if len(h.RateLimiters) > 0 {
		limited := make(map[string]int64, len(h.RateLimiters))
		for name, limiter := range h.RateLimiters {
			limited[name] = limiter.GetRequestCount()
		}
		metrics["rate_limited_requests"] = limited
	}
	if database.DB != nil {
		dbStats := database.GetConnectionStats()
		metrics["database_stats"] = fiber.Map{
			"open_connections": dbStats.OpenConnections,
			"in_use":           dbStats.InUse,
			"idle":             dbStats.Idle,
			"wait_count":       dbStats.WaitCount,
			"wait_duration_ms": dbStats.WaitDuration.Milliseconds(),
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    metrics,
	})
}
