package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// Set groups the handlers mounted under /api/v1. Nil members leave their
// routes unregistered.
type Set struct {
	IPO         *IPOHandler
	GMP         *GMPHandler
	Transform   *TransformHandler
	Check       *CheckHandler
	Market      *MarketHandler
	Cache       *CacheHandler
	Admin       *AdminHandler
	Performance *PerformanceHandler
}

// RegisterRoutes mounts the API routes on app.
func RegisterRoutes(app fiber.Router, set Set) {
	api := app.Group("/api/v1")

	if set.IPO != nil {
		api.Get("/ipos", set.IPO.GetIPOs)
		api.Get("/ipos/buckets", set.IPO.GetBuckets)
	}
	if set.GMP != nil {
		api.Get("/ipos/:id/gmp/history", set.GMP.GetGMPHistory)
	}
	if set.IPO != nil {
		api.Get("/ipos/:id", set.IPO.GetIPOByID)
	}

	if set.Transform != nil {
		api.Post("/transform/v1", set.Transform.TransformV1)
		api.Post("/transform/v2", set.Transform.TransformV2)
	}

	if set.Check != nil {
		api.Post("/allotment/normalize", set.Check.NormalizeAllotment)
		api.Post("/allotment/check", set.Check.CheckAllotment)
	}

	if set.Market != nil {
		api.Get("/market/indices", set.Market.GetMarketIndices)
	}

	if set.Cache != nil {
		api.Get("/cache/stats", set.Cache.GetStats)
		api.Delete("/cache", set.Cache.ClearCache)
	}

	if set.Admin != nil {
		// TODO: Add auth middleware
		admin := api.Group("/admin")
		admin.Post("/refresh", set.Admin.TriggerRefresh)
	}

	if set.Performance != nil {
		api.Get("/metrics", set.Performance.GetMetrics)
	}
}
