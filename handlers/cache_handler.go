package handlers

import (
	"github.com/fenilmodi00/ipo-pipeline/services"
	"github.com/gofiber/fiber/v2"
)

type CacheHandler struct {
	Cache *services.EphemeralCache
}

func NewCacheHandler(cache *services.EphemeralCache) *CacheHandler {
	return &CacheHandler{Cache: cache}
}

func (h *CacheHandler) GetStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"size":    h.Cache.Size(),
			"entries": h.Cache.Describe(),
		},
	})
}

// ClearCache drops the entry named by ?key=, or every entry.
func (h *CacheHandler) ClearCache(c *fiber.Ctx) error {
	if key := c.Query("key"); key != "" {
		h.Cache.Delete(key)
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Cache entry removed",
		})
	}

	h.Cache.Clear()
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Cache cleared",
	})
}
