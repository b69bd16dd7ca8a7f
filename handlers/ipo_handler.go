package handlers

import (
	"github.com/fenilmodi00/ipo-pipeline/services"
	"github.com/gofiber/fiber/v2"
)

type IPOHandler struct {
	Pipeline *services.IPOPipeline
}

func NewIPOHandler(pipeline *services.IPOPipeline) *IPOHandler {
	return &IPOHandler{Pipeline: pipeline}
}

// GetIPOs returns one filter bucket with status badges. Unknown filters
// fall back to ongoing.
func (h *IPOHandler) GetIPOs(c *fiber.Ctx) error {
	filter := c.Query("filter", services.FilterOngoing)
	items, stale, err := h.Pipeline.ListForFilter(c.Context(), filter)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    items,
		"count":   len(items),
		"stale":   stale,
	})
}

// GetBuckets returns all four filter buckets with their counts.
func (h *IPOHandler) GetBuckets(c *fiber.Ctx) error {
	view, err := h.Pipeline.View(c.Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			services.FilterOngoing:  services.WithStatusDisplay(view.Buckets.Ongoing, view.Now),
			services.FilterUpcoming: services.WithStatusDisplay(view.Buckets.Upcoming, view.Now),
			services.FilterAllotted: services.WithStatusDisplay(view.Buckets.Allotted, view.Now),
			services.FilterListed:   services.WithStatusDisplay(view.Buckets.Listed, view.Now),
		},
		"counts":     view.Buckets.Counts(),
		"stale":      view.Stale,
		"fetched_at": view.Snapshot.FetchedAt,
	})
}

func (h *IPOHandler) GetIPOByID(c *fiber.Ctx) error {
	item, err := h.Pipeline.Find(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    item,
	})
}
