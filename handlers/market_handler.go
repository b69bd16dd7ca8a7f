package handlers

import (
	"github.com/fenilmodi00/ipo-pipeline/services"
	"github.com/gofiber/fiber/v2"
)

type MarketHandler struct {
	Pipeline *services.IPOPipeline
}

func NewMarketHandler(pipeline *services.IPOPipeline) *MarketHandler {
	return &MarketHandler{Pipeline: pipeline}
}

// GetMarketIndices returns normalized market indices
func (h *MarketHandler) GetMarketIndices(c *fiber.Ctx) error {
	indices, stale, err := h.Pipeline.MarketIndices(c.Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    indices,
		"stale":   stale,
	})
}
