package handlers

import (
	"strings"

	"github.com/fenilmodi00/ipo-pipeline/services"
	"github.com/gofiber/fiber/v2"
)

type GMPHandler struct {
	Loader *services.GMPHistoryLoader
}

func NewGMPHandler(loader *services.GMPHistoryLoader) *GMPHandler {
	return &GMPHandler{Loader: loader}
}

// GetGMPHistory returns the normalized GMP history of one stock id. A
// cached history past its max age is served with stale=true while a
// refresh runs in the background.
func (h *GMPHandler) GetGMPHistory(c *fiber.Ctx) error {
	stockID := strings.TrimSpace(c.Params("id"))
	if stockID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Missing stock id",
		})
	}

	result, err := h.Loader.Get(c.Context(), stockID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    result.Points,
		"count":   len(result.Points),
		"stale":   result.Stale,
	})
}
