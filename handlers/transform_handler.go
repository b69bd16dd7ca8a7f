package handlers

import (
	"time"

	"github.com/fenilmodi00/ipo-pipeline/models"
	"github.com/fenilmodi00/ipo-pipeline/services"
	"github.com/gofiber/fiber/v2"
)

// TransformHandler runs the transformer over a posted raw IPO payload.
type TransformHandler struct {
	Now func() time.Time
}

func NewTransformHandler(now func() time.Time) *TransformHandler {
	if now == nil {
		now = time.Now
	}
	return &TransformHandler{Now: now}
}

func (h *TransformHandler) TransformV1(c *fiber.Ctx) error {
	return h.respond(c, services.DecodeIPOList(c.Body()))
}

func (h *TransformHandler) TransformV2(c *fiber.Ctx) error {
	return h.respond(c, services.DecodeIPOListV2(c.Body()))
}

// respond adds status badges when ?with_status=true.
func (h *TransformHandler) respond(c *fiber.Ctx, ipos []models.DisplayIPO) error {
	if c.QueryBool("with_status", false) {
		items := services.WithStatusDisplay(ipos, h.Now())
		return c.JSON(fiber.Map{
			"success": true,
			"data":    items,
			"count":   len(items),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    ipos,
		"count":   len(ipos),
	})
}
