package handlers

import (
	"context"
	"time"

	"github.com/fenilmodi00/ipo-pipeline/jobs"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// RefreshRunner runs one refresh pass unless another one is in flight.
type RefreshRunner interface {
	TryRun(ctx context.Context) (*jobs.RefreshReport, error)
}

type AdminHandler struct {
	Refresher RefreshRunner
	Timeout   time.Duration
}

func NewAdminHandler(refresher RefreshRunner) *AdminHandler {
	return &AdminHandler{
		Refresher: refresher,
		Timeout:   2 * time.Minute,
	}
}

// TriggerRefresh manually runs the refresh job
func (h *AdminHandler) TriggerRefresh(c *fiber.Ctx) error {
	logrus.WithField("component", "AdminHandler").Info("Manual refresh triggered via admin endpoint")

	ctx, cancel := context.WithTimeout(context.Background(), h.Timeout)
	defer cancel()

	report, err := h.Refresher.TryRun(ctx)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "Refresh completed",
		"data":     report,
		"duration": report.Duration.String(),
	})
}
