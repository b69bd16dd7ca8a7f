package handlers

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/fenilmodi00/ipo-pipeline/models"
	"github.com/fenilmodi00/ipo-pipeline/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var panPattern = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)

// RegistrarFormSource looks up an IPO's allotment form configuration.
type RegistrarFormSource interface {
	GetRegistrarForm(ctx context.Context, ipoID uuid.UUID) (*models.RegistrarForm, error)
}

// AllotmentRunner checks one PAN against a registrar form.
type AllotmentRunner interface {
	Check(ctx context.Context, form *models.RegistrarForm, pan string) (*models.AllotmentResult, error)
}

type CheckHandler struct {
	Forms   RegistrarFormSource
	Checker AllotmentRunner
	Cache   *services.EphemeralCache
	MaxAge  time.Duration
}

func NewCheckHandler(forms RegistrarFormSource, checker AllotmentRunner, cache *services.EphemeralCache, maxAge time.Duration) *CheckHandler {
	return &CheckHandler{
		Forms:   forms,
		Checker: checker,
		Cache:   cache,
		MaxAge:  maxAge,
	}
}

// AllotmentCacheKey namespaces a final allotment result in the cache.
func AllotmentCacheKey(ipoID uuid.UUID, panHash string) string {
	return "allotment:" + ipoID.String() + ":" + panHash
}

// NormalizeAllotment maps a raw registrar code to the canonical status.
func (h *CheckHandler) NormalizeAllotment(c *fiber.Ctx) error {
	type Request struct {
		Status string `json:"status"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"raw":    req.Status,
			"status": services.MapAllotmentStatus(req.Status),
		},
	})
}

func (h *CheckHandler) CheckAllotment(c *fiber.Ctx) error {
	type Request struct {
		IPOID string `json:"ipo_id"`
		PAN   string `json:"pan"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	ipoID, err := uuid.Parse(req.IPOID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid IPO ID format",
		})
	}
	pan := strings.ToUpper(strings.TrimSpace(req.PAN))
	if !panPattern.MatchString(pan) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid PAN format",
		})
	}

	if h.Forms == nil || h.Checker == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   "Allotment checks are not configured",
		})
	}

	key := AllotmentCacheKey(ipoID, services.HashPAN(pan))
	if h.Cache != nil {
		if cached, ok := h.Cache.ReadFresh(key, h.MaxAge); ok {
			return c.JSON(fiber.Map{
				"success": true,
				"data":    cached,
				"cached":  true,
			})
		}
	}

	form, err := h.Forms.GetRegistrarForm(c.Context(), ipoID)
	if err != nil {
		return errorResponse(c, err)
	}

	result, err := h.Checker.Check(c.Context(), form, pan)
	if err != nil {
		if !errors.Is(err, services.ErrFormNotConfigured) {
			logrus.WithFields(logrus.Fields{
				"component": "CheckHandler",
				"ipo_id":    ipoID,
			}).WithError(err).Warn("Allotment check failed")
		}
		return errorResponse(c, err)
	}

	// pending answers are worth re-asking on the next request
	if h.Cache != nil && result.Status != models.AllotmentPending {
		h.Cache.Write(key, result)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
		"cached":  false,
	})
}
