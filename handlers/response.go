package handlers

import (
	"errors"

	"github.com/fenilmodi00/ipo-pipeline/jobs"
	"github.com/fenilmodi00/ipo-pipeline/services"
	"github.com/fenilmodi00/ipo-pipeline/shared"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// statusForError maps pipeline errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrIPONotFound):
		return fiber.StatusNotFound
	case shared.IsInvalidInput(err):
		return fiber.StatusBadRequest
	case errors.Is(err, shared.ErrUpstreamDisabled):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, services.ErrFormNotConfigured):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, jobs.ErrRefreshInProgress):
		return fiber.StatusConflict
	}

	var serviceErr *shared.ServiceError
	if errors.As(err, &serviceErr) && serviceErr.Category == shared.ErrorCategoryNetwork {
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

func errorResponse(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	if status >= fiber.StatusInternalServerError {
		var serviceErr *shared.ServiceError
		if errors.As(err, &serviceErr) {
			serviceErr.LogError()
		} else {
			logrus.WithFields(logrus.Fields{
				"path":   c.Path(),
				"status": status,
			}).WithError(err).Error("Request failed")
		}
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}
