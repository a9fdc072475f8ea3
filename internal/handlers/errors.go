package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// writeServiceError maps service sentinels to HTTP status codes. Server-side
// failures only expose the sentinel text.
func writeServiceError(c *fiber.Ctx, err error) error {
	status, message := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(),
			"request_id", requestID(c), "error", err.Error())
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrNotNearby):
		return fiber.StatusForbidden, services.ErrNotNearby.Error()
	case errors.Is(err, services.ErrUserNotFound):
		return fiber.StatusNotFound, services.ErrUserNotFound.Error()
	case errors.Is(err, services.ErrReportNotFound):
		return fiber.StatusNotFound, services.ErrReportNotFound.Error()
	case errors.Is(err, services.ErrAlreadyCollected):
		return fiber.StatusConflict, services.ErrAlreadyCollected.Error()
	case errors.Is(err, services.ErrMismatch):
		return fiber.StatusUnprocessableEntity, services.ErrMismatch.Error()
	case errors.Is(err, services.ErrUpload):
		return fiber.StatusInternalServerError, services.ErrUpload.Error()
	case errors.Is(err, services.ErrClassifier):
		return fiber.StatusInternalServerError, services.ErrClassifier.Error()
	case errors.Is(err, services.ErrClassificationParse):
		return fiber.StatusInternalServerError, services.ErrClassificationParse.Error()
	}
	return fiber.StatusInternalServerError, "Internal server error"
}

// outcome labels a workflow result for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, services.ErrValidation):
		return "invalid"
	case errors.Is(err, services.ErrNotNearby):
		return "not_nearby"
	case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrReportNotFound):
		return "not_found"
	case errors.Is(err, services.ErrAlreadyCollected):
		return "already_collected"
	case errors.Is(err, services.ErrMismatch):
		return "mismatch"
	case errors.Is(err, services.ErrUpload):
		return "upload_error"
	case errors.Is(err, services.ErrClassifier):
		return "classifier_error"
	case errors.Is(err, services.ErrClassificationParse):
		return "parse_error"
	}
	return "error"
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
