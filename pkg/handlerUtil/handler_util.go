// Package handlerUtil centralizes HTTP error mapping so every handler
// reports failures the same way.
package handlerUtil

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"

	"palm-reader/internal/detect"
	"palm-reader/internal/store"
	"palm-reader/pkg/response"
)

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle translates service errors into HTTP responses. Screening
// rejections keep their numeric codes so clients can guide the user to
// retake the photo; anything unrecognized becomes a plain 500.
func (h *ErrorHandler) Handle(ctx *fiber.Ctx, requestID string, err error, path string, operation string) error {
	fields := logrus.Fields{
		"request_id": requestID,
		"path":       path,
		"operation":  operation,
		"error":      err.Error(),
	}

	var respErr *response.Error
	if errors.As(err, &respErr) {
		h.logger.WithFields(fields).Warn("Request rejected")
		return ctx.Status(respErr.Code).JSON(fiber.Map{
			"error": respErr.Error(),
		})
	}

	if code := detect.Code(err); code != 0 {
		h.logger.WithFields(fields).WithField("code", code).Warn("Palm screening rejected the image")
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
			"code":  code,
		})
	}

	if errors.Is(err, store.ErrNotFound) {
		h.logger.WithFields(fields).Warn("Analysis not found")
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "analysis not found",
		})
	}

	h.logger.WithFields(fields).Error("Unhandled error")
	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "An unexpected error occurred",
	})
}

func (h *ErrorHandler) HandleValidationError(ctx *fiber.Ctx, requestID string, err error, path string) error {
	h.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"path":       path,
		"error":      err.Error(),
	}).Warn("Validation failed")

	return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Validation failed: " + err.Error(),
		"code":  "VALIDATION_ERROR",
	})
}

func (h *ErrorHandler) HandleRequestTimeout(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusRequestTimeout).JSON(fiber.Map{
		"error": utils.StatusMessage(fiber.StatusRequestTimeout),
	})
}

func (h *ErrorHandler) HandleSuccess(ctx *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return ctx.SendStatus(statusCode)
	}
	return ctx.Status(statusCode).JSON(data)
}
