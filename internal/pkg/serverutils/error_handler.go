package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/pkg/apperror"
)

// StatusFor maps an error to its HTTP status. Stage failures are upstream
// outages (503); configuration errors are server faults (500).
func StatusFor(err error) int {
	var (
		verr  *ValidationError
		ferr  *fiber.Error
		stage *apperror.StageError
	)
	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest
	case errors.As(err, &ferr):
		return ferr.Code
	case errors.As(err, &stage):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandlerMiddleware turns handler errors into JSON responses.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err == nil {
			return nil
		}

		code := StatusFor(err)
		details := map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
			"status": code,
			"error":  err,
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("http", "Request failed", details)
		} else {
			log.Warn("http", "Request rejected", details)
		}

		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			return c.Status(code).JSON(ErrorResponse(code, "Validation failed", verr.Fields))
		case apperror.IsConfig(err) && !apperror.IsStage(err):
			return c.Status(code).JSON(ErrorResponse(code, "Service misconfigured", err.Error()))
		case apperror.IsStage(err):
			return c.Status(code).JSON(ErrorResponse(code, "Upstream service unavailable", err.Error()))
		default:
			return c.Status(code).JSON(ErrorResponse(code, err.Error(), nil))
		}
	}
}
