package transport

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/opportunity-engine/internal/domain"
	"github.com/kursadbilgin/opportunity-engine/internal/observability"
	"go.uber.org/zap"
)

// ErrorHandler renders errors as {"error": message}. Errors that are not a
// *fiber.Error are logged in full and answered with a generic 500.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := domain.ErrUnknown.Error()

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			message = fiberErr.Message
		}

		log := observability.WithContextLogger(logger, c.UserContext())
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("request error", fields...)
		} else {
			log.Warn("request rejected", fields...)
		}

		return c.Status(code).JSON(fiber.Map{
			"error": message,
		})
	}
}
