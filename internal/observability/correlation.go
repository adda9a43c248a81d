package observability

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CorrelationMiddleware reuses the caller's X-Request-ID or mints one, echoes
// it on the response and stores it in the request's user context.
func CorrelationMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		correlationID := strings.TrimSpace(c.Get(fiber.HeaderXRequestID))
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		c.Set(fiber.HeaderXRequestID, correlationID)
		c.SetUserContext(WithCorrelationID(c.UserContext(), correlationID))
		return c.Next()
	}
}
