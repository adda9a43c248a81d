package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const readinessTimeout = 2 * time.Second

// ReadinessCheck is one dependency probed by /readyz.
type ReadinessCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

func RegisterHealthRoutes(app fiber.Router, sqlDB *sql.DB, rdb *redis.Client) {
	app.Get("/livez", LivezHandler())
	app.Get("/readyz", ReadyzHandler(
		ReadinessCheck{Name: "postgres", Ping: sqlDB.PingContext},
		ReadinessCheck{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
	))
}

func LivezHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "ok",
		})
	}
}

// ReadyzHandler probes every check concurrently and reports 503 if any is down.
func ReadyzHandler(checks ...ReadinessCheck) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
		defer cancel()

		results := make([]error, len(checks))
		var g errgroup.Group
		for i, check := range checks {
			i, check := i, check
			g.Go(func() error {
				results[i] = check.Ping(ctx)
				return nil
			})
		}
		_ = g.Wait()

		status := "ready"
		statusCode := fiber.StatusOK
		report := fiber.Map{}
		for i, check := range checks {
			if results[i] != nil {
				report[check.Name] = "down"
				status = "not_ready"
				statusCode = fiber.StatusServiceUnavailable
				continue
			}
			report[check.Name] = "ok"
		}

		return c.Status(statusCode).JSON(fiber.Map{
			"status": status,
			"checks": report,
		})
	}
}
