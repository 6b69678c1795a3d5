package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"

	"github.com/Andrey-Khohlov/rollermap/internal/pkg/metrics"
)

// SetupRoutes registers the preview routes.
func SetupRoutes(app *fiber.App, deps *Dependencies, log *slog.Logger) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(requestid.New())
	app.Use(AccessLogMiddleware(log))

	// Security headers
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		return c.Next()
	})

	app.Get("/", MapHandler(deps))
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/layers", timeout.NewWithContext(LayersHandler(deps), 15*time.Second))
	v1.Get("/roadworks/:bucket", timeout.NewWithContext(RoadworksHandler(deps), 15*time.Second))
	v1.Get("/report", timeout.NewWithContext(ReportHandler(deps), 15*time.Second))
}
