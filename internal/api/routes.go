package api

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewApp builds the fiber app with panic recovery and access logging to accessLog.
// A nil accessLog disables access logging.
func NewApp(accessLog io.Writer) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "safety-chat",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	if accessLog != nil {
		app.Use(logger.New(logger.Config{Output: accessLog}))
	}
	return app
}

func RegisterRoutes(app *fiber.App, h *Handler, gatherer prometheus.Gatherer) {
	app.Get("/health", h.Health)
	app.Get("/backend/health", h.BackendHealth)
	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	app.Get("/", h.Session, h.Page)
	app.Get("/chat", h.Session, h.Page)
	app.Post("/chat", h.Session, h.SubmitForm)

	api := app.Group("/api")
	api.Get("/state", h.Session, h.State)
	api.Post("/ask", h.Session, h.Ask)

	app.Get("/*", h.Home)
}
