package server

import (
	"github.com/gofiber/fiber/v2"

	"support-copilot/internal/config"
	"support-copilot/internal/handler"
	"support-copilot/internal/pkg/logger"
)

// Server wraps the fiber app serving the ticket-analysis API.
type Server struct {
	app *fiber.App
	cfg *config.AppConfig
	log logger.Logger
}

// New assembles the fiber app and registers the routes.
func New(cfg *config.AppConfig, tickets *handler.TicketHandler, log logger.Logger) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             1 * 1024 * 1024,
		DisableStartupMessage: cfg.Server.Environment == "production",
	})

	app.Get("/", tickets.Root)
	app.Get("/health", tickets.Health)
	app.Post("/analyze", tickets.Analyze)

	return &Server{app: app, cfg: cfg, log: log}
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run blocks serving HTTP on the configured port.
func (s *Server) Run() error {
	s.log.Info("server", "listening", map[string]interface{}{"port": s.cfg.Server.Port})
	return s.app.Listen(":" + s.cfg.Server.Port)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
