// Package http is the presentation boundary: a fiber server exposing the
// controller's state, the aggregate report and the export table, plus the
// scope-changing operations.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"nostrlytics/internal/config"
	"nostrlytics/internal/keystore"
	"nostrlytics/internal/viewer"
)

// Server wires the HTTP surface to the controller and keystore. Scope
// changes triggered by requests attach subscriptions to the server's base
// context, not the request context, so they outlive the response.
type Server struct {
	app        *fiber.App
	controller *viewer.Controller
	keystore   *keystore.Keystore
	logger     *slog.Logger
	cfg        *config.Config
	baseCtx    context.Context
	loc        *time.Location
}

// NewServer builds the fiber app and registers all routes.
func NewServer(baseCtx context.Context, cfg *config.Config, logger *slog.Logger, controller *viewer.Controller, ks *keystore.Keystore) *Server {
	loc, err := cfg.Location()
	if err != nil {
		logger.Warn("falling back to UTC", slog.String("timezone", cfg.Timezone))
		loc = time.UTC
	}

	s := &Server{
		controller: controller,
		keystore:   ks,
		logger:     logger,
		cfg:        cfg,
		baseCtx:    baseCtx,
		loc:        loc,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})

	s.registerRoutes()
	return s
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until Shutdown is called.
func (s *Server) Listen() error {
	addr := fmt.Sprintf(":%s", s.cfg.GetPort())
	s.logger.Info("http server listening", slog.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) registerRoutes() {
	s.app.Get("/healthz", s.handleHealth)

	api := s.app.Group("/api/v1")
	api.Get("/report", s.handleReport)
	api.Get("/export.csv", s.handleExport)
	api.Get("/status", s.handleStatus)
	api.Put("/range", s.handleSetRange)
	api.Put("/account", s.handleSetAccount)
	api.Delete("/account", s.handleClearAccount)
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := http.StatusInternalServerError
	var fiberErr *fiber.Error
	if e, ok := err.(*fiber.Error); ok {
		fiberErr = e
		code = e.Code
	}

	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()))
	}

	message := http.StatusText(code)
	if fiberErr != nil {
		message = fiberErr.Message
	}
	return c.Status(code).JSON(fiber.Map{"error": message})
}
