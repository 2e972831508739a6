// Package api exposes the HTTP surface consumed by the submission-form
// UI and the payment provider's webhook.
package api

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"go.uber.org/zap"

	"github.com/dineshxr/submithunt/pkg/core/scheduling"
	"github.com/dineshxr/submithunt/pkg/db"
)

// Server wires the slot allocator and submission store behind HTTP
// handlers. Handlers stay thin; all decisions live in the core
// packages.
type Server struct {
	app       *fiber.App
	allocator *scheduling.Allocator
	store     db.SubmissionStore
	logger    *zap.Logger
	now       func() time.Time
}

// NewServer builds the fiber application and its routes
func NewServer(allocator *scheduling.Allocator, store db.SubmissionStore, logger *zap.Logger, allowedOrigin string) *Server {
	s := &Server{
		allocator: allocator,
		store:     store,
		logger:    logger,
		now:       time.Now,
	}

	app := fiber.New(fiber.Config{
		ServerHeader: "SubmitHunt",
		AppName:      "SubmitHunt API",
	})
	app.Use(fiberlogger.New())

	origins := []string{allowedOrigin}
	if allowedOrigin == "" {
		origins = []string{"*"}
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	app.Get("/api/health", s.handleHealth)
	app.Get("/api/availability", s.handleAvailability)
	app.Get("/api/launch-dates", s.handleLaunchDates)
	app.Get("/api/submissions/:slug", s.handleGetSubmission)
	app.Post("/api/submissions", s.handleCreateSubmission)
	app.Post("/api/webhooks/payment", s.handlePaymentWebhook)

	s.app = app
	return s
}

// App returns the underlying fiber application, used by tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving HTTP on addr
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}
