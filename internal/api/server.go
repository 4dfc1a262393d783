package api

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/dosetrack/dosetrack/internal/config"
	"github.com/dosetrack/dosetrack/internal/medicine"
	"github.com/dosetrack/dosetrack/internal/reminder"
)

// Server exposes the reminder engine over HTTP and WebSocket
type Server struct {
	app     *fiber.App
	config  *config.Config
	meds    *medicine.Store
	service *reminder.Service
	hub     *Hub
	logger  *zap.Logger
}

// New creates a new API server
func New(cfg *config.Config, meds *medicine.Store, service *reminder.Service, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	})

	s := &Server{
		app:     app,
		config:  cfg,
		meds:    meds,
		service: service,
		hub:     NewHub(logger),
		logger:  logger,
	}

	// Live event feed for UI consumers
	service.SetEventCallback(s.hub.Broadcast)

	s.setupRoutes()
	return s
}

// Start begins serving
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Address, s.config.Server.Port)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.hub.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the fiber app for tests
func (s *Server) App() *fiber.App {
	return s.app
}
