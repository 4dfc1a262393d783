package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/dosetrack/dosetrack/internal/metrics"
)

func (s *Server) setupRoutes() {
	s.app.Use(recover.New())
	s.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	s.app.Use(func(c *fiber.Ctx) error {
		err := c.Next()
		metrics.HTTPRequests.WithLabelValues(
			c.Method(),
			c.Route().Path,
			strconv.Itoa(c.Response().StatusCode()),
		).Inc()
		return err
	})
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(s.config.Security.AllowOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	s.app.Get("/api/health", s.handleHealth)
	s.app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := s.app.Group("/api")

	api.Post("/auth/login", s.handleLogin)

	protected := api.Use(s.authMiddleware())

	protected.Get("/medicines", s.handleListMedicines)
	protected.Post("/medicines", s.handleCreateMedicine)
	protected.Get("/medicines/:id", s.handleGetMedicine)
	protected.Put("/medicines/:id", s.handleUpdateMedicine)
	protected.Delete("/medicines/:id", s.handleDeleteMedicine)

	protected.Post("/medicines/:id/rule", s.handleApplyRule)
	protected.Post("/medicines/:id/pause", s.handlePauseResume)
	protected.Get("/medicines/:id/today", s.handleTodayOccurrences)
	protected.Post("/medicines/:id/occurrences/:occID/taken", s.handleMarkTaken)
	protected.Post("/medicines/:id/occurrences/:occID/snooze", s.handleSnooze)
	protected.Get("/medicines/:id/adherence", s.handleAdherence)

	protected.Get("/intake-log", s.handleIntakeLog)

	s.app.Get("/api/ws/events", websocket.New(s.handleEvents))
}
