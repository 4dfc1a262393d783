package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	apperrors "github.com/dosetrack/dosetrack/internal/errors"
	"github.com/dosetrack/dosetrack/internal/medicine"
	"github.com/dosetrack/dosetrack/internal/reminder"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"version":   "0.1.0",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req struct {
		Password string `json:"password"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	if s.config.Security.AdminPassword == "" || req.Password != s.config.Security.AdminPassword {
		return c.Status(401).JSON(fiber.Map{"error": "invalid credentials"})
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "default",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(7 * 24 * time.Hour).Unix(),
	})

	tokenString, err := token.SignedString([]byte(s.config.Security.JWTSecret))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to generate token"})
	}

	return c.JSON(fiber.Map{"token": tokenString})
}

func (s *Server) handleListMedicines(c *fiber.Ctx) error {
	meds, err := s.meds.List(c.Query("user_id"))
	if err != nil {
		s.logger.Error("Failed to list medicines", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to list medicines"})
	}
	return c.JSON(meds)
}

func (s *Server) handleCreateMedicine(c *fiber.Ctx) error {
	var req CreateMedicineRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}
	if req.Name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}
	if err := req.Rule.Validate(); err != nil {
		return validationError(c, err)
	}

	med := &medicine.Medication{
		UserID:      req.UserID,
		Name:        req.Name,
		Description: req.Description,
		Form:        req.Form,
		Notes:       req.Notes,
	}
	med.SetDosingRule(req.Rule)

	if err := s.meds.Create(med); err != nil {
		s.logger.Error("Failed to create medicine", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to create medicine"})
	}

	if err := s.service.ApplyDosingRule(med.ID, req.Rule); err != nil {
		s.logger.Error("Failed to schedule reminders", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "medicine created but scheduling failed"})
	}

	return c.Status(201).JSON(med)
}

func (s *Server) handleGetMedicine(c *fiber.Ctx) error {
	med, err := s.meds.Get(c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to get medicine"})
	}
	if med == nil {
		return c.Status(404).JSON(fiber.Map{"error": "medicine not found"})
	}
	return c.JSON(med)
}

func (s *Server) handleUpdateMedicine(c *fiber.Ctx) error {
	med, err := s.meds.Get(c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to get medicine"})
	}
	if med == nil {
		return c.Status(404).JSON(fiber.Map{"error": "medicine not found"})
	}

	var req UpdateMedicineRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}
	if err := req.Rule.Validate(); err != nil {
		return validationError(c, err)
	}

	if req.Name != "" {
		med.Name = req.Name
	}
	med.Description = req.Description
	med.Form = req.Form
	med.Notes = req.Notes
	med.SetDosingRule(req.Rule)

	if err := s.meds.Update(med); err != nil {
		s.logger.Error("Failed to update medicine", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to update medicine"})
	}

	// Rule replacement cascades into cancel-then-regenerate
	if err := s.service.ApplyDosingRule(med.ID, req.Rule); err != nil {
		s.logger.Error("Failed to reschedule reminders", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "medicine updated but rescheduling failed"})
	}

	return c.JSON(med)
}

func (s *Server) handleDeleteMedicine(c *fiber.Ctx) error {
	id := c.Params("id")

	med, err := s.meds.Get(id)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to get medicine"})
	}
	if med == nil {
		return c.Status(404).JSON(fiber.Map{"error": "medicine not found"})
	}

	if err := s.service.DeleteMedicineReminders(id); err != nil {
		s.logger.Error("Failed to delete reminders", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete reminders"})
	}
	if err := s.meds.Delete(id); err != nil {
		s.logger.Error("Failed to delete medicine", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete medicine"})
	}

	return c.SendStatus(204)
}

func (s *Server) handleApplyRule(c *fiber.Ctx) error {
	id := c.Params("id")

	var rule reminder.DosingRule
	if err := c.BodyParser(&rule); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}
	if err := rule.Validate(); err != nil {
		return validationError(c, err)
	}

	med, err := s.meds.Get(id)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to get medicine"})
	}
	if med == nil {
		return c.Status(404).JSON(fiber.Map{"error": "medicine not found"})
	}

	// The stored rule is the source of truth; persist it before touching
	// the schedule so the two cannot disagree after a partial failure.
	med.SetDosingRule(rule)
	if err := s.meds.Update(med); err != nil {
		s.logger.Error("Failed to persist rule", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to persist rule"})
	}

	if err := s.service.ApplyDosingRule(id, rule); err != nil {
		s.logger.Error("Failed to reschedule reminders", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "rule saved but rescheduling failed"})
	}

	return c.JSON(med)
}

func (s *Server) handlePauseResume(c *fiber.Ctx) error {
	id := c.Params("id")

	var req PauseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	med, err := s.meds.Get(id)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to get medicine"})
	}
	if med == nil {
		return c.Status(404).JSON(fiber.Map{"error": "medicine not found"})
	}

	med.Paused = req.Paused
	if err := s.meds.Update(med); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update medicine"})
	}

	if err := s.service.PauseOrResume(id, req.Paused); err != nil {
		s.logger.Error("Failed to pause/resume", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to update reminders"})
	}

	return c.JSON(fiber.Map{"paused": req.Paused})
}

func (s *Server) handleTodayOccurrences(c *fiber.Ctx) error {
	occs, err := s.service.GetTodayOccurrences(c.Params("id"))
	if err != nil {
		s.logger.Error("Failed to get today's occurrences", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to get occurrences"})
	}
	return c.JSON(occs)
}

func (s *Server) handleMarkTaken(c *fiber.Ctx) error {
	updated, err := s.service.MarkTaken(c.Params("id"), c.Params("occID"), reminder.SourceApp)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(404).JSON(fiber.Map{"error": "occurrence not found"})
		}
		s.logger.Error("Failed to mark taken", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to mark taken"})
	}

	// updated=false is the idempotent no-op case, still a 200
	return c.JSON(MarkTakenResponse{Updated: updated, Status: string(reminder.StatusTaken)})
}

func (s *Server) handleSnooze(c *fiber.Ctx) error {
	var req SnoozeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	occ, err := s.service.Snooze(c.Params("id"), c.Params("occID"), req.Minutes, reminder.SourceApp)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return c.Status(404).JSON(fiber.Map{"error": "occurrence not found"})
		}
		if apperrors.IsValidation(err) || apperrors.GetCode(err) == apperrors.ErrBadRequest.Code {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		s.logger.Error("Failed to snooze", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to snooze"})
	}

	return c.JSON(occ)
}

func (s *Server) handleAdherence(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)

	stats, err := s.service.GetAdherenceStats(c.Params("id"), days)
	if err != nil {
		s.logger.Error("Failed to compute adherence", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to compute adherence"})
	}
	return c.JSON(stats)
}

func (s *Server) handleIntakeLog(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)

	entries, err := s.service.GetIntakeLog(c.Query("medicine_id"), limit)
	if err != nil {
		s.logger.Error("Failed to list intake log", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to list intake log"})
	}
	return c.JSON(entries)
}

func validationError(c *fiber.Ctx, err error) error {
	return c.Status(400).JSON(fiber.Map{
		"error": err.Error(),
		"code":  apperrors.GetCode(err),
	})
}
