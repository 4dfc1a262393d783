package api

import (
	"github.com/dosetrack/dosetrack/internal/reminder"
)

// CreateMedicineRequest creates a medication together with its dosing rule.
type CreateMedicineRequest struct {
	UserID      string              `json:"user_id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Form        string              `json:"form"`
	Notes       string              `json:"notes"`
	Rule        reminder.DosingRule `json:"rule"`
}

// UpdateMedicineRequest replaces medication details and its rule wholesale.
type UpdateMedicineRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Form        string              `json:"form"`
	Notes       string              `json:"notes"`
	Rule        reminder.DosingRule `json:"rule"`
}

// PauseRequest toggles the paused state of a medicine's reminders.
type PauseRequest struct {
	Paused bool `json:"paused"`
}

// SnoozeRequest pushes an occurrence out by Minutes (0 = engine default).
type SnoozeRequest struct {
	Minutes int `json:"minutes"`
}

// MarkTakenResponse distinguishes a real transition from an idempotent no-op.
type MarkTakenResponse struct {
	Updated bool   `json:"updated"`
	Status  string `json:"status"`
}
