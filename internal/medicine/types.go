package medicine

import (
	"time"

	"github.com/dosetrack/dosetrack/internal/reminder"
)

// Medication represents a medication and its dosing rule
type Medication struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"index"`

	// Medication details
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Form        string `json:"form,omitempty"` // tablet, capsule, liquid, injection, etc.
	Notes       string `json:"notes,omitempty"`

	// Dosing rule, flattened into columns
	Mode          string   `json:"mode"`
	Times         []string `json:"times,omitempty" gorm:"-"` // ["08:00", "20:00"]
	TimesJSON     string   `json:"-" gorm:"type:text"`       // Serialized times
	TimesPerDay   int      `json:"times_per_day,omitempty"`
	WindowStart   string   `json:"window_start,omitempty"`
	WindowEnd     string   `json:"window_end,omitempty"`
	IntervalHours int      `json:"interval_hours,omitempty"`
	IntervalStart string   `json:"interval_start,omitempty"`
	MealTag       string   `json:"meal_tag,omitempty"`
	DoseAmount    float64  `json:"dose_amount"`
	DoseUnit      string   `json:"dose_unit"`
	StartDate     string   `json:"start_date,omitempty"`
	EndDate       string   `json:"end_date,omitempty"`
	Enabled       bool     `json:"enabled" gorm:"default:true"`
	Paused        bool     `json:"paused"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DosingRule converts the flattened columns back into the rule value type.
func (m *Medication) DosingRule() reminder.DosingRule {
	return reminder.DosingRule{
		Mode:          reminder.Mode(m.Mode),
		Times:         m.Times,
		TimesPerDay:   m.TimesPerDay,
		WindowStart:   m.WindowStart,
		WindowEnd:     m.WindowEnd,
		IntervalHours: m.IntervalHours,
		IntervalStart: m.IntervalStart,
		MealTag:       reminder.MealTag(m.MealTag),
		DoseAmount:    m.DoseAmount,
		DoseUnit:      m.DoseUnit,
		StartDate:     m.StartDate,
		EndDate:       m.EndDate,
		Enabled:       m.Enabled,
		Paused:        m.Paused,
	}
}

// SetDosingRule flattens rule onto the medication columns.
func (m *Medication) SetDosingRule(rule reminder.DosingRule) {
	m.Mode = string(rule.Mode)
	m.Times = rule.Times
	m.TimesPerDay = rule.TimesPerDay
	m.WindowStart = rule.WindowStart
	m.WindowEnd = rule.WindowEnd
	m.IntervalHours = rule.IntervalHours
	m.IntervalStart = rule.IntervalStart
	m.MealTag = string(rule.MealTag)
	m.DoseAmount = rule.DoseAmount
	m.DoseUnit = rule.DoseUnit
	m.StartDate = rule.StartDate
	m.EndDate = rule.EndDate
	m.Enabled = rule.Enabled
	m.Paused = rule.Paused
}
