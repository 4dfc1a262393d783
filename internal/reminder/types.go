package reminder

import (
	"time"
)

// Mode selects how occurrences are generated from a dosing rule
type Mode string

const (
	ModeFixedTimes    Mode = "fixed_times"
	ModeTimesPerDay   Mode = "times_per_day"
	ModeIntervalHours Mode = "interval_hours"
	ModeAsNeeded      Mode = "as_needed"
)

// Status is the lifecycle state of an occurrence
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusTaken     Status = "taken"
	StatusMissed    Status = "missed"
	StatusSnoozed   Status = "snoozed"
	StatusPaused    Status = "paused"
)

// MealTag is display guidance only; it has no scheduling effect
type MealTag string

const (
	MealNone   MealTag = "none"
	BeforeMeal MealTag = "before_meal"
	AfterMeal  MealTag = "after_meal"
	Bedtime    MealTag = "bedtime"
)

// Action is what happened to an occurrence, as recorded in the intake log
type Action string

const (
	ActionTaken   Action = "taken"
	ActionSnoozed Action = "snoozed"
	ActionMissed  Action = "missed"
)

// Source records who triggered an intake action
type Source string

const (
	SourceApp          Source = "app"
	SourceNotification Source = "notification"
	SourceSystem       Source = "system"
)

// DosingRule describes how often and when a medication is taken.
// It is an immutable value; editing a medication replaces the rule wholesale.
type DosingRule struct {
	Mode Mode `json:"mode"`

	// FixedTimes
	Times []string `json:"times,omitempty"` // ["08:00", "20:00"]

	// TimesPerDay: N doses spread evenly across the window
	TimesPerDay int    `json:"times_per_day,omitempty"` // 1-12
	WindowStart string `json:"window_start,omitempty"`  // default 08:00
	WindowEnd   string `json:"window_end,omitempty"`    // default 20:00

	// IntervalHours
	IntervalHours int    `json:"interval_hours,omitempty"` // 1-24
	IntervalStart string `json:"interval_start,omitempty"` // HH:MM, default 08:00

	MealTag    MealTag `json:"meal_tag,omitempty"`
	DoseAmount float64 `json:"dose_amount"`
	DoseUnit   string  `json:"dose_unit"`

	// Local calendar dates bounding the course of therapy, inclusive
	StartDate string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   string `json:"end_date,omitempty"`   // YYYY-MM-DD, optional

	Enabled bool `json:"enabled"`
	Paused  bool `json:"paused"`
}

// Active reports whether the rule currently produces occurrences.
func (r DosingRule) Active() bool {
	return r.Enabled && !r.Paused && r.Mode != ModeAsNeeded
}

// Occurrence is one concrete scheduled instance of taking a medication.
// Its ID is derived from (medicine, scheduledAt) so regeneration is idempotent.
type Occurrence struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	MedicineID  string    `json:"medicine_id" gorm:"index"`
	ScheduledAt time.Time `json:"scheduled_at" gorm:"index"`
	Status      Status    `json:"status" gorm:"index"`
	SnoozeCount int       `json:"snooze_count"`

	// Denormalized from the rule at generation time so later edits
	// don't retroactively alter history display
	DoseAmount float64 `json:"dose_amount"`
	DoseUnit   string  `json:"dose_unit"`
	MealTag    MealTag `json:"meal_tag,omitempty"`

	TakenAt  *time.Time `json:"taken_at,omitempty"`
	MissedAt *time.Time `json:"missed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Actionable reports whether the occurrence can still be taken or snoozed.
func (o *Occurrence) Actionable() bool {
	return o.Status == StatusScheduled || o.Status == StatusSnoozed
}

// IntakeLogEntry is an append-only audit record of intake actions.
// The log is capped as a ring; oldest entries are trimmed past the cap.
type IntakeLogEntry struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	MedicineID    string    `json:"medicine_id" gorm:"index"`
	ReminderID    string    `json:"reminder_id" gorm:"index"`
	Action        Action    `json:"action"`
	At            time.Time `json:"at" gorm:"index"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	Source        Source    `json:"source"`
	SnoozeMinutes int       `json:"snooze_minutes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// MedicineInfo is the slice of a medication the engine needs for alert text.
type MedicineInfo struct {
	ID   string
	Name string
}

// MedicineSource resolves medicine ids. Implementations return (nil, nil)
// for unknown ids.
type MedicineSource interface {
	Info(id string) (*MedicineInfo, error)
	Rule(id string) (*DosingRule, error)
}

// Notifier arranges external alerts for occurrences. It is best-effort:
// the engine never fails an operation because a notifier call failed.
// The returned handle is stable per occurrence so a later cancel needs
// only the occurrence id.
type Notifier interface {
	RequestAlert(occurrenceID string, scheduledAt time.Time, title, body string) (string, error)
	CancelAlert(handle string) error
}

// DailyStat is one calendar day's adherence counts
type DailyStat struct {
	Date      string `json:"date"` // YYYY-MM-DD
	Scheduled int    `json:"scheduled"`
	Taken     int    `json:"taken"`
	Missed    int    `json:"missed"`
}

// Stats aggregates adherence over a day window
type Stats struct {
	MedicineID    string      `json:"medicine_id"`
	Days          int         `json:"days"`
	Scheduled     int         `json:"scheduled"`
	Taken         int         `json:"taken"`
	Missed        int         `json:"missed"`
	Snoozed       int         `json:"snoozed"`
	AdherenceRate float64     `json:"adherence_rate"`
	Daily         []DailyStat `json:"daily"`
	Summary       []string    `json:"summary,omitempty"`
}

// Event is emitted after state changes for live consumers (websocket feed)
type Event struct {
	Type        string    `json:"type"` // taken, snoozed, missed, rescheduled, paused, resumed, deleted
	MedicineID  string    `json:"medicine_id"`
	ReminderID  string    `json:"reminder_id,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at,omitempty"`
	At          time.Time `json:"at"`
}
