package reminder

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dosetrack/dosetrack/internal/metrics"
)

// Scheduler orchestrates (re)generation, deduplication, and pruning of
// future occurrences when a rule is created, edited, paused, or canceled.
//
// Notifier calls are fire-and-forget: delivery is best-effort, state truth
// lives in the store.
type Scheduler struct {
	store    *Store
	notifier Notifier
	logger   *zap.Logger

	horizonDays int
}

// NewScheduler creates a scheduler writing through store and informing
// notifier of alert changes.
func NewScheduler(store *Store, notifier Notifier, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		store:       store,
		notifier:    notifier,
		logger:      logger,
		horizonDays: DefaultHorizonDays,
	}
}

// WithHorizon overrides the generation horizon
func (s *Scheduler) WithHorizon(days int) *Scheduler {
	if days > 0 {
		s.horizonDays = days
	}
	return s
}

// ApplyRule replaces the medicine's future schedule with one generated from
// rule. Not-yet-due entries are cleared and regenerated; past and terminal
// entries are untouched. Inactive rules (disabled/paused) park the future
// schedule instead of regenerating it.
func (s *Scheduler) ApplyRule(med MedicineInfo, rule DosingRule, now time.Time) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	if !rule.Enabled || rule.Paused {
		return s.pauseFuture(med.ID, now)
	}

	// Cancel-then-regenerate, in that order, so a missed or taken
	// occurrence can never be resurrected as scheduled.
	cleared, err := s.store.DeleteFuture(med.ID, now)
	if err != nil {
		return fmt.Errorf("failed to clear future occurrences: %w", err)
	}
	for _, occ := range cleared {
		s.cancelAlert(occ.ID)
	}

	occs, err := Generate(med.ID, rule, now, s.horizonDays)
	if err != nil {
		return err
	}
	if err := s.store.UpsertOccurrences(occs); err != nil {
		return fmt.Errorf("failed to store occurrences: %w", err)
	}
	metrics.OccurrencesGenerated.Add(float64(len(occs)))

	for _, occ := range occs {
		s.requestAlert(med, occ)
	}

	s.logger.Info("Applied dosing rule",
		zap.String("medicine_id", med.ID),
		zap.String("mode", string(rule.Mode)),
		zap.Int("cleared", len(cleared)),
		zap.Int("generated", len(occs)),
	)

	return nil
}

// Pause parks the medicine's future scheduled/snoozed occurrences without
// deleting them, preserving the record for history continuity.
func (s *Scheduler) Pause(medicineID string, now time.Time) error {
	return s.pauseFuture(medicineID, now)
}

// Resume flips the medicine's future paused occurrences back to scheduled
// and re-arms their alerts, then regenerates to fill the horizon.
func (s *Scheduler) Resume(med MedicineInfo, rule DosingRule, now time.Time) error {
	paused, err := s.store.ListPausedFuture(med.ID, now)
	if err != nil {
		return fmt.Errorf("failed to list paused occurrences: %w", err)
	}

	for i := range paused {
		paused[i].Status = StatusScheduled
		if err := s.store.Update(&paused[i]); err != nil {
			return fmt.Errorf("failed to resume occurrence: %w", err)
		}
		s.requestAlert(med, paused[i])
	}

	// Top up the horizon; dedup by id makes re-covering resumed slots safe.
	occs, err := Generate(med.ID, rule, now, s.horizonDays)
	if err != nil {
		return err
	}
	if err := s.store.UpsertOccurrences(occs); err != nil {
		return fmt.Errorf("failed to store occurrences: %w", err)
	}

	s.logger.Info("Resumed medicine reminders",
		zap.String("medicine_id", med.ID),
		zap.Int("resumed", len(paused)),
	)
	return nil
}

// DeleteAll hard-deletes every occurrence for the medicine and cancels all
// pending alerts. The intake log is retained as the historical record.
func (s *Scheduler) DeleteAll(medicineID string) error {
	occs, err := s.store.DeleteAll(medicineID)
	if err != nil {
		return fmt.Errorf("failed to delete occurrences: %w", err)
	}
	for _, occ := range occs {
		if occ.Actionable() {
			s.cancelAlert(occ.ID)
		}
	}

	s.logger.Info("Deleted medicine reminders",
		zap.String("medicine_id", medicineID),
		zap.Int("deleted", len(occs)),
	)
	return nil
}

func (s *Scheduler) pauseFuture(medicineID string, now time.Time) error {
	pending, err := s.store.ListPending(medicineID, now)
	if err != nil {
		return fmt.Errorf("failed to list pending occurrences: %w", err)
	}

	for i := range pending {
		pending[i].Status = StatusPaused
		if err := s.store.Update(&pending[i]); err != nil {
			return fmt.Errorf("failed to pause occurrence: %w", err)
		}
		s.cancelAlert(pending[i].ID)
	}

	s.logger.Info("Paused medicine reminders",
		zap.String("medicine_id", medicineID),
		zap.Int("paused", len(pending)),
	)
	return nil
}

func (s *Scheduler) requestAlert(med MedicineInfo, occ Occurrence) {
	if s.notifier == nil {
		return
	}
	title, body := AlertText(med.Name, occ)
	if _, err := s.notifier.RequestAlert(occ.ID, occ.ScheduledAt, title, body); err != nil {
		metrics.NotifierFailures.Inc()
		s.logger.Warn("Notifier request failed",
			zap.String("occurrence_id", occ.ID),
			zap.Error(err),
		)
		return
	}
	metrics.AlertsRequested.Inc()
}

func (s *Scheduler) cancelAlert(occurrenceID string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.CancelAlert(occurrenceID); err != nil {
		metrics.NotifierFailures.Inc()
		s.logger.Warn("Notifier cancel failed",
			zap.String("occurrence_id", occurrenceID),
			zap.Error(err),
		)
		return
	}
	metrics.AlertsCanceled.Inc()
}

// AlertText builds the notification title and body for an occurrence.
func AlertText(medicineName string, occ Occurrence) (title, body string) {
	title = "Medication reminder"
	body = fmt.Sprintf("Time to take %s: %g %s", medicineName, occ.DoseAmount, occ.DoseUnit)
	switch occ.MealTag {
	case BeforeMeal:
		body += " (before a meal)"
	case AfterMeal:
		body += " (after a meal)"
	case Bedtime:
		body += " (at bedtime)"
	}
	return title, body
}
