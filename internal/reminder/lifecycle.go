package reminder

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dosetrack/dosetrack/internal/metrics"
)

// DefaultGraceMinutes is how long past its slot an occurrence may sit
// before reconciliation flips it to missed.
const DefaultGraceMinutes = 60

// Lifecycle drives occurrences through their state machine:
//
//	scheduled -> taken | snoozed | missed | paused
//	snoozed   -> taken | snoozed | missed
//	paused    -> scheduled (rule re-enable, via the scheduler)
//
// taken and missed are terminal.
type Lifecycle struct {
	store    *Store
	notifier Notifier
	meds     MedicineSource
	logger   *zap.Logger
}

// NewLifecycle creates the occurrence state machine operations.
func NewLifecycle(store *Store, notifier Notifier, meds MedicineSource, logger *zap.Logger) *Lifecycle {
	return &Lifecycle{
		store:    store,
		notifier: notifier,
		meds:     meds,
		logger:   logger,
	}
}

// MarkTaken transitions an occurrence to taken and records the intake.
// It is idempotent: marking an already-terminal occurrence reports
// (false, nil), a no-op rather than an error, so double taps are harmless.
// An unknown id reports (false, error) with a not-found code.
func (l *Lifecycle) MarkTaken(medicineID, reminderID string, now time.Time, source Source) (bool, error) {
	occ, err := l.store.Get(medicineID, reminderID)
	if err != nil {
		return false, fmt.Errorf("failed to load occurrence: %w", err)
	}
	if occ == nil {
		return false, notFoundOccurrence(reminderID)
	}
	if !occ.Actionable() {
		return false, nil
	}

	occ.Status = StatusTaken
	takenAt := now
	occ.TakenAt = &takenAt
	if err := l.store.Update(occ); err != nil {
		return false, fmt.Errorf("failed to update occurrence: %w", err)
	}

	l.cancelAlert(occ.ID)
	l.appendLog(&IntakeLogEntry{
		MedicineID:  medicineID,
		ReminderID:  reminderID,
		Action:      ActionTaken,
		At:          now,
		ScheduledAt: occ.ScheduledAt,
		Source:      source,
	})
	metrics.IntakeTaken.Inc()

	l.logger.Info("Marked occurrence taken",
		zap.String("medicine_id", medicineID),
		zap.String("occurrence_id", reminderID),
	)
	return true, nil
}

// Snooze reschedules an occurrence in place to now+minutes. The id stays
// constant so adherence accounting still counts the slot once.
func (l *Lifecycle) Snooze(medicineID, reminderID string, minutes int, now time.Time, source Source) (*Occurrence, error) {
	if minutes <= 0 {
		return nil, snoozeMinutesErr()
	}

	occ, err := l.store.Get(medicineID, reminderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load occurrence: %w", err)
	}
	if occ == nil {
		return nil, notFoundOccurrence(reminderID)
	}
	if !occ.Actionable() {
		return nil, notActionable(reminderID, occ.Status)
	}

	occ.ScheduledAt = now.Add(time.Duration(minutes) * time.Minute)
	occ.Status = StatusSnoozed
	occ.SnoozeCount++
	if err := l.store.Update(occ); err != nil {
		return nil, fmt.Errorf("failed to update occurrence: %w", err)
	}

	l.cancelAlert(occ.ID)
	l.rearmAlert(occ)
	l.appendLog(&IntakeLogEntry{
		MedicineID:    medicineID,
		ReminderID:    reminderID,
		Action:        ActionSnoozed,
		At:            now,
		ScheduledAt:   occ.ScheduledAt,
		Source:        source,
		SnoozeMinutes: minutes,
	})
	metrics.IntakeSnoozed.Inc()

	l.logger.Info("Snoozed occurrence",
		zap.String("medicine_id", medicineID),
		zap.String("occurrence_id", reminderID),
		zap.Int("minutes", minutes),
		zap.Int("snooze_count", occ.SnoozeCount),
	)
	return occ, nil
}

// ReconcileOverdue flips scheduled/snoozed occurrences whose grace period
// has lapsed to missed. It is pull-based: call it before any read that
// depends on current status. Replaying it over a long-untouched dataset
// converges to the same state as running it every minute, because missedAt
// is stamped at scheduledAt+grace rather than at wall-clock time.
//
// One occurrence's bad state must not block its siblings, so failures are
// logged per item and the scan continues.
func (l *Lifecycle) ReconcileOverdue(medicineID string, now time.Time, grace time.Duration) (int, error) {
	if grace < 0 {
		grace = DefaultGraceMinutes * time.Minute
	}

	overdue, err := l.store.ListOverdue(medicineID, now, grace)
	if err != nil {
		return 0, fmt.Errorf("failed to scan overdue occurrences: %w", err)
	}

	flipped := 0
	for i := range overdue {
		occ := &overdue[i]
		occ.Status = StatusMissed
		missedAt := occ.ScheduledAt.Add(grace)
		occ.MissedAt = &missedAt
		if err := l.store.Update(occ); err != nil {
			l.logger.Warn("Failed to reconcile occurrence, continuing",
				zap.String("occurrence_id", occ.ID),
				zap.Error(err),
			)
			continue
		}

		l.cancelAlert(occ.ID)
		l.appendLog(&IntakeLogEntry{
			MedicineID:  occ.MedicineID,
			ReminderID:  occ.ID,
			Action:      ActionMissed,
			At:          missedAt,
			ScheduledAt: occ.ScheduledAt,
			Source:      SourceSystem,
		})
		metrics.IntakeMissed.Inc()
		flipped++
	}

	metrics.ReconcileRuns.Inc()
	if flipped > 0 {
		l.logger.Info("Reconciled overdue occurrences",
			zap.String("medicine_id", medicineID),
			zap.Int("missed", flipped),
		)
	}
	return flipped, nil
}

func (l *Lifecycle) medicineName(medicineID string) string {
	if l.meds == nil {
		return "your medication"
	}
	info, err := l.meds.Info(medicineID)
	if err != nil || info == nil {
		return "your medication"
	}
	return info.Name
}

func (l *Lifecycle) appendLog(entry *IntakeLogEntry) {
	if err := l.store.AppendLog(entry); err != nil {
		l.logger.Error("Failed to append intake log entry",
			zap.String("reminder_id", entry.ReminderID),
			zap.Error(err),
		)
	}
}

func (l *Lifecycle) cancelAlert(occurrenceID string) {
	if l.notifier == nil {
		return
	}
	if err := l.notifier.CancelAlert(occurrenceID); err != nil {
		metrics.NotifierFailures.Inc()
		l.logger.Warn("Notifier cancel failed",
			zap.String("occurrence_id", occurrenceID),
			zap.Error(err),
		)
	}
}

func (l *Lifecycle) rearmAlert(occ *Occurrence) {
	if l.notifier == nil {
		return
	}
	title, body := AlertText(l.medicineName(occ.MedicineID), *occ)
	if _, err := l.notifier.RequestAlert(occ.ID, occ.ScheduledAt, title, body); err != nil {
		metrics.NotifierFailures.Inc()
		l.logger.Warn("Notifier request failed",
			zap.String("occurrence_id", occ.ID),
			zap.Error(err),
		)
	}
}
