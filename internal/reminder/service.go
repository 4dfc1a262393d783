package reminder

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dosetrack/dosetrack/internal/clock"
)

// Options are the engine tunables, loaded from config.
type Options struct {
	HorizonDays          int
	GraceMinutes         int
	DefaultSnoozeMinutes int
}

func (o Options) withDefaults() Options {
	if o.HorizonDays <= 0 {
		o.HorizonDays = DefaultHorizonDays
	}
	if o.GraceMinutes <= 0 {
		o.GraceMinutes = DefaultGraceMinutes
	}
	if o.DefaultSnoozeMinutes <= 0 {
		o.DefaultSnoozeMinutes = 10
	}
	return o
}

// Service is the caller-facing surface of the reminder engine. All mutating
// operations are serialized per medicine so regeneration and reconciliation
// for the same medicine can never interleave.
type Service struct {
	store     *Store
	meds      MedicineSource
	scheduler *Scheduler
	lifecycle *Lifecycle
	adherence *Adherence
	clock     clock.Clock
	logger    *zap.Logger
	opts      Options

	locks sync.Map // medicineID -> *sync.Mutex

	mu      sync.RWMutex
	onEvent func(Event)
}

// NewService wires the engine together.
func NewService(store *Store, meds MedicineSource, notifier Notifier, clk clock.Clock, logger *zap.Logger, opts Options) *Service {
	opts = opts.withDefaults()
	if clk == nil {
		clk = clock.System()
	}

	lifecycle := NewLifecycle(store, notifier, meds, logger)
	s := &Service{
		store:     store,
		meds:      meds,
		scheduler: NewScheduler(store, notifier, logger).WithHorizon(opts.HorizonDays),
		lifecycle: lifecycle,
		adherence: NewAdherence(store, lifecycle, time.Duration(opts.GraceMinutes)*time.Minute),
		clock:     clk,
		logger:    logger,
		opts:      opts,
	}
	return s
}

// UpdateOptions applies reloaded tunables to a running service.
func (s *Service) UpdateOptions(opts Options) {
	opts = opts.withDefaults()
	s.mu.Lock()
	s.opts = opts
	s.mu.Unlock()
	s.scheduler.WithHorizon(opts.HorizonDays)
	s.adherence.SetGrace(time.Duration(opts.GraceMinutes) * time.Minute)
}

// SetEventCallback registers a hook invoked after state changes. Used by
// the API layer to feed the websocket event stream.
func (s *Service) SetEventCallback(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvent = fn
}

func (s *Service) emit(ev Event) {
	s.mu.RLock()
	fn := s.onEvent
	s.mu.RUnlock()
	if fn != nil {
		fn(ev)
	}
}

// lock returns the per-medicine serialization point.
func (s *Service) lock(medicineID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(medicineID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// ApplyDosingRule validates rule and replaces the medicine's future
// schedule with one generated from it.
func (s *Service) ApplyDosingRule(medicineID string, rule DosingRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	info, err := s.meds.Info(medicineID)
	if err != nil {
		return err
	}
	if info == nil {
		return notFoundMedicine(medicineID)
	}

	mu := s.lock(medicineID)
	mu.Lock()
	defer mu.Unlock()

	now := s.clock.Now()
	if err := s.scheduler.ApplyRule(*info, rule, now); err != nil {
		return err
	}

	s.emit(Event{Type: "rescheduled", MedicineID: medicineID, At: now})
	return nil
}

// PauseOrResume parks or revives the medicine's future schedule.
func (s *Service) PauseOrResume(medicineID string, paused bool) error {
	info, err := s.meds.Info(medicineID)
	if err != nil {
		return err
	}
	if info == nil {
		return notFoundMedicine(medicineID)
	}

	mu := s.lock(medicineID)
	mu.Lock()
	defer mu.Unlock()

	now := s.clock.Now()
	if paused {
		if err := s.scheduler.Pause(medicineID, now); err != nil {
			return err
		}
		s.emit(Event{Type: "paused", MedicineID: medicineID, At: now})
		return nil
	}

	rule, err := s.meds.Rule(medicineID)
	if err != nil {
		return err
	}
	if rule == nil {
		return notFoundMedicine(medicineID)
	}
	rule.Paused = false
	if !rule.Enabled {
		// Disabled rules stay parked even when unpaused
		return nil
	}

	if err := s.scheduler.Resume(*info, *rule, now); err != nil {
		return err
	}
	s.emit(Event{Type: "resumed", MedicineID: medicineID, At: now})
	return nil
}

// DeleteMedicineReminders removes all occurrences for a deleted medication.
// The intake log is retained as the historical record.
func (s *Service) DeleteMedicineReminders(medicineID string) error {
	mu := s.lock(medicineID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.scheduler.DeleteAll(medicineID); err != nil {
		return err
	}
	s.emit(Event{Type: "deleted", MedicineID: medicineID, At: s.clock.Now()})
	return nil
}

// GetTodayOccurrences returns the medicine's occurrences for the current
// local calendar day, reconciled first so statuses are current.
func (s *Service) GetTodayOccurrences(medicineID string) ([]Occurrence, error) {
	mu := s.lock(medicineID)
	mu.Lock()
	defer mu.Unlock()

	now := s.clock.Now()
	if _, err := s.lifecycle.ReconcileOverdue(medicineID, now, s.grace()); err != nil {
		return nil, err
	}

	today := midnight(now)
	return s.store.ListWindow(medicineID, today, today.AddDate(0, 0, 1))
}

// MarkTaken records that a dose was taken. Reports (false, nil) when the
// occurrence was already in a terminal state.
func (s *Service) MarkTaken(medicineID, reminderID string, source Source) (bool, error) {
	mu := s.lock(medicineID)
	mu.Lock()
	defer mu.Unlock()

	now := s.clock.Now()
	ok, err := s.lifecycle.MarkTaken(medicineID, reminderID, now, source)
	if err != nil {
		return false, err
	}
	if ok {
		s.emit(Event{Type: "taken", MedicineID: medicineID, ReminderID: reminderID, At: now})
	}
	return ok, nil
}

// Snooze pushes an occurrence out by minutes (engine default when <= 0).
func (s *Service) Snooze(medicineID, reminderID string, minutes int, source Source) (*Occurrence, error) {
	if minutes <= 0 {
		s.mu.RLock()
		minutes = s.opts.DefaultSnoozeMinutes
		s.mu.RUnlock()
	}

	mu := s.lock(medicineID)
	mu.Lock()
	defer mu.Unlock()

	now := s.clock.Now()
	occ, err := s.lifecycle.Snooze(medicineID, reminderID, minutes, now, source)
	if err != nil {
		return nil, err
	}
	s.emit(Event{Type: "snoozed", MedicineID: medicineID, ReminderID: reminderID, ScheduledAt: occ.ScheduledAt, At: now})
	return occ, nil
}

// GetAdherenceStats aggregates the last `days` local calendar days.
func (s *Service) GetAdherenceStats(medicineID string, days int) (*Stats, error) {
	mu := s.lock(medicineID)
	mu.Lock()
	defer mu.Unlock()

	return s.adherence.ComputeStats(medicineID, days, s.clock.Now())
}

// GetIntakeLog returns intake history, newest first. Empty medicineID
// returns entries for all medicines.
func (s *Service) GetIntakeLog(medicineID string, limit int) ([]IntakeLogEntry, error) {
	return s.store.ListLog(medicineID, limit)
}

// ReconcileAll reconciles every medicine with stored occurrences. Invoked
// by the maintenance sweep; read paths reconcile on their own.
func (s *Service) ReconcileAll() (int, error) {
	ids, err := s.store.MedicineIDs()
	if err != nil {
		return 0, err
	}

	total := 0
	for _, id := range ids {
		mu := s.lock(id)
		mu.Lock()
		flipped, err := s.lifecycle.ReconcileOverdue(id, s.clock.Now(), s.grace())
		mu.Unlock()
		if err != nil {
			s.logger.Warn("Reconcile failed for medicine, continuing",
				zap.String("medicine_id", id),
				zap.Error(err),
			)
			continue
		}
		if flipped > 0 {
			s.emit(Event{Type: "missed", MedicineID: id, At: s.clock.Now()})
		}
		total += flipped
	}
	return total, nil
}

func (s *Service) grace() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Duration(s.opts.GraceMinutes) * time.Minute
}
