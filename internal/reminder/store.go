package reminder

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultIntakeLogCap bounds intake log growth; oldest entries are trimmed.
const DefaultIntakeLogCap = 2000

// Store handles occurrence and intake log persistence
type Store struct {
	db     *gorm.DB
	logCap int
}

// NewStore creates a new reminder store
func NewStore(db *gorm.DB) (*Store, error) {
	store := &Store{db: db, logCap: DefaultIntakeLogCap}

	if err := db.AutoMigrate(&Occurrence{}, &IntakeLogEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate reminder schemas: %w", err)
	}

	return store, nil
}

// WithLogCap overrides the intake log ring size
func (s *Store) WithLogCap(n int) *Store {
	if n > 0 {
		s.logCap = n
	}
	return s
}

// UpsertOccurrences inserts occurrences, ignoring ids that already exist.
// Generation is deterministic, so a conflicting row is the same slot; the
// conflict clause only guards against double invocation.
func (s *Store) UpsertOccurrences(occs []Occurrence) error {
	if len(occs) == 0 {
		return nil
	}
	now := time.Now()
	for i := range occs {
		occs[i].CreatedAt = now
		occs[i].UpdatedAt = now
	}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&occs).Error
}

// Get retrieves one occurrence for a medicine. Returns (nil, nil) when it
// does not exist.
func (s *Store) Get(medicineID, id string) (*Occurrence, error) {
	var occ Occurrence
	err := s.db.Where("id = ? AND medicine_id = ?", id, medicineID).First(&occ).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &occ, nil
}

// Update persists a mutated occurrence
func (s *Store) Update(occ *Occurrence) error {
	occ.UpdatedAt = time.Now()
	return s.db.Save(occ).Error
}

// ListWindow returns occurrences for a medicine scheduled in [from, to),
// ascending by scheduled time.
func (s *Store) ListWindow(medicineID string, from, to time.Time) ([]Occurrence, error) {
	var occs []Occurrence
	err := s.db.
		Where("medicine_id = ? AND scheduled_at >= ? AND scheduled_at < ?", medicineID, from, to).
		Order("scheduled_at ASC").
		Find(&occs).Error
	return occs, err
}

// ListPending returns the medicine's not-yet-due scheduled/snoozed
// occurrences, ascending.
func (s *Store) ListPending(medicineID string, now time.Time) ([]Occurrence, error) {
	var occs []Occurrence
	err := s.db.
		Where("medicine_id = ? AND status IN ? AND scheduled_at > ?",
			medicineID, []Status{StatusScheduled, StatusSnoozed}, now).
		Order("scheduled_at ASC").
		Find(&occs).Error
	return occs, err
}

// ListPausedFuture returns the medicine's future paused occurrences.
func (s *Store) ListPausedFuture(medicineID string, now time.Time) ([]Occurrence, error) {
	var occs []Occurrence
	err := s.db.
		Where("medicine_id = ? AND status = ? AND scheduled_at > ?", medicineID, StatusPaused, now).
		Order("scheduled_at ASC").
		Find(&occs).Error
	return occs, err
}

// ListOverdue returns scheduled/snoozed occurrences whose grace period has
// lapsed: scheduledAt + grace < now. An empty medicineID scans all medicines.
func (s *Store) ListOverdue(medicineID string, now time.Time, grace time.Duration) ([]Occurrence, error) {
	cutoff := now.Add(-grace)
	query := s.db.
		Where("status IN ? AND scheduled_at < ?", []Status{StatusScheduled, StatusSnoozed}, cutoff).
		Order("scheduled_at ASC")
	if medicineID != "" {
		query = query.Where("medicine_id = ?", medicineID)
	}

	var occs []Occurrence
	err := query.Find(&occs).Error
	return occs, err
}

// DeleteFuture hard-deletes the medicine's not-yet-due scheduled, snoozed,
// and paused rows. Past rows and terminal rows are never touched; this is
// the explicit clear a rule edit performs before regenerating.
func (s *Store) DeleteFuture(medicineID string, now time.Time) ([]Occurrence, error) {
	victims, err := s.listFutureClearable(medicineID, now)
	if err != nil {
		return nil, err
	}
	if len(victims) == 0 {
		return nil, nil
	}

	ids := make([]string, len(victims))
	for i, occ := range victims {
		ids[i] = occ.ID
	}
	if err := s.db.Where("id IN ?", ids).Delete(&Occurrence{}).Error; err != nil {
		return nil, err
	}
	return victims, nil
}

func (s *Store) listFutureClearable(medicineID string, now time.Time) ([]Occurrence, error) {
	var occs []Occurrence
	err := s.db.
		Where("medicine_id = ? AND status IN ? AND scheduled_at > ?",
			medicineID, []Status{StatusScheduled, StatusSnoozed, StatusPaused}, now).
		Find(&occs).Error
	return occs, err
}

// DeleteAll removes every occurrence for a medicine (medication removal
// cascade). Intake log entries survive by design.
func (s *Store) DeleteAll(medicineID string) ([]Occurrence, error) {
	var occs []Occurrence
	if err := s.db.Where("medicine_id = ?", medicineID).Find(&occs).Error; err != nil {
		return nil, err
	}
	if err := s.db.Where("medicine_id = ?", medicineID).Delete(&Occurrence{}).Error; err != nil {
		return nil, err
	}
	return occs, nil
}

// MedicineIDs returns the distinct medicine ids with stored occurrences.
func (s *Store) MedicineIDs() ([]string, error) {
	var ids []string
	err := s.db.Model(&Occurrence{}).Distinct("medicine_id").Pluck("medicine_id", &ids).Error
	return ids, err
}

// AppendLog appends an intake log entry and trims the ring past the cap.
func (s *Store) AppendLog(entry *IntakeLogEntry) error {
	if entry.ID == "" {
		entry.ID = "log_" + uuid.NewString()[:13]
	}
	entry.CreatedAt = time.Now()
	if err := s.db.Create(entry).Error; err != nil {
		return err
	}
	return s.trimLog()
}

func (s *Store) trimLog() error {
	var count int64
	if err := s.db.Model(&IntakeLogEntry{}).Count(&count).Error; err != nil {
		return err
	}
	excess := count - int64(s.logCap)
	if excess <= 0 {
		return nil
	}

	var oldest []string
	if err := s.db.Model(&IntakeLogEntry{}).
		Order("at ASC").
		Limit(int(excess)).
		Pluck("id", &oldest).Error; err != nil {
		return err
	}
	return s.db.Where("id IN ?", oldest).Delete(&IntakeLogEntry{}).Error
}

// ListLog returns intake log entries, newest first. An empty medicineID
// returns the whole ring.
func (s *Store) ListLog(medicineID string, limit int) ([]IntakeLogEntry, error) {
	query := s.db.Order("at DESC")
	if medicineID != "" {
		query = query.Where("medicine_id = ?", medicineID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entries []IntakeLogEntry
	err := query.Find(&entries).Error
	return entries, err
}

// CountLog returns the current ring size.
func (s *Store) CountLog() (int64, error) {
	var count int64
	err := s.db.Model(&IntakeLogEntry{}).Count(&count).Error
	return count, err
}
