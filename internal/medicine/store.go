package medicine

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dosetrack/dosetrack/internal/reminder"
)

// Store handles medication persistence
type Store struct {
	db *gorm.DB
}

// NewStore creates a new medication store
func NewStore(db *gorm.DB) (*Store, error) {
	store := &Store{db: db}

	if err := db.AutoMigrate(&Medication{}); err != nil {
		return nil, fmt.Errorf("failed to migrate medication schema: %w", err)
	}

	return store, nil
}

func generateID() string {
	return "med_" + uuid.NewString()[:13]
}

// Create creates a new medication
func (s *Store) Create(med *Medication) error {
	if med.ID == "" {
		med.ID = generateID()
	}

	serializeTimes(med)

	med.CreatedAt = time.Now()
	med.UpdatedAt = time.Now()
	return s.db.Create(med).Error
}

// Get retrieves a medication by ID. Returns (nil, nil) when it does not exist.
func (s *Store) Get(id string) (*Medication, error) {
	var med Medication
	err := s.db.Where("id = ?", id).First(&med).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	deserializeTimes(&med)
	return &med, nil
}

// Update updates an existing medication
func (s *Store) Update(med *Medication) error {
	serializeTimes(med)
	med.UpdatedAt = time.Now()
	return s.db.Save(med).Error
}

// Delete removes a medication
func (s *Store) Delete(id string) error {
	return s.db.Where("id = ?", id).Delete(&Medication{}).Error
}

// List lists all medications, optionally filtered by user
func (s *Store) List(userID string) ([]Medication, error) {
	query := s.db.Order("created_at DESC")
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var meds []Medication
	if err := query.Find(&meds).Error; err != nil {
		return nil, err
	}

	for i := range meds {
		deserializeTimes(&meds[i])
	}
	return meds, nil
}

// Info implements reminder.MedicineSource, giving the scheduling engine
// just enough of the medication to build notification text.
func (s *Store) Info(id string) (*reminder.MedicineInfo, error) {
	med, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if med == nil {
		return nil, nil
	}
	return &reminder.MedicineInfo{ID: med.ID, Name: med.Name}, nil
}

// Rule implements reminder.MedicineSource.
func (s *Store) Rule(id string) (*reminder.DosingRule, error) {
	med, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if med == nil {
		return nil, nil
	}
	rule := med.DosingRule()
	return &rule, nil
}

func serializeTimes(med *Medication) {
	if len(med.Times) > 0 {
		timesJSON, _ := json.Marshal(med.Times)
		med.TimesJSON = string(timesJSON)
	} else {
		med.TimesJSON = ""
	}
}

func deserializeTimes(med *Medication) {
	if med.TimesJSON != "" {
		json.Unmarshal([]byte(med.TimesJSON), &med.Times)
	}
}
