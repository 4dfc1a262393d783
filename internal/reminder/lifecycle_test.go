package reminder

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dosetrack/dosetrack/internal/errors"
)

// fakeNotifier records alert traffic for assertions.
type fakeNotifier struct {
	mu        sync.Mutex
	requested []string
	canceled  []string
	failWith  error
}

func (f *fakeNotifier) RequestAlert(occurrenceID string, _ time.Time, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return "", f.failWith
	}
	f.requested = append(f.requested, occurrenceID)
	return occurrenceID, nil
}

func (f *fakeNotifier) CancelAlert(handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.canceled = append(f.canceled, handle)
	return nil
}

func (f *fakeNotifier) requestedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requested)
}

func (f *fakeNotifier) canceledCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.canceled)
}

// fakeMeds serves a fixed set of medicines.
type fakeMeds struct {
	infos map[string]*MedicineInfo
	rules map[string]*DosingRule
}

func newFakeMeds() *fakeMeds {
	return &fakeMeds{
		infos: make(map[string]*MedicineInfo),
		rules: make(map[string]*DosingRule),
	}
}

func (f *fakeMeds) add(id, name string, rule DosingRule) {
	f.infos[id] = &MedicineInfo{ID: id, Name: name}
	f.rules[id] = &rule
}

func (f *fakeMeds) Info(id string) (*MedicineInfo, error) { return f.infos[id], nil }
func (f *fakeMeds) Rule(id string) (*DosingRule, error)   { return f.rules[id], nil }

func setupLifecycle(t *testing.T) (*Lifecycle, *Store, *fakeNotifier) {
	store := setupTestStore(t)
	notifier := &fakeNotifier{}
	meds := newFakeMeds()
	meds.add("med_a", "Aspirin", validFixedRule())
	logger, _ := zap.NewDevelopment()
	return NewLifecycle(store, notifier, meds, logger), store, notifier
}

func TestLifecycle_MarkTaken(t *testing.T) {
	lc, store, notifier := setupLifecycle(t)

	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	occ := testOccurrence("med_a", at)
	require.NoError(t, store.UpsertOccurrences([]Occurrence{occ}))

	now := at.Add(10 * time.Minute)
	updated, err := lc.MarkTaken("med_a", occ.ID, now, SourceApp)
	require.NoError(t, err)
	assert.True(t, updated)

	loaded, err := store.Get("med_a", occ.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusTaken, loaded.Status)
	require.NotNil(t, loaded.TakenAt)
	assert.True(t, loaded.TakenAt.Equal(now))

	assert.Equal(t, 1, notifier.canceledCount())

	entries, err := store.ListLog("med_a", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionTaken, entries[0].Action)
	assert.Equal(t, SourceApp, entries[0].Source)
}

func TestLifecycle_MarkTakenDoubleTapIsNoOp(t *testing.T) {
	lc, store, _ := setupLifecycle(t)

	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	occ := testOccurrence("med_a", at)
	require.NoError(t, store.UpsertOccurrences([]Occurrence{occ}))

	updated, err := lc.MarkTaken("med_a", occ.ID, at, SourceApp)
	require.NoError(t, err)
	assert.True(t, updated)

	// Second tap: no error, no change, no extra log entry
	updated, err = lc.MarkTaken("med_a", occ.ID, at.Add(time.Minute), SourceNotification)
	require.NoError(t, err)
	assert.False(t, updated)

	entries, err := store.ListLog("med_a", 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLifecycle_MarkTakenUnknownID(t *testing.T) {
	lc, _, _ := setupLifecycle(t)

	_, err := lc.MarkTaken("med_a", "no-such-occurrence", time.Now(), SourceApp)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestLifecycle_SnoozeKeepsIdentity(t *testing.T) {
	lc, store, notifier := setupLifecycle(t)

	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	occ := testOccurrence("med_a", at)
	require.NoError(t, store.UpsertOccurrences([]Occurrence{occ}))

	now := at.Add(2 * time.Minute)
	snoozed, err := lc.Snooze("med_a", occ.ID, 15, now, SourceNotification)
	require.NoError(t, err)

	assert.Equal(t, occ.ID, snoozed.ID)
	assert.Equal(t, StatusSnoozed, snoozed.Status)
	assert.Equal(t, 1, snoozed.SnoozeCount)
	assert.True(t, snoozed.ScheduledAt.Equal(now.Add(15*time.Minute)))

	// Old alert canceled, new one armed for the pushed-out time
	assert.Equal(t, 1, notifier.canceledCount())
	assert.Equal(t, 1, notifier.requestedCount())

	// Snoozing again bumps the count on the same row
	snoozed, err = lc.Snooze("med_a", occ.ID, 10, now.Add(16*time.Minute), SourceNotification)
	require.NoError(t, err)
	assert.Equal(t, occ.ID, snoozed.ID)
	assert.Equal(t, 2, snoozed.SnoozeCount)

	entries, err := store.ListLog("med_a", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ActionSnoozed, entries[0].Action)
	assert.Equal(t, 10, entries[0].SnoozeMinutes)
}

func TestLifecycle_SnoozeRejectsBadInput(t *testing.T) {
	lc, store, _ := setupLifecycle(t)

	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	occ := testOccurrence("med_a", at)
	require.NoError(t, store.UpsertOccurrences([]Occurrence{occ}))

	_, err := lc.Snooze("med_a", occ.ID, 0, at, SourceApp)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = lc.Snooze("med_a", "no-such-occurrence", 10, at, SourceApp)
	assert.True(t, errors.IsNotFound(err))

	// Terminal occurrences cannot be snoozed
	_, err = lc.MarkTaken("med_a", occ.ID, at, SourceApp)
	require.NoError(t, err)
	_, err = lc.Snooze("med_a", occ.ID, 10, at, SourceApp)
	assert.Error(t, err)
}

func TestLifecycle_ReconcileOverdue(t *testing.T) {
	lc, store, notifier := setupLifecycle(t)

	slot := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	occ := testOccurrence("med_a", slot)
	within := testOccurrence("med_a", slot.Add(time.Hour))
	require.NoError(t, store.UpsertOccurrences([]Occurrence{occ, within}))

	// 90 minutes past the slot with a 60 minute grace: overdue
	now := slot.Add(90 * time.Minute)
	flipped, err := lc.ReconcileOverdue("med_a", now, 60*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, flipped)

	loaded, err := store.Get("med_a", occ.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusMissed, loaded.Status)
	require.NotNil(t, loaded.MissedAt)
	// missedAt is stamped at slot+grace, not at reconcile time
	assert.True(t, loaded.MissedAt.Equal(slot.Add(60*time.Minute)))

	assert.Equal(t, 1, notifier.canceledCount())

	entries, err := store.ListLog("med_a", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionMissed, entries[0].Action)
	assert.Equal(t, SourceSystem, entries[0].Source)
}

func TestLifecycle_ReconcileConverges(t *testing.T) {
	lc, store, _ := setupLifecycle(t)

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	var occs []Occurrence
	for i := 0; i < 5; i++ {
		occs = append(occs, testOccurrence("med_a", base.Add(time.Duration(i)*12*time.Hour)))
	}
	require.NoError(t, store.UpsertOccurrences(occs))

	// Running once after a long gap matches running continuously
	now := base.AddDate(0, 0, 7)
	flipped, err := lc.ReconcileOverdue("med_a", now, 60*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 5, flipped)

	// Second run is a no-op
	flipped, err = lc.ReconcileOverdue("med_a", now, 60*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, flipped)
}

func TestLifecycle_ReconcileSkipsSnoozedWithinGrace(t *testing.T) {
	lc, store, _ := setupLifecycle(t)

	slot := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	occ := testOccurrence("med_a", slot)
	require.NoError(t, store.UpsertOccurrences([]Occurrence{occ}))

	// Snoozing moves the slot, resetting the overdue clock
	now := slot.Add(50 * time.Minute)
	_, err := lc.Snooze("med_a", occ.ID, 30, now, SourceApp)
	require.NoError(t, err)

	flipped, err := lc.ReconcileOverdue("med_a", now.Add(10*time.Minute), 60*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, flipped)

	// But a snoozed slot left past its grace still goes missed
	flipped, err = lc.ReconcileOverdue("med_a", now.Add(2*time.Hour), 60*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, flipped)
}
