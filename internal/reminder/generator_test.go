package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccurrenceID_Deterministic(t *testing.T) {
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	a := OccurrenceID("med_a", at)
	b := OccurrenceID("med_a", at)
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, OccurrenceID("med_b", at))
	assert.NotEqual(t, a, OccurrenceID("med_a", at.Add(time.Minute)))
}

func TestGenerate_FixedTimesThirtyDayHorizon(t *testing.T) {
	// Two doses a day over a 30 day horizon yields 60 occurrences, the
	// last on day now+29
	now := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	rule := validFixedRule()

	occs, err := Generate("med_a", rule, now, 30)
	require.NoError(t, err)
	require.Len(t, occs, 60)

	assert.True(t, occs[0].ScheduledAt.Equal(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)))
	assert.True(t, occs[59].ScheduledAt.Equal(time.Date(2026, 3, 30, 20, 0, 0, 0, time.UTC)))

	for _, occ := range occs {
		assert.Equal(t, StatusScheduled, occ.Status)
		assert.Equal(t, "med_a", occ.MedicineID)
		assert.True(t, occ.ScheduledAt.After(now))
	}
}

func TestGenerate_SkipsSlotsAlreadyPassed(t *testing.T) {
	// At 09:00 today's 08:00 slot is gone but 20:00 remains
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	occs, err := Generate("med_a", validFixedRule(), now, 30)
	require.NoError(t, err)
	require.Len(t, occs, 59)
	assert.True(t, occs[0].ScheduledAt.Equal(time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)))
}

func TestGenerate_Idempotent(t *testing.T) {
	now := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	rule := validFixedRule()

	first, err := Generate("med_a", rule, now, 30)
	require.NoError(t, err)
	second, err := Generate("med_a", rule, now, 30)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.True(t, first[i].ScheduledAt.Equal(second[i].ScheduledAt))
	}
}

func TestGenerate_TimesPerDay(t *testing.T) {
	now := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	rule := DosingRule{
		Mode:        ModeTimesPerDay,
		TimesPerDay: 3,
		DoseAmount:  1,
		Enabled:     true,
	}

	occs, err := Generate("med_a", rule, now, 2)
	require.NoError(t, err)
	require.Len(t, occs, 6)

	assert.True(t, occs[0].ScheduledAt.Equal(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)))
	assert.True(t, occs[1].ScheduledAt.Equal(time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)))
	assert.True(t, occs[2].ScheduledAt.Equal(time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)))
	assert.True(t, occs[3].ScheduledAt.Equal(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)))
}

func TestGenerate_IntervalHoursStepsAcrossDays(t *testing.T) {
	now := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	rule := DosingRule{
		Mode:          ModeIntervalHours,
		IntervalHours: 8,
		IntervalStart: "06:30",
		DoseAmount:    1,
		Enabled:       true,
	}

	occs, err := Generate("med_a", rule, now, 2)
	require.NoError(t, err)
	// 06:30, 14:30, 22:30 both days
	require.Len(t, occs, 6)
	assert.True(t, occs[0].ScheduledAt.Equal(time.Date(2026, 3, 1, 6, 30, 0, 0, time.UTC)))
	assert.True(t, occs[2].ScheduledAt.Equal(time.Date(2026, 3, 1, 22, 30, 0, 0, time.UTC)))
	assert.True(t, occs[3].ScheduledAt.Equal(time.Date(2026, 3, 2, 6, 30, 0, 0, time.UTC)))
}

func TestGenerate_InactiveRulesProduceNothing(t *testing.T) {
	now := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)

	disabled := validFixedRule()
	disabled.Enabled = false
	occs, err := Generate("med_a", disabled, now, 30)
	require.NoError(t, err)
	assert.Empty(t, occs)

	paused := validFixedRule()
	paused.Paused = true
	occs, err = Generate("med_a", paused, now, 30)
	require.NoError(t, err)
	assert.Empty(t, occs)

	asNeeded := DosingRule{Mode: ModeAsNeeded, DoseAmount: 1, Enabled: true}
	occs, err = Generate("med_a", asNeeded, now, 30)
	require.NoError(t, err)
	assert.Empty(t, occs)
}

func TestGenerate_DateBounds(t *testing.T) {
	now := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)

	rule := validFixedRule()
	rule.StartDate = "2026-03-10"
	rule.EndDate = "2026-03-12"
	occs, err := Generate("med_a", rule, now, 30)
	require.NoError(t, err)
	require.Len(t, occs, 6)
	assert.True(t, occs[0].ScheduledAt.Equal(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)))
	assert.True(t, occs[5].ScheduledAt.Equal(time.Date(2026, 3, 12, 20, 0, 0, 0, time.UTC)))

	// A course already over produces nothing
	rule = validFixedRule()
	rule.EndDate = "2026-02-01"
	occs, err = Generate("med_a", rule, now, 30)
	require.NoError(t, err)
	assert.Empty(t, occs)
}

func TestGenerate_InvalidRuleRejected(t *testing.T) {
	now := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	rule := validFixedRule()
	rule.Times = []string{"99:99"}

	_, err := Generate("med_a", rule, now, 30)
	assert.Error(t, err)
}

func TestGenerate_DenormalizesDoseFields(t *testing.T) {
	now := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	rule := validFixedRule()
	rule.DoseAmount = 2.5
	rule.DoseUnit = "ml"
	rule.MealTag = BeforeMeal

	occs, err := Generate("med_a", rule, now, 1)
	require.NoError(t, err)
	require.NotEmpty(t, occs)
	assert.Equal(t, 2.5, occs[0].DoseAmount)
	assert.Equal(t, "ml", occs[0].DoseUnit)
	assert.Equal(t, BeforeMeal, occs[0].MealTag)
}
