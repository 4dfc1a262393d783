package reminder

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// DefaultHorizonDays bounds generation for open-ended courses.
const DefaultHorizonDays = 30

// nsOccurrence namespaces deterministic occurrence ids.
var nsOccurrence = uuid.NewSHA1(uuid.NameSpaceOID, []byte("dosetrack.occurrence"))

// OccurrenceID derives the stable id for a (medicine, slot) pair. The same
// slot always maps to the same id, which is what makes regeneration
// idempotent.
func OccurrenceID(medicineID string, scheduledAt time.Time) string {
	return uuid.NewSHA1(nsOccurrence, []byte(medicineID+"|"+scheduledAt.Format(time.RFC3339))).String()
}

// Generate expands a dosing rule into concrete future occurrences within
// the horizon. It is a pure function of its inputs: no side effects, and
// identical inputs produce identical output, ids included.
//
// Occurrences are only produced for instants strictly after now; disabled,
// paused, and as-needed rules produce none.
func Generate(medicineID string, rule DosingRule, now time.Time, horizonDays int) ([]Occurrence, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	if !rule.Active() {
		return nil, nil
	}

	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}

	loc := now.Location()
	today := midnight(now)

	start := today
	if rule.StartDate != "" {
		sd, _ := parseDate(rule.StartDate, loc)
		if sd.After(start) {
			start = sd
		}
	}

	// Inclusive end: a 30 day horizon starting today ends on day today+29
	end := start.AddDate(0, 0, horizonDays-1)
	if rule.EndDate != "" {
		ed, _ := parseDate(rule.EndDate, loc)
		if ed.Before(end) {
			end = ed
		}
	}
	if end.Before(start) {
		return nil, nil
	}

	var slots []time.Time
	switch rule.Mode {
	case ModeFixedTimes, ModeTimesPerDay:
		times := rule.dayTimes()
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			for _, ct := range times {
				slots = append(slots, ct.on(day))
			}
		}
	case ModeIntervalHours:
		first := clockOrDefault(rule.IntervalStart, defaultIntervalStart).on(start)
		endOfRange := end.AddDate(0, 0, 1) // exclusive end-of-day bound
		step := time.Duration(rule.IntervalHours) * time.Hour
		for t := first; t.Before(endOfRange); t = t.Add(step) {
			slots = append(slots, t)
		}
	}

	occurrences := make([]Occurrence, 0, len(slots))
	for _, at := range slots {
		if !at.After(now) {
			continue
		}
		occurrences = append(occurrences, Occurrence{
			ID:          OccurrenceID(medicineID, at),
			MedicineID:  medicineID,
			ScheduledAt: at,
			Status:      StatusScheduled,
			DoseAmount:  rule.DoseAmount,
			DoseUnit:    rule.DoseUnit,
			MealTag:     rule.MealTag,
		})
	}

	sort.Slice(occurrences, func(i, j int) bool {
		return occurrences[i].ScheduledAt.Before(occurrences[j].ScheduledAt)
	})

	return occurrences, nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
