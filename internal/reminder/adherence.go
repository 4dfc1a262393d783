package reminder

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Adherence aggregates occurrences in a day window into counts and rates.
// Reads go through reconciliation first so stats reflect current truth.
type Adherence struct {
	store     *Store
	lifecycle *Lifecycle

	mu    sync.RWMutex
	grace time.Duration
}

// NewAdherence creates the adherence calculator.
func NewAdherence(store *Store, lifecycle *Lifecycle, grace time.Duration) *Adherence {
	if grace < 0 {
		grace = DefaultGraceMinutes * time.Minute
	}
	return &Adherence{
		store:     store,
		lifecycle: lifecycle,
		grace:     grace,
	}
}

// SetGrace updates the reconciliation grace period (config hot reload).
func (a *Adherence) SetGrace(grace time.Duration) {
	if grace < 0 {
		return
	}
	a.mu.Lock()
	a.grace = grace
	a.mu.Unlock()
}

func (a *Adherence) graceDuration() time.Duration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.grace
}

// ComputeStats returns adherence counts over the window
// [today-(days-1), today], local calendar days inclusive.
func (a *Adherence) ComputeStats(medicineID string, days int, now time.Time) (*Stats, error) {
	if days < 1 {
		days = 1
	}

	if _, err := a.lifecycle.ReconcileOverdue(medicineID, now, a.graceDuration()); err != nil {
		return nil, err
	}

	today := midnight(now)
	from := today.AddDate(0, 0, -(days - 1))
	to := today.AddDate(0, 0, 1)

	occs, err := a.store.ListWindow(medicineID, from, to)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		MedicineID: medicineID,
		Days:       days,
		Daily:      make([]DailyStat, days),
	}
	for i := 0; i < days; i++ {
		stats.Daily[i] = DailyStat{Date: from.AddDate(0, 0, i).Format("2006-01-02")}
	}

	for _, occ := range occs {
		stats.Scheduled++
		dayIdx := int(midnight(occ.ScheduledAt).Sub(from).Hours() / 24)
		if dayIdx < 0 || dayIdx >= days {
			// Snoozed occurrences can drift past midnight; count them on
			// the window edge they fall nearest to
			if dayIdx < 0 {
				dayIdx = 0
			} else {
				dayIdx = days - 1
			}
		}
		daily := &stats.Daily[dayIdx]
		daily.Scheduled++

		switch occ.Status {
		case StatusTaken:
			stats.Taken++
			daily.Taken++
		case StatusMissed:
			stats.Missed++
			daily.Missed++
		case StatusSnoozed:
			stats.Snoozed++
		}
	}

	if stats.Scheduled > 0 {
		stats.AdherenceRate = math.Round(float64(stats.Taken)/float64(stats.Scheduled)*1000) / 1000
	}

	stats.Summary = summarize(stats)
	return stats, nil
}

// summarize produces short rule-based guidance lines for the stats screen.
func summarize(s *Stats) []string {
	var lines []string

	switch {
	case s.Scheduled == 0:
		lines = append(lines, "No doses were scheduled in this period.")
	case s.AdherenceRate >= 0.9:
		lines = append(lines, fmt.Sprintf("Great adherence: %d of %d doses taken.", s.Taken, s.Scheduled))
	case s.AdherenceRate >= 0.6:
		lines = append(lines, fmt.Sprintf("Adherence is slipping: %d of %d doses taken.", s.Taken, s.Scheduled))
	default:
		lines = append(lines, fmt.Sprintf("Low adherence: only %d of %d doses taken.", s.Taken, s.Scheduled))
	}

	if s.Missed > 0 {
		lines = append(lines, fmt.Sprintf("%d doses were missed. Consider adjusting reminder times.", s.Missed))
	}
	if s.Snoozed > 0 {
		lines = append(lines, fmt.Sprintf("%d reminders are currently snoozed.", s.Snoozed))
	}

	return lines
}
