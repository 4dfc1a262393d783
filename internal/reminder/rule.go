package reminder

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dosetrack/dosetrack/internal/errors"
)

const (
	defaultWindowStart   = "08:00"
	defaultWindowEnd     = "20:00"
	defaultIntervalStart = "08:00"

	maxTimesPerDay   = 12
	maxIntervalHours = 24
)

// Validate checks a dosing rule before it is applied. The store is never
// touched when validation fails.
func (r DosingRule) Validate() error {
	switch r.Mode {
	case ModeFixedTimes:
		if len(r.Times) == 0 {
			return errors.ErrRuleNoTimes
		}
		for _, t := range r.Times {
			if _, err := parseClock(t); err != nil {
				return errors.Wrap(err, errors.ErrRuleInvalidTime.Code, fmt.Sprintf("invalid time %q", t))
			}
		}
	case ModeTimesPerDay:
		if r.TimesPerDay < 1 || r.TimesPerDay > maxTimesPerDay {
			return errors.ErrRuleTimesPerDay
		}
		if r.WindowStart != "" {
			if _, err := parseClock(r.WindowStart); err != nil {
				return errors.Wrap(err, errors.ErrRuleInvalidTime.Code, fmt.Sprintf("invalid window start %q", r.WindowStart))
			}
		}
		if r.WindowEnd != "" {
			if _, err := parseClock(r.WindowEnd); err != nil {
				return errors.Wrap(err, errors.ErrRuleInvalidTime.Code, fmt.Sprintf("invalid window end %q", r.WindowEnd))
			}
		}
	case ModeIntervalHours:
		if r.IntervalHours < 1 || r.IntervalHours > maxIntervalHours {
			return errors.ErrRuleIntervalHours
		}
		if r.IntervalStart != "" {
			if _, err := parseClock(r.IntervalStart); err != nil {
				return errors.Wrap(err, errors.ErrRuleInvalidTime.Code, fmt.Sprintf("invalid interval start %q", r.IntervalStart))
			}
		}
	case ModeAsNeeded:
		// No timing fields to check
	default:
		return errors.Wrap(nil, errors.ErrRuleUnknownMode.Code, fmt.Sprintf("unknown mode %q", r.Mode))
	}

	if r.DoseAmount <= 0 {
		return errors.ErrRuleDoseAmount
	}

	var start, end time.Time
	if r.StartDate != "" {
		var err error
		start, err = parseDate(r.StartDate, time.UTC)
		if err != nil {
			return errors.Wrap(err, errors.ErrRuleInvalidDate.Code, fmt.Sprintf("invalid start date %q", r.StartDate))
		}
	}
	if r.EndDate != "" {
		var err error
		end, err = parseDate(r.EndDate, time.UTC)
		if err != nil {
			return errors.Wrap(err, errors.ErrRuleInvalidDate.Code, fmt.Sprintf("invalid end date %q", r.EndDate))
		}
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return errors.ErrRuleDateRange
	}

	return nil
}

// clockTime is minutes past local midnight
type clockTime int

func (c clockTime) on(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), int(c)/60, int(c)%60, 0, 0, day.Location())
}

func (c clockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// parseClock parses "HH:MM" into minutes past midnight.
func parseClock(s string) (clockTime, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return clockTime(h*60 + m), nil
}

// parseDate parses "YYYY-MM-DD" as local midnight in loc.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// dayTimes returns the clock times at which doses fall on any given day.
// Only valid for FixedTimes and TimesPerDay modes; IntervalHours steps
// continuously and is handled by the generator directly.
func (r DosingRule) dayTimes() []clockTime {
	switch r.Mode {
	case ModeFixedTimes:
		times := make([]clockTime, 0, len(r.Times))
		for _, s := range r.Times {
			ct, err := parseClock(s)
			if err != nil {
				continue
			}
			times = append(times, ct)
		}
		sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
		return dedupeTimes(times)

	case ModeTimesPerDay:
		start := clockOrDefault(r.WindowStart, defaultWindowStart)
		end := clockOrDefault(r.WindowEnd, defaultWindowEnd)

		n := r.TimesPerDay
		if n == 1 || end <= start {
			// Degenerate window collapses to a single dose at window start
			return []clockTime{start}
		}

		span := int(end - start)
		times := make([]clockTime, 0, n)
		for i := 0; i < n; i++ {
			offset := (span*i + (n-1)/2) / (n - 1) // round(span * i/(n-1))
			times = append(times, start+clockTime(offset))
		}
		return dedupeTimes(times)
	}
	return nil
}

func clockOrDefault(s, fallback string) clockTime {
	if s == "" {
		s = fallback
	}
	ct, err := parseClock(s)
	if err != nil {
		ct, _ = parseClock(fallback)
	}
	return ct
}

func dedupeTimes(times []clockTime) []clockTime {
	out := times[:0]
	var prev clockTime = -1
	for _, t := range times {
		if t != prev {
			out = append(out, t)
		}
		prev = t
	}
	return out
}
