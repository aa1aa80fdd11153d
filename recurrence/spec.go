package recurrence

import (
	"slices"
	"time"
)

// DefaultLimitSpan is how far past the start an open-ended rule is expanded
const DefaultLimitSpan = 20 // years

// Spec describes one recurrence rule
type Spec struct {
	// Start anchors every occurrence's time of day and, for monthly rules,
	// its day of month or ordinal weekday. Its Location is the rule's timezone.
	Start time.Time

	Cadence Cadence

	// Interval is the step between cycles; values below 1 are treated as 1
	Interval int

	// Limit is the inclusive upper bound. Only its calendar date matters: it
	// is widened to the end of that day in Start's location. Zero means Start
	// plus DefaultLimitSpan years.
	Limit time.Time

	// Weekdays is the weekly repeat set
	Weekdays []time.Weekday

	// Anchor is the monthly repeat mode
	Anchor MonthlyAnchor
}

// Validate checks cadence and modifier consistency without changing s
func (s Spec) Validate() error {
	switch s.Cadence {
	case Daily:
	case Weekly:
		if len(s.Weekdays) == 0 {
			return newValidationError(KindEmptyWeekdays, "repeat", "", nil)
		}
		for _, wd := range s.Weekdays {
			if wd < time.Sunday || wd > time.Saturday {
				return newValidationError(KindInvalidWeekdayToken, "repeat", wd.String(), nil)
			}
		}
	case Monthly:
		if s.Anchor != DayOfMonth && s.Anchor != DayOfWeek {
			return newValidationError(KindInvalidMonthlyAnchor, "repeat", s.Anchor.String(), nil)
		}
	default:
		return newValidationError(KindInvalidCadence, "type", s.Cadence.String(), nil)
	}
	return nil
}

// Normalize returns a copy of s ready for expansion: interval coerced to at
// least 1, weekdays sorted and deduplicated, limit defaulted and clamped to
// the end of its date in Start's location. now supplies Start when it is zero.
func (s Spec) Normalize(now time.Time) Spec {
	if s.Start.IsZero() {
		s.Start = now
	}
	if s.Interval < 1 {
		s.Interval = 1
	}
	if s.Limit.IsZero() {
		s.Limit = s.Start.AddDate(DefaultLimitSpan, 0, 0)
	}
	y, m, d := s.Limit.Date()
	s.Limit = EndOfDay(time.Date(y, m, d, 0, 0, 0, 0, s.Start.Location()))
	s.Weekdays = NormalizeWeekdays(s.Weekdays)
	return s
}

// NormalizeWeekdays returns days sorted ascending without duplicates. The
// input slice is not modified.
func NormalizeWeekdays(days []time.Weekday) []time.Weekday {
	if len(days) == 0 {
		return nil
	}
	out := slices.Clone(days)
	slices.Sort(out)
	return slices.Compact(out)
}
