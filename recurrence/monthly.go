package recurrence

import "time"

func expandMonthly(s Spec) []time.Time {
	if s.Anchor == DayOfWeek {
		return expandMonthlyByWeekday(s)
	}
	return expandMonthlyByDay(s)
}

// expandMonthlyByDay keeps Start's day of month. A target month too short
// for that day is skipped together with the month after it: the cursor
// moves 2*Interval months and nothing is emitted for that step.
//
// The cursor is tracked as a month offset from Start so that clamping in a
// short month never pulls later occurrences onto an earlier day.
func expandMonthlyByDay(s Spec) []time.Time {
	var dates []time.Time
	anchor := s.Start.Day()
	offset := 0
	next := s.Start

	for !next.After(s.Limit) {
		probe := AddMonths(s.Start, offset+s.Interval)
		if probe.Day() != anchor {
			offset += 2 * s.Interval
			next = AddMonths(s.Start, offset)
			continue
		}

		offset += s.Interval
		next = probe
		if !next.After(s.Limit) {
			dates = append(dates, next)
		}
	}

	return dates
}

// expandMonthlyByWeekday keeps Start's ordinal weekday, e.g. the 3rd
// Tuesday. When the target month has no such ordinal (a 5th Friday in a
// four-Friday month) the month's last matching weekday is used instead.
func expandMonthlyByWeekday(s Spec) []time.Time {
	var dates []time.Time
	ordinal := WeekOfMonth(s.Start)
	weekday := s.Start.Weekday()
	next := s.Start

	for !next.After(s.Limit) {
		month := AddMonths(StartOfMonth(next), s.Interval)
		day := NthWeekdayOfMonth(month, ordinal, weekday).
			OrElse(LastWeekdayOfMonth(month, weekday))

		next = WithTimeOf(day, s.Start)
		if !next.After(s.Limit) {
			dates = append(dates, next)
		}
	}

	return dates
}
