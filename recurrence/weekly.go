package recurrence

import "time"

// expandWeekly walks the weekday set once per cycle. During the first cycle
// weekdays on or before the cursor's weekday are skipped, so nothing is
// emitted on or before Start within its own week. After each cycle the
// cursor jumps Interval-1 additional weeks. s.Weekdays must be non-empty.
func expandWeekly(s Spec) []time.Time {
	var dates []time.Time
	next := s.Start

	for cycle := 0; !next.After(s.Limit); cycle++ {
		for _, day := range s.Weekdays {
			if cycle == 0 && day <= next.Weekday() {
				continue
			}

			next = WithTimeOf(NextOccurrenceOfWeekday(next, day), s.Start)
			if !next.After(s.Limit) {
				dates = append(dates, next)
			}
		}

		next = AddWeeks(next, s.Interval-1)
	}

	return dates
}
