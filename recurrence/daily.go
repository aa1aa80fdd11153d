package recurrence

import "time"

// expandDaily emits Start + i*Interval days for i >= 1 while within Limit.
// Start itself is never part of the result.
//
// Each occurrence is computed from Start rather than from the previous one,
// so a date whose wall clock does not exist (a DST gap) shifts only itself.
func expandDaily(s Spec) []time.Time {
	var dates []time.Time

	for i := 1; ; i++ {
		next := AddDays(s.Start, i*s.Interval)
		if next.After(s.Limit) {
			break
		}
		dates = append(dates, next)
	}

	return dates
}
