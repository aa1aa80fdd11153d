package recurrence

import (
	"time"

	"github.com/samber/mo"
)

// Calendar primitives used by the expanders. Every function returns a new
// time.Time and keeps the location of its input, so stepping is done in the
// wall clock of the rule's timezone.

// AddDays adds n calendar days, keeping the wall-clock time
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// AddWeeks adds n calendar weeks
func AddWeeks(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, 7*n)
}

// AddMonths adds n calendar months. When the target month is shorter than
// t's day of month the result is clamped to the target month's last day
// (Jan 31 + 1 month is Feb 28 or 29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	target := m + time.Month(n)
	if last := daysIn(y, target); d > last {
		d = last
	}
	return time.Date(y, target, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// WeekdayOf returns 0 (Sunday) through 6 (Saturday)
func WeekdayOf(t time.Time) int {
	return int(t.Weekday())
}

// MonthDayOf returns 1 through 31
func MonthDayOf(t time.Time) int {
	return t.Day()
}

// WeekOfMonth returns the ordinal of t's weekday within its month: the
// 1st through 5th Monday, and so on.
func WeekOfMonth(t time.Time) int {
	return (t.Day()-1)/7 + 1
}

// NthWeekdayOfMonth returns the n-th occurrence of weekday in t's month,
// carrying t's time of day. It is absent when the month has fewer than n
// such weekdays.
func NthWeekdayOfMonth(t time.Time, n int, weekday time.Weekday) mo.Option[time.Time] {
	if n < 1 {
		return mo.None[time.Time]()
	}

	y, m, _ := t.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	day := 1 + offset + (n-1)*7
	if day > daysIn(y, m) {
		return mo.None[time.Time]()
	}

	return mo.Some(time.Date(y, m, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()))
}

// LastWeekdayOfMonth returns the last occurrence of weekday in t's month
func LastWeekdayOfMonth(t time.Time, weekday time.Weekday) time.Time {
	y, m, _ := t.Date()
	lastDay := daysIn(y, m)
	last := time.Date(y, m, lastDay, 0, 0, 0, 0, t.Location())
	offset := (int(last.Weekday()) - int(weekday) + 7) % 7
	return time.Date(y, m, lastDay-offset, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// WithTimeOf combines t's date with the clock reading of source
func WithTimeOf(t, source time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, source.Hour(), source.Minute(), source.Second(), source.Nanosecond(), t.Location())
}

// NextOccurrenceOfWeekday returns the first date strictly after t that
// falls on weekday. It never returns t itself, even when t already matches.
func NextOccurrenceOfWeekday(t time.Time, weekday time.Weekday) time.Time {
	diff := (int(weekday) - int(t.Weekday()) + 7) % 7
	if diff == 0 {
		diff = 7
	}
	return AddDays(t, diff)
}

// StartOfMonth returns midnight of the first day of t's month
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's calendar day
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// Compare returns -1, 0 or +1 as a is before, equal to or after b
func Compare(a, b time.Time) int {
	return a.Compare(b)
}

// daysIn returns the number of days in month m of year y; the month may be
// out of range and is normalized the way time.Date does.
func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// civilDaysBetween counts calendar days from a's date to b's date,
// ignoring time of day and DST shifts.
func civilDaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// monthsBetween counts whole calendar months from a's month to b's month
func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
