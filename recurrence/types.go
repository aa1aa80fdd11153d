package recurrence

import (
	"strings"
	"time"
)

// Cadence is the recurrence family of a rule
type Cadence int

const (
	// CadenceUnknown is the zero value and never passes validation
	CadenceUnknown Cadence = iota
	Daily
	Weekly
	Monthly
)

func (c Cadence) String() string {
	switch c {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	default:
		return "unknown"
	}
}

// ParseCadence resolves the textual cadence names used by rule files and
// query parameters. Matching is case-insensitive.
func ParseCadence(s string) (Cadence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	case "monthly":
		return Monthly, nil
	}
	return CadenceUnknown, newValidationError(KindInvalidCadence, "type", s, nil)
}

// MonthlyAnchor selects what a monthly rule keeps constant from month to month
type MonthlyAnchor int

const (
	AnchorUnknown MonthlyAnchor = iota
	// DayOfMonth anchors on the numeric day of the start date (e.g. the 15th)
	DayOfMonth
	// DayOfWeek anchors on the ordinal weekday of the start date (e.g. the 3rd Tuesday)
	DayOfWeek
)

func (a MonthlyAnchor) String() string {
	switch a {
	case DayOfMonth:
		return "day-of-month"
	case DayOfWeek:
		return "day-of-week"
	default:
		return "unknown"
	}
}

// ParseMonthlyAnchor accepts "day-of-month" and "day-of-week"
func ParseMonthlyAnchor(s string) (MonthlyAnchor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day-of-month":
		return DayOfMonth, nil
	case "day-of-week":
		return DayOfWeek, nil
	}
	return AnchorUnknown, newValidationError(KindInvalidMonthlyAnchor, "repeat", s, nil)
}

var (
	weekdaysShort = [...]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}
	weekdaysLong  = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
)

// ParseWeekday resolves a weekday token. Three-letter abbreviations match in
// any case ("sun", "MON"); full names match with the first letter in any case
// ("Sunday", "monday").
func ParseWeekday(token string) (time.Weekday, error) {
	lower := strings.ToLower(token)
	for i, short := range weekdaysShort {
		if lower == short {
			return time.Weekday(i), nil
		}
	}

	if token != "" {
		capitalized := strings.ToUpper(token[:1]) + token[1:]
		for i, long := range weekdaysLong {
			if capitalized == long {
				return time.Weekday(i), nil
			}
		}
	}

	return time.Sunday, newValidationError(KindInvalidWeekdayToken, "repeat", token, nil)
}

// ParseWeekdays resolves every token and returns the normalized weekday set.
// The first unresolvable token fails the whole call.
func ParseWeekdays(tokens []string) ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(tokens))
	for _, token := range tokens {
		day, err := ParseWeekday(token)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return NormalizeWeekdays(days), nil
}
