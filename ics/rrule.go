package ics

import (
	"time"

	"github.com/teambition/rrule-go"

	"github.com/cyp0633/librecur/recurrence"
)

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// RRuleOption maps spec onto the closest RFC 5545 rule. The mapping is
// exact for daily rules and for weekly rules whose first week has nothing
// to suppress. It diverges where RFC 5545 has no equivalent policy: a
// monthly day-of-month rule skips the month after a short one too, and an
// ordinal weekday that does not exist falls back to the month's last one
// except for 5th weekdays which map onto BYDAY=-1.
func RRuleOption(spec recurrence.Spec) (*rrule.ROption, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	s := spec.Normalize(time.Now().In(time.UTC))

	opt := &rrule.ROption{
		Interval: s.Interval,
		Dtstart:  s.Start,
		Until:    s.Limit,
	}

	switch s.Cadence {
	case recurrence.Daily:
		opt.Freq = rrule.DAILY
	case recurrence.Weekly:
		opt.Freq = rrule.WEEKLY
		for _, wd := range s.Weekdays {
			opt.Byweekday = append(opt.Byweekday, rruleWeekdays[wd])
		}
	case recurrence.Monthly:
		opt.Freq = rrule.MONTHLY
		if s.Anchor == recurrence.DayOfMonth {
			opt.Bymonthday = []int{s.Start.Day()}
			break
		}
		n := recurrence.WeekOfMonth(s.Start)
		if n == 5 {
			n = -1
		}
		weekday := rruleWeekdays[s.Start.Weekday()]
		opt.Byweekday = []rrule.Weekday{weekday.Nth(n)}
	}

	return opt, nil
}

// ToRRule renders RRuleOption as an RRULE value without the DTSTART line
func ToRRule(spec recurrence.Spec) (string, error) {
	opt, err := RRuleOption(spec)
	if err != nil {
		return "", err
	}
	return opt.RRuleString(), nil
}
