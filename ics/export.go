// Package ics renders expanded occurrences as iCalendar (RFC 5545) and
// xCal (RFC 6321) documents.
//
// The exported event lists every occurrence explicitly: DTSTART is the
// first occurrence and each later one is an RDATE. Readers therefore see
// exactly the instants the engine produced, whatever their own RRULE
// interpretation.
package ics

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
)

// ProductID identifies this library in exported calendars
const ProductID = "-//librecur//recurrence expansion//EN"

// ErrNoOccurrences is returned when there is nothing to export or nothing
// could be read back
var ErrNoOccurrences = errors.New("no occurrences")

// ExportOptions controls the generated VEVENT
type ExportOptions struct {
	UID     string         // defaults to a random UUID
	Summary string         // optional SUMMARY
	Stamp   time.Time      // DTSTAMP, defaults to now
	UTC     bool           // write every instant in UTC instead of with TZID
	RRule   *rrule.ROption // optional informational RRULE, see RRuleOption
	Length  time.Duration  // optional DURATION of each occurrence
}

type event struct {
	uid         string
	summary     string
	stamp       time.Time
	rrule       *rrule.ROption
	length      time.Duration
	occurrences []time.Time
}

func newEvent(occurrences []time.Time, opts ExportOptions) (event, error) {
	if len(occurrences) == 0 {
		return event{}, ErrNoOccurrences
	}

	ev := event{
		uid:         opts.UID,
		summary:     opts.Summary,
		stamp:       opts.Stamp,
		rrule:       opts.RRule,
		length:      opts.Length,
		occurrences: slices.Clone(occurrences),
	}
	if ev.uid == "" {
		ev.uid = uuid.New().String()
	}
	if ev.stamp.IsZero() {
		ev.stamp = time.Now()
	}
	ev.stamp = ev.stamp.UTC()
	if opts.UTC {
		for i, t := range ev.occurrences {
			ev.occurrences[i] = t.UTC()
		}
	}

	return ev, nil
}

// Calendar builds a VCALENDAR holding one VEVENT for occurrences
func Calendar(occurrences []time.Time, opts ExportOptions) (*ical.Calendar, error) {
	ev, err := newEvent(occurrences, opts)
	if err != nil {
		return nil, err
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)

	vevent := ical.NewEvent()
	vevent.Props.SetText(ical.PropUID, ev.uid)
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, ev.stamp)
	vevent.Props.SetDateTime(ical.PropDateTimeStart, ev.occurrences[0])
	if ev.summary != "" {
		vevent.Props.SetText(ical.PropSummary, ev.summary)
	}
	if ev.length > 0 {
		vevent.Props.Set(durationProp(ev.length))
	}
	vevent.Props.SetRecurrenceRule(ev.rrule)
	for _, t := range ev.occurrences[1:] {
		rdate := ical.NewProp(ical.PropRecurrenceDates)
		rdate.SetDateTime(t)
		vevent.Props.Add(rdate)
	}

	cal.Children = append(cal.Children, vevent.Component)
	return cal, nil
}

// Encode writes occurrences to w as an iCalendar stream
func Encode(w io.Writer, occurrences []time.Time, opts ExportOptions) error {
	cal, err := Calendar(occurrences, opts)
	if err != nil {
		return err
	}
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encoding calendar: %w", err)
	}
	return nil
}

// Occurrences reads back DTSTART and every RDATE of each VEVENT in cal,
// sorted ascending. Floating values are read in loc (UTC when nil).
func Occurrences(cal *ical.Calendar, loc *time.Location) ([]time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	var out []time.Time
	for _, ev := range cal.Events() {
		start, err := ev.Props.DateTime(ical.PropDateTimeStart, loc)
		if err != nil {
			return nil, fmt.Errorf("reading DTSTART: %w", err)
		}
		if start.IsZero() {
			continue
		}
		out = append(out, start)

		for _, prop := range ev.Props.Values(ical.PropRecurrenceDates) {
			// A single RDATE may carry a comma separated list
			for _, value := range strings.Split(prop.Value, ",") {
				single := prop
				single.Value = strings.TrimSpace(value)
				if single.Value == "" {
					continue
				}
				t, err := single.DateTime(loc)
				if err != nil {
					return nil, fmt.Errorf("reading RDATE %q: %w", single.Value, err)
				}
				out = append(out, t)
			}
		}
	}

	if len(out) == 0 {
		return nil, ErrNoOccurrences
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// Decode parses an iCalendar stream and returns its occurrences
func Decode(r io.Reader, loc *time.Location) ([]time.Time, error) {
	cal, err := ical.NewDecoder(r).Decode()
	if err != nil {
		return nil, fmt.Errorf("decoding calendar: %w", err)
	}
	return Occurrences(cal, loc)
}

func durationProp(d time.Duration) *ical.Prop {
	prop := ical.NewProp(ical.PropDuration)
	prop.SetDuration(d)
	return prop
}
