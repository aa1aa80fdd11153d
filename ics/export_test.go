package ics

import (
	"bytes"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/beevik/etree"
	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"

	"github.com/cyp0633/librecur/recurrence"
)

func weeklyOccurrences(t *testing.T, loc *time.Location) []time.Time {
	t.Helper()
	got, err := recurrence.Run(recurrence.Spec{
		Start:    time.Date(2024, 1, 1, 9, 0, 0, 0, loc),
		Cadence:  recurrence.Weekly,
		Weekdays: []time.Weekday{time.Monday, time.Thursday},
		Limit:    time.Date(2024, 1, 31, 0, 0, 0, 0, loc),
	})
	require.NoError(t, err)

	// Jan 1 itself falls in the suppressed part of the first week
	var want []time.Time
	for _, day := range []int{4, 8, 11, 15, 18, 22, 25, 29} {
		want = append(want, time.Date(2024, 1, day, 9, 0, 0, 0, loc))
	}
	require.Equal(t, want, got)
	return got
}

func assertSameInstants(t *testing.T, want, got []time.Time) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Equal(got[i]), "index %d: want %s, got %s", i, want[i], got[i])
	}
}

func TestCalendar(t *testing.T) {
	occurrences := weeklyOccurrences(t, time.UTC)
	stamp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	cal, err := Calendar(occurrences, ExportOptions{UID: "standup@example.com", Summary: "Standup", Stamp: stamp, Length: 15 * time.Minute})
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 1)
	ev := events[0]

	uid, err := ev.Props.Text(ical.PropUID)
	require.NoError(t, err)
	assert.Equal(t, "standup@example.com", uid)

	summary, err := ev.Props.Text(ical.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "Standup", summary)

	length, err := ev.Props.Get(ical.PropDuration).Duration()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, length)
	assert.Nil(t, ev.Props.Get(ical.PropRecurrenceRule))
	assert.Len(t, ev.Props.Values(ical.PropRecurrenceDates), len(occurrences)-1)

	start, err := ev.Props.DateTime(ical.PropDateTimeStart, time.UTC)
	require.NoError(t, err)
	assert.True(t, start.Equal(occurrences[0]))
}

func TestCalendar_GeneratesUID(t *testing.T) {
	cal, err := Calendar(weeklyOccurrences(t, time.UTC), ExportOptions{})
	require.NoError(t, err)

	uid, err := cal.Events()[0].Props.Text(ical.PropUID)
	require.NoError(t, err)
	assert.Len(t, uid, 36)
}

func TestCalendar_Empty(t *testing.T) {
	_, err := Calendar(nil, ExportOptions{})
	assert.ErrorIs(t, err, ErrNoOccurrences)

	_, err = XCal(nil, ExportOptions{})
	assert.ErrorIs(t, err, ErrNoOccurrences)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	tests := []struct {
		name string
		loc  *time.Location
		opts ExportOptions
	}{
		{"utc", time.UTC, ExportOptions{}},
		{"tzid", berlin, ExportOptions{}},
		{"forced utc", berlin, ExportOptions{UTC: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occurrences := weeklyOccurrences(t, tt.loc)

			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, occurrences, tt.opts))
			out := buf.String()
			assert.Contains(t, out, "BEGIN:VCALENDAR")
			assert.Contains(t, out, "PRODID:"+ProductID)
			if tt.loc == berlin && !tt.opts.UTC {
				assert.Contains(t, out, "TZID=Europe/Berlin")
			}

			got, err := Decode(strings.NewReader(out), nil)
			require.NoError(t, err)
			assertSameInstants(t, occurrences, got)
		})
	}
}

func weeklyRule(t *testing.T) *rrule.ROption {
	t.Helper()
	opt, err := RRuleOption(recurrence.Spec{
		Start:    time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		Cadence:  recurrence.Weekly,
		Weekdays: []time.Weekday{time.Monday, time.Thursday},
		Limit:    time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return opt
}

func TestEncode_RecurrenceRule(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, weeklyOccurrences(t, time.UTC), ExportOptions{RRule: weeklyRule(t)})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "BYDAY=MO,TH")

	cal, err := ical.NewDecoder(strings.NewReader(buf.String())).Decode()
	require.NoError(t, err)
	opt, err := cal.Events()[0].Props.RecurrenceRule()
	require.NoError(t, err)
	require.NotNil(t, opt)

	assert.Equal(t, rrule.WEEKLY, opt.Freq)
	assert.Equal(t, []rrule.Weekday{rrule.MO, rrule.TH}, opt.Byweekday)
	assert.True(t, opt.Until.Equal(time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)))
}

func TestOccurrences_CommaSeparatedRDATE(t *testing.T) {
	input := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:1",
		"DTSTAMP:20240101T000000Z",
		"DTSTART:20240101T090000Z",
		"RDATE:20240103T090000Z,20240102T090000Z",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	got, err := Decode(strings.NewReader(input), nil)
	require.NoError(t, err)
	assertSameInstants(t, []time.Time{
		time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC),
	}, got)
}

func TestXCal_RoundTrip(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	for _, loc := range []*time.Location{time.UTC, tokyo} {
		t.Run(loc.String(), func(t *testing.T) {
			occurrences := weeklyOccurrences(t, loc)

			var buf bytes.Buffer
			require.NoError(t, EncodeXCal(&buf, occurrences, ExportOptions{UID: "x", Summary: "Sync"}))

			doc := etree.NewDocument()
			require.NoError(t, doc.ReadFromBytes(buf.Bytes()))
			assert.Equal(t, XCalNamespace, doc.Root().SelectAttrValue("xmlns", ""))
			assert.Equal(t, "Sync", doc.FindElement("//vevent/properties/summary/text").Text())

			got, err := XCalOccurrences(doc)
			require.NoError(t, err)
			assertSameInstants(t, occurrences, got)
		})
	}
}

func TestXCalOccurrences_Empty(t *testing.T) {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<icalendar xmlns="urn:ietf:params:xml:ns:icalendar-2.0"><vcalendar/></icalendar>`))
	_, err := XCalOccurrences(doc)
	assert.ErrorIs(t, err, ErrNoOccurrences)
}

func TestXCal_DurationAndRecur(t *testing.T) {
	doc, err := XCal(weeklyOccurrences(t, time.UTC), ExportOptions{UID: "x", RRule: weeklyRule(t), Length: 90 * time.Minute})
	require.NoError(t, err)

	props := doc.FindElement("//vevent/properties")
	require.NotNil(t, props)
	assert.Equal(t, "PT5400S", props.FindElement("duration/duration").Text())
	assert.Nil(t, props.FindElement("x-rrule"))

	recur := props.FindElement("rrule/recur")
	require.NotNil(t, recur)
	assert.Equal(t, "WEEKLY", recur.FindElement("freq").Text())
	assert.Equal(t, "2024-01-31T23:59:59Z", recur.FindElement("until").Text())
	assert.Equal(t, "1", recur.FindElement("interval").Text())

	var days []string
	for _, el := range recur.SelectElements("byday") {
		days = append(days, el.Text())
	}
	assert.Equal(t, []string{"MO", "TH"}, days)
	assert.Nil(t, recur.FindElement("bymonthday"))
}

func TestXCal_MonthlyRecur(t *testing.T) {
	opt, err := RRuleOption(recurrence.Spec{
		Start:   time.Date(2024, 1, 16, 14, 0, 0, 0, time.UTC),
		Cadence: recurrence.Monthly,
		Anchor:  recurrence.DayOfMonth,
		Limit:   time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	doc, err := XCal([]time.Time{time.Date(2024, 2, 16, 14, 0, 0, 0, time.UTC)}, ExportOptions{RRule: opt})
	require.NoError(t, err)

	recur := doc.FindElement("//vevent/properties/rrule/recur")
	require.NotNil(t, recur)
	assert.Equal(t, "MONTHLY", recur.FindElement("freq").Text())
	assert.Equal(t, "16", recur.FindElement("bymonthday").Text())
	assert.Empty(t, recur.SelectElements("byday"))
}

func TestToRRule(t *testing.T) {
	start := time.Date(2024, 1, 16, 14, 0, 0, 0, time.UTC)
	limit := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		spec  recurrence.Spec
		parts []string
	}{
		{
			name:  "daily",
			spec:  recurrence.Spec{Start: start, Cadence: recurrence.Daily, Interval: 2, Limit: limit},
			parts: []string{"FREQ=DAILY", "INTERVAL=2", "UNTIL=20241231T235959Z"},
		},
		{
			name:  "weekly",
			spec:  recurrence.Spec{Start: start, Cadence: recurrence.Weekly, Weekdays: []time.Weekday{time.Thursday, time.Monday}, Limit: limit},
			parts: []string{"FREQ=WEEKLY", "BYDAY=MO,TH"},
		},
		{
			name:  "monthly by day",
			spec:  recurrence.Spec{Start: start, Cadence: recurrence.Monthly, Anchor: recurrence.DayOfMonth, Limit: limit},
			parts: []string{"FREQ=MONTHLY", "BYMONTHDAY=16"},
		},
		{
			name:  "monthly by third weekday",
			spec:  recurrence.Spec{Start: start, Cadence: recurrence.Monthly, Anchor: recurrence.DayOfWeek, Limit: limit},
			parts: []string{"FREQ=MONTHLY", "BYDAY=", "3TU"},
		},
		{
			name:  "fifth weekday maps to last",
			spec:  recurrence.Spec{Start: time.Date(2024, 3, 29, 9, 0, 0, 0, time.UTC), Cadence: recurrence.Monthly, Anchor: recurrence.DayOfWeek, Limit: limit},
			parts: []string{"BYDAY=-1FR"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToRRule(tt.spec)
			require.NoError(t, err)
			for _, part := range tt.parts {
				assert.Contains(t, got, part)
			}

			_, err = rrule.StrToROption(got)
			assert.NoError(t, err, "rendered rule must parse back")
		})
	}
}

func TestToRRule_Invalid(t *testing.T) {
	_, err := ToRRule(recurrence.Spec{Cadence: recurrence.Monthly})
	assert.ErrorIs(t, err, recurrence.ErrInvalidMonthlyAnchor)
}
