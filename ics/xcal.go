package ics

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/teambition/rrule-go"
)

// XCalNamespace is the RFC 6321 iCalendar XML namespace
const XCalNamespace = "urn:ietf:params:xml:ns:icalendar-2.0"

const (
	xcalDateTimeUTC   = "2006-01-02T15:04:05Z"
	xcalDateTimeLocal = "2006-01-02T15:04:05"
)

// XCal builds an xCal document equivalent to Calendar
func XCal(occurrences []time.Time, opts ExportOptions) (*etree.Document, error) {
	ev, err := newEvent(occurrences, opts)
	if err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)

	root := doc.CreateElement("icalendar")
	root.CreateAttr("xmlns", XCalNamespace)

	vcalendar := root.CreateElement("vcalendar")
	calProps := vcalendar.CreateElement("properties")
	addText(calProps, "version", "2.0")
	addText(calProps, "prodid", ProductID)

	vevent := vcalendar.CreateElement("components").CreateElement("vevent")
	props := vevent.CreateElement("properties")
	addText(props, "uid", ev.uid)
	addDateTimes(props, "dtstamp", ev.stamp)
	addDateTimes(props, "dtstart", ev.occurrences[0])
	if ev.summary != "" {
		addText(props, "summary", ev.summary)
	}
	if ev.length > 0 {
		props.CreateElement("duration").CreateElement("duration").SetText(durationProp(ev.length).Value)
	}
	if ev.rrule != nil {
		addRecur(props, ev.rrule)
	}
	if len(ev.occurrences) > 1 {
		addDateTimes(props, "rdate", ev.occurrences[1:]...)
	}

	return doc, nil
}

// EncodeXCal writes occurrences to w as an indented xCal document
func EncodeXCal(w io.Writer, occurrences []time.Time, opts ExportOptions) error {
	doc, err := XCal(occurrences, opts)
	if err != nil {
		return err
	}
	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("writing xcal: %w", err)
	}
	return nil
}

// XCalOccurrences reads dtstart and rdate values of every vevent back out
// of an xCal document, sorted ascending
func XCalOccurrences(doc *etree.Document) ([]time.Time, error) {
	var out []time.Time

	for _, vevent := range doc.FindElements("//vcalendar/components/vevent") {
		props := vevent.SelectElement("properties")
		if props == nil {
			continue
		}
		for _, tag := range []string{"dtstart", "rdate"} {
			for _, prop := range props.SelectElements(tag) {
				loc := time.UTC
				if tzid := prop.FindElement("parameters/tzid/text"); tzid != nil {
					l, err := time.LoadLocation(tzid.Text())
					if err != nil {
						return nil, fmt.Errorf("loading tzid %q: %w", tzid.Text(), err)
					}
					loc = l
				}
				for _, value := range prop.SelectElements("date-time") {
					t, err := parseXCalDateTime(value.Text(), loc)
					if err != nil {
						return nil, err
					}
					out = append(out, t)
				}
			}
		}
	}

	if len(out) == 0 {
		return nil, ErrNoOccurrences
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func addText(parent *etree.Element, name, value string) {
	parent.CreateElement(name).CreateElement("text").SetText(value)
}

// addRecur writes opt as an rrule property holding a structured recur
// value, with the parts in RFC 6321 schema order.
func addRecur(parent *etree.Element, opt *rrule.ROption) {
	recur := parent.CreateElement("rrule").CreateElement("recur")
	recur.CreateElement("freq").SetText(opt.Freq.String())
	switch {
	case !opt.Until.IsZero():
		recur.CreateElement("until").SetText(opt.Until.UTC().Format(xcalDateTimeUTC))
	case opt.Count > 0:
		recur.CreateElement("count").SetText(strconv.Itoa(opt.Count))
	}
	if opt.Interval > 0 {
		recur.CreateElement("interval").SetText(strconv.Itoa(opt.Interval))
	}
	for _, wd := range opt.Byweekday {
		recur.CreateElement("byday").SetText(wd.String())
	}
	for _, day := range opt.Bymonthday {
		recur.CreateElement("bymonthday").SetText(strconv.Itoa(day))
	}
}

// addDateTimes writes one property holding times, which must share a
// location. UTC values are written with a Z suffix, everything else as
// local time with a tzid parameter.
func addDateTimes(parent *etree.Element, name string, times ...time.Time) {
	prop := parent.CreateElement(name)
	loc := times[0].Location()
	if loc != time.UTC {
		prop.CreateElement("parameters").CreateElement("tzid").CreateElement("text").SetText(loc.String())
	}
	for _, t := range times {
		if loc == time.UTC {
			prop.CreateElement("date-time").SetText(t.UTC().Format(xcalDateTimeUTC))
		} else {
			prop.CreateElement("date-time").SetText(t.In(loc).Format(xcalDateTimeLocal))
		}
	}
}

func parseXCalDateTime(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(xcalDateTimeUTC, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(xcalDateTimeLocal, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing xcal date-time %q: %w", value, err)
	}
	return t, nil
}
