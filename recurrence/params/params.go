// Package params builds recurrence.Spec values from loosely typed input:
// decoded JSON/JSONC/YAML documents, form values or query parameters.
//
// Recognized keys are "from" (alias "start"), "timezone", "type" (alias
// "cadence"), "interval", "limit" and "repeat". Any other key is rejected
// with an unknown_field validation error.
package params

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cyp0633/librecur/recurrence"
)

// Layouts accepted for "from" and "limit" strings, tried in order
var Layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

type options struct {
	location *time.Location
	zoned    bool
	now      func() time.Time
}

// Option configures FromMap
type Option func(*options)

// WithLocation sets the timezone used when the input names none. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
			o.zoned = true
		}
	}
}

// WithClock sets the clock that supplies "from" when the input names a
// timezone but no start. Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

var fieldAliases = map[string]string{
	"from":     "from",
	"start":    "from",
	"timezone": "timezone",
	"type":     "type",
	"cadence":  "type",
	"interval": "interval",
	"limit":    "limit",
	"repeat":   "repeat",
}

// FromMap converts fields into a Spec. The returned Spec is not yet
// normalized; engines do that on Run. Errors are *recurrence.ValidationError.
func FromMap(fields map[string]any, opts ...Option) (recurrence.Spec, error) {
	o := options{location: time.UTC, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	// Canonicalize keys first so aliases collide predictably and the
	// first unknown key reported is stable.
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	values := make(map[string]any, len(fields))
	for _, key := range keys {
		canonical, ok := fieldAliases[key]
		if !ok {
			return recurrence.Spec{}, recurrence.NewValidationError(recurrence.KindUnknownField, key, fmt.Sprint(fields[key]), nil)
		}
		values[canonical] = fields[key]
	}

	loc := o.location
	if raw, ok := values["timezone"]; ok && raw != nil {
		name, ok := raw.(string)
		if !ok {
			return recurrence.Spec{}, invalidType("timezone", raw)
		}
		if name != "" {
			l, err := time.LoadLocation(name)
			if err != nil {
				return recurrence.Spec{}, recurrence.NewValidationError(recurrence.KindInvalidFieldType, "timezone", name, err)
			}
			loc = l
			o.zoned = true
		}
	}

	var spec recurrence.Spec
	var err error

	if spec.Start, err = parseStart(values["from"], loc); err != nil {
		return recurrence.Spec{}, err
	}
	if _, named := values["timezone"]; named && !spec.Start.IsZero() {
		spec.Start = spec.Start.In(loc)
	}
	// A zero start would be filled in the engine's location, losing loc
	if spec.Start.IsZero() && o.zoned {
		spec.Start = o.now().In(loc)
	}

	spec.Cadence = recurrence.Daily
	if raw, ok := values["type"]; ok && raw != nil {
		if spec.Cadence, err = parseCadence(raw); err != nil {
			return recurrence.Spec{}, err
		}
	}

	if spec.Interval, err = parseInterval(values["interval"]); err != nil {
		return recurrence.Spec{}, err
	}

	startLoc := loc
	if !spec.Start.IsZero() {
		startLoc = spec.Start.Location()
	}
	if spec.Limit, err = parseLimit(values["limit"], startLoc); err != nil {
		return recurrence.Spec{}, err
	}

	if raw, ok := values["repeat"]; ok && raw != nil {
		if err := applyRepeat(&spec, raw); err != nil {
			return recurrence.Spec{}, err
		}
	}

	return spec, nil
}

func invalidType(field string, raw any) error {
	return recurrence.NewValidationError(recurrence.KindInvalidFieldType, field, fmt.Sprintf("%T", raw), nil)
}

func parseStart(raw any, loc *time.Location) (time.Time, error) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case string:
		if v == "" {
			return time.Time{}, nil
		}
		t, err := parseTime(v, loc)
		if err != nil {
			return time.Time{}, recurrence.NewValidationError(recurrence.KindInvalidFieldType, "from", v, err)
		}
		return t, nil
	}
	return time.Time{}, invalidType("from", raw)
}

func parseLimit(raw any, loc *time.Location) (time.Time, error) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case string:
		if v == "" {
			return time.Time{}, nil
		}
		t, err := parseTime(v, loc)
		if err != nil {
			return time.Time{}, recurrence.NewValidationError(recurrence.KindInvalidLimitFormat, "limit", v, err)
		}
		return t, nil
	}
	return time.Time{}, recurrence.NewValidationError(recurrence.KindInvalidLimitFormat, "limit", fmt.Sprint(raw), nil)
}

// parseTime tries each of Layouts. Layouts without a zone are read in loc.
func parseTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	var firstErr error
	for _, layout := range Layouts {
		t, err := time.ParseInLocation(layout, value, loc)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func parseCadence(raw any) (recurrence.Cadence, error) {
	switch v := raw.(type) {
	case recurrence.Cadence:
		return v, nil
	case string:
		return recurrence.ParseCadence(v)
	}
	return recurrence.CadenceUnknown, recurrence.NewValidationError(recurrence.KindInvalidCadence, "type", fmt.Sprint(raw), nil)
}

// parseInterval accepts integers in any numeric or string form. Missing,
// zero and negative values are left for Normalize to coerce to 1.
func parseInterval(raw any) (int, error) {
	switch v := raw.(type) {
	case nil:
		return 1, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case int32:
		return int(v), nil
	case uint64:
		if v > math.MaxInt32 {
			return 0, recurrence.NewValidationError(recurrence.KindInvalidFieldType, "interval", strconv.FormatUint(v, 10), nil)
		}
		return int(v), nil
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
			return 0, recurrence.NewValidationError(recurrence.KindInvalidFieldType, "interval", strconv.FormatFloat(v, 'g', -1, 64), nil)
		}
		return int(v), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return 1, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, recurrence.NewValidationError(recurrence.KindInvalidFieldType, "interval", v, err)
		}
		return n, nil
	}
	return 0, invalidType("interval", raw)
}

// applyRepeat interprets repeat according to the cadence already on spec:
// a weekday list for weekly rules, an anchor name for monthly ones. Daily
// rules ignore it.
func applyRepeat(spec *recurrence.Spec, raw any) error {
	switch spec.Cadence {
	case recurrence.Weekly:
		tokens, err := stringList(raw)
		if err != nil {
			return err
		}
		days, err := recurrence.ParseWeekdays(tokens)
		if err != nil {
			return err
		}
		spec.Weekdays = days
	case recurrence.Monthly:
		switch v := raw.(type) {
		case recurrence.MonthlyAnchor:
			spec.Anchor = v
		case string:
			anchor, err := recurrence.ParseMonthlyAnchor(v)
			if err != nil {
				return err
			}
			spec.Anchor = anchor
		default:
			return recurrence.NewValidationError(recurrence.KindInvalidMonthlyAnchor, "repeat", fmt.Sprint(raw), nil)
		}
	}
	return nil
}

// stringList accepts []string, []any of strings, or a comma separated string
func stringList(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return v, nil
	case string:
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, recurrence.NewValidationError(recurrence.KindInvalidWeekdayToken, "repeat", fmt.Sprint(item), nil)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, invalidType("repeat", raw)
}
