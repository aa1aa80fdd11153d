package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		token    string
		expected time.Weekday
	}{
		{"sun", time.Sunday},
		{"MON", time.Monday},
		{"Tue", time.Tuesday},
		{"Wednesday", time.Wednesday},
		{"thursday", time.Thursday},
		{"Friday", time.Friday},
		{"sat", time.Saturday},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParseWeekday(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseWeekday_Invalid(t *testing.T) {
	for _, token := range []string{"", "sunday-ish", "FRIDAY", "mo", "7"} {
		t.Run(token, func(t *testing.T) {
			_, err := ParseWeekday(token)
			require.ErrorIs(t, err, ErrInvalidWeekdayToken)

			ve, ok := AsValidationError(err)
			require.True(t, ok)
			assert.Equal(t, token, ve.Value)
			assert.Equal(t, "repeat", ve.Field)
		})
	}
}

func TestParseWeekdays_SortsAndDeduplicates(t *testing.T) {
	got, err := ParseWeekdays([]string{"fri", "Monday", "mon", "sun", "Friday"})
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Sunday, time.Monday, time.Friday}, got)

	_, err = ParseWeekdays([]string{"mon", "someday"})
	assert.ErrorIs(t, err, ErrInvalidWeekdayToken)
}

func TestParseCadence(t *testing.T) {
	for input, expected := range map[string]Cadence{"daily": Daily, "Weekly": Weekly, " MONTHLY ": Monthly} {
		got, err := ParseCadence(input)
		require.NoError(t, err)
		assert.Equal(t, expected, got)
		assert.Equal(t, expected.String(), got.String())
	}

	_, err := ParseCadence("yearly")
	assert.ErrorIs(t, err, ErrInvalidCadence)
}

func TestParseMonthlyAnchor(t *testing.T) {
	got, err := ParseMonthlyAnchor("day-of-month")
	require.NoError(t, err)
	assert.Equal(t, DayOfMonth, got)

	got, err = ParseMonthlyAnchor("Day-Of-Week")
	require.NoError(t, err)
	assert.Equal(t, DayOfWeek, got)

	_, err = ParseMonthlyAnchor("last-friday")
	assert.ErrorIs(t, err, ErrInvalidMonthlyAnchor)
}

func TestValidationError(t *testing.T) {
	cause := errors.New("boom")
	err := NewValidationError(KindInvalidLimitFormat, "limit", "tomorrow-ish", cause)

	assert.Equal(t, `invalid_limit_format: limit="tomorrow-ish": boom`, err.Error())
	assert.ErrorIs(t, err, ErrInvalidLimitFormat)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrInvalidCadence)

	wrapped := errors.Join(errors.New("context"), err)
	ve, ok := AsValidationError(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindInvalidLimitFormat, ve.Kind)
}

func TestSpec_Normalize(t *testing.T) {
	start := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	weekdays := []time.Weekday{time.Friday, time.Monday, time.Friday}

	s := Spec{Start: start, Cadence: Weekly, Weekdays: weekdays}.Normalize(time.Time{})

	assert.Equal(t, 1, s.Interval)
	assert.Equal(t, []time.Weekday{time.Monday, time.Friday}, s.Weekdays)
	assert.Equal(t, time.Date(2044, 3, 10, 23, 59, 59, 999999999, time.UTC), s.Limit)
	assert.Equal(t, []time.Weekday{time.Friday, time.Monday, time.Friday}, weekdays, "input slice untouched")

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, now, Spec{Cadence: Daily}.Normalize(now).Start)
}
