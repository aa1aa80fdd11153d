package recurrence

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a validation failure
type ErrorKind string

const (
	KindInvalidCadence       ErrorKind = "invalid_cadence"
	KindInvalidMonthlyAnchor ErrorKind = "invalid_monthly_anchor"
	KindInvalidWeekdayToken  ErrorKind = "invalid_weekday_token"
	KindInvalidLimitFormat   ErrorKind = "invalid_limit_format"
	KindEmptyWeekdays        ErrorKind = "empty_weekdays"
	KindUnknownField         ErrorKind = "unknown_field"
	KindInvalidFieldType     ErrorKind = "invalid_field_type"
	KindUnboundedGeneration  ErrorKind = "unbounded_generation"
)

// Sentinels matched by errors.Is against any *ValidationError of the same kind
var (
	ErrInvalidCadence       = errors.New("invalid cadence")
	ErrInvalidMonthlyAnchor = errors.New("invalid monthly anchor")
	ErrInvalidWeekdayToken  = errors.New("invalid weekday token")
	ErrInvalidLimitFormat   = errors.New("invalid limit format")
	ErrEmptyWeekdays        = errors.New("weekly rule has no weekdays")
	ErrUnknownField         = errors.New("unknown field")
	ErrInvalidFieldType     = errors.New("invalid field type")
	ErrUnboundedGeneration  = errors.New("generation exceeds configured bounds")
)

var sentinels = map[ErrorKind]error{
	KindInvalidCadence:       ErrInvalidCadence,
	KindInvalidMonthlyAnchor: ErrInvalidMonthlyAnchor,
	KindInvalidWeekdayToken:  ErrInvalidWeekdayToken,
	KindInvalidLimitFormat:   ErrInvalidLimitFormat,
	KindEmptyWeekdays:        ErrEmptyWeekdays,
	KindUnknownField:         ErrUnknownField,
	KindInvalidFieldType:     ErrInvalidFieldType,
	KindUnboundedGeneration:  ErrUnboundedGeneration,
}

// ValidationError reports a rule that cannot be expanded. It carries the
// offending field and value rather than a user-facing message; presenting
// it is up to the caller.
type ValidationError struct {
	Kind  ErrorKind
	Field string
	Value string
	Err   error // underlying cause, e.g. a time.ParseError
}

func newValidationError(kind ErrorKind, field, value string, err error) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Value: value, Err: err}
}

// NewValidationError builds a ValidationError for adapters living outside
// this package.
func NewValidationError(kind ErrorKind, field, value string, err error) *ValidationError {
	return newValidationError(kind, field, value, err)
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: %s=%q", e.Kind, e.Field, e.Value)
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Is reports whether target is the sentinel for e's kind
func (e *ValidationError) Is(target error) bool {
	sentinel, ok := sentinels[e.Kind]
	return ok && sentinel == target
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// AsValidationError is a shorthand for errors.As with *ValidationError
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
