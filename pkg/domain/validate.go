package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// DateLayout is the ISO-8601 calendar date format used for every date column.
const DateLayout = "2006-01-02"

var (
	// NamePattern accepts person names: letters with optional ',. - separators.
	NamePattern = regexp.MustCompile(`^[a-zA-Z]+(([',. -][a-zA-Z ])?[a-zA-Z]*)*$`)
	// PlatePattern accepts plates and zones: upper case letters or digits, single hyphens between.
	PlatePattern = regexp.MustCompile(`^[0-9A-Z]+(-?[0-9A-Z])*$`)
)

var (
	// ErrValidation is wrapped by every ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrUnknownEnum is returned when a symbolic name matches no enum value.
	ErrUnknownEnum = errors.New("unknown enum value")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e ValidationError) Unwrap() error { return ErrValidation }

func requiredErr(field string) error {
	return ValidationError{Field: field, Reason: "required"}
}

func invalidErr(field, reason string) error {
	return ValidationError{Field: field, Reason: reason}
}

func lengthWithin(s string, lo, hi int) bool {
	n := utf8.RuneCountInString(s)
	return n >= lo && n <= hi
}

// padded reports surrounding whitespace, which the table codec trims on read.
func padded(s string) bool { return s != strings.TrimSpace(s) }

// Day truncates t to its calendar date at UTC midnight. The zero time stays zero.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO-8601 calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders t with DateLayout.
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// YearsBetween counts complete years from start to end; negative spans give 0.
func YearsBetween(start, end time.Time) int {
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	years := ey - sy
	if em < sm || (em == sm && ed < sd) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
