package scheduling

import (
	"fmt"
	"strings"
	"time"
)

// Dates are stored day-first ("DD-MM-YYYY") while the API boundary speaks
// ISO ("YYYY-MM-DD"). Everything in this file normalizes to the stored
// form and compares through time.Time so both encodings sort correctly.

const (
	dateLayoutCanonical = "02-01-2006"
	dateLayoutISO       = "2006-01-02"
	timeLayout          = "15:04"
)

// NormalizeDate accepts an ISO or day-first date and returns the canonical
// day-first form. Impossible calendar dates are rejected.
func NormalizeDate(s string) (string, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return "", ErrBadDate
	}

	layout := dateLayoutCanonical
	if len(parts[0]) == 4 {
		layout = dateLayoutISO
	}

	t, err := time.Parse(layout, s)
	if err != nil {
		return "", ErrBadDate
	}

	return t.Format(dateLayoutCanonical), nil
}

// NormalizeTime validates an HH:MM value.
func NormalizeTime(s string) (string, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return "", ErrBadTime
	}
	return t.Format(timeLayout), nil
}

// ISODate converts a stored day-first date to the ISO form used at the
// API boundary.
func ISODate(s string) (string, error) {
	t, err := time.Parse(dateLayoutCanonical, s)
	if err != nil {
		return "", ErrBadDate
	}
	return t.Format(dateLayoutISO), nil
}

// CombineDateTime joins a canonical date and an HH:MM time into the
// combined form stored on appointments.
func CombineDateTime(date, clock string) string {
	return date + " " + clock
}

// SplitDateTime splits a combined "DD-MM-YYYY HH:MM" value.
func SplitDateTime(combined string) (date, clock string, err error) {
	parts := strings.Fields(combined)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("malformed date-time %q: %w", combined, ErrBadDate)
	}
	return parts[0], parts[1], nil
}

// ParseDateTime turns a date (either encoding) plus HH:MM into a concrete
// instant in the local clinic timezone.
func ParseDateTime(date, clock string) (time.Time, error) {
	d, err := NormalizeDate(date)
	if err != nil {
		return time.Time{}, err
	}
	c, err := NormalizeTime(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.ParseInLocation(dateLayoutCanonical+" "+timeLayout, d+" "+c, time.Local)
}

// ParseCombined parses the combined appointment form.
func ParseCombined(combined string) (time.Time, error) {
	date, clock, err := SplitDateTime(combined)
	if err != nil {
		return time.Time{}, err
	}
	return ParseDateTime(date, clock)
}

// CompareDateTime orders two (date, time) pairs, tolerating mixed date
// encodings. Unparseable values sort last so bad rows never hide good ones.
func CompareDateTime(dateA, clockA, dateB, clockB string) int {
	ta, errA := ParseDateTime(dateA, clockA)
	tb, errB := ParseDateTime(dateB, clockB)

	switch {
	case errA != nil && errB != nil:
		return 0
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	case ta.Before(tb):
		return -1
	case ta.After(tb):
		return 1
	default:
		return 0
	}
}

// SameCalendarDay reports whether two dates (either encoding) fall on the
// same calendar date.
func SameCalendarDay(dateA, dateB string) bool {
	a, errA := NormalizeDate(dateA)
	b, errB := NormalizeDate(dateB)
	if errA != nil || errB != nil {
		return false
	}
	return a == b
}
