package sleepcycle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTimeFormat is returned when a configured time is not a valid HH:MM.
var ErrInvalidTimeFormat = errors.New("invalid time format: expected HH:MM")

// ParseTimeOfDay splits an "HH:MM" string into hour and minute.
// A trailing ":SS" (as stored by SQL TIME columns) is validated and ignored.
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	hour, ok := clockField(parts[0], 23)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	minute, ok = clockField(parts[1], 59)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	if len(parts) == 3 {
		if _, ok := clockField(parts[2], 59); !ok {
			return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
		}
	}
	return hour, minute, nil
}

// clockField parses one or two ASCII digits no greater than max.
func clockField(s string, max int) (int, bool) {
	if len(s) == 0 || len(s) > 2 {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil || v > max {
		return 0, false
	}
	return v, true
}

// TimeOnDate combines the calendar date and location of base with hhmm.
func TimeOnDate(base time.Time, hhmm string) (time.Time, error) {
	h, m, err := ParseTimeOfDay(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	y, mon, d := base.Date()
	return time.Date(y, mon, d, h, m, 0, 0, base.Location()), nil
}

// ShiftDays moves t by n calendar days, keeping the wall clock. A wall clock
// that does not exist on the target day (a spring-forward gap) is resolved by
// the time package, so shifting there and back can land an hour off.
func ShiftDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// WithinTolerance reports whether |current - target| <= tol.
func WithinTolerance(current, target time.Time, tol time.Duration) bool {
	d := current.Sub(target)
	if d < 0 {
		d = -d
	}
	return d <= tol
}
