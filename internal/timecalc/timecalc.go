// Package timecalc implements the due-date time normalisation used when
// overriding and restoring submission dates.
package timecalc

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Time is an immutable time-of-day value.
type Time struct {
	hour   int
	minute int
}

// New builds a Time from an hour (0-23) and minute (0-59).
func New(hour, minute int) Time {
	return Time{hour: hour, minute: minute}
}

// Parse reads a "HH:MM" string into a Time.
func Parse(raw string) (Time, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return Time{}, fmt.Errorf("invalid time %q", raw)
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Time{}, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Time{}, fmt.Errorf("invalid minute in %q", raw)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Time{}, fmt.Errorf("time %q out of range", raw)
	}
	return Time{hour: hour, minute: minute}, nil
}

// Hour returns the hour component.
func (t Time) Hour() int {
	return t.hour
}

// Minute returns the minute component.
func (t Time) Minute() int {
	return t.minute
}

// Equal reports component-wise equality.
func (t Time) Equal(other Time) bool {
	return t.hour == other.hour && t.minute == other.minute
}

// String renders the value as "HH:MM".
func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d", t.hour, t.minute)
}

// Recalculate computes a new unix timestamp for ts with its time-of-day
// replaced by target, keeping the calendar day unchanged in loc. Minutes are
// floored to the nearest multiple of 5 before comparison. It returns false
// when no change is needed: either the truncated time already equals target,
// or it matches one of the ignore entries.
//
// The calendar day never rolls over, even when target is earlier than the
// current time-of-day. Restore and reporting flows depend on this same-day
// behaviour.
func Recalculate(ts int64, target Time, ignore []Time, loc *time.Location) (int64, bool) {
	if loc == nil {
		loc = time.Local
	}

	current := time.Unix(ts, 0).In(loc)
	truncated := New(current.Hour(), current.Minute()-current.Minute()%5)

	if truncated.Equal(target) {
		return 0, false
	}
	for _, skip := range ignore {
		if truncated.Equal(skip) {
			return 0, false
		}
	}

	next := time.Date(current.Year(), current.Month(), current.Day(), target.Hour(), target.Minute(), 0, 0, loc)
	return next.Unix(), true
}
