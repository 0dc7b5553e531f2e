package service

import (
	"fmt"
	"time"
)

// Location resolves a club's configured timezone name
func Location(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	return loc, nil
}

// DateIn truncates a timestamp to midnight of its calendar day in loc. All
// date bookkeeping runs through this so a run close to midnight lands on the
// correct day for the club, not for the host clock.
func DateIn(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// DaysSince returns the number of whole calendar days from start to asOf in
// loc, never negative. Same day yields 0.
func DaysSince(start, asOf time.Time, loc *time.Location) int {
	from := DateIn(start, loc)
	to := DateIn(asOf, loc)
	// Re-anchor both dates in UTC so DST transitions cannot skew the
	// duration by an hour and truncate a day.
	fromUTC := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toUTC := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	days := int(toUTC.Sub(fromUTC) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days
}

// SameDay reports whether two timestamps fall on the same calendar day in loc
func SameDay(a, b time.Time, loc *time.Location) bool {
	return DateIn(a, loc).Equal(DateIn(b, loc))
}

// IsNewDay reports whether asOf falls on a later calendar day than last in loc
func IsNewDay(last, asOf time.Time, loc *time.Location) bool {
	return DateIn(asOf, loc).After(DateIn(last, loc))
}

// IsNewMonth reports whether asOf falls in a later calendar month than last in loc
func IsNewMonth(last, asOf time.Time, loc *time.Location) bool {
	lastLocal := last.In(loc)
	asOfLocal := asOf.In(loc)
	if asOfLocal.Year() != lastLocal.Year() {
		return asOfLocal.Year() > lastLocal.Year()
	}
	return asOfLocal.Month() > lastLocal.Month()
}

// FirstOfMonth returns midnight on the first day of asOf's month in loc
func FirstOfMonth(asOf time.Time, loc *time.Location) time.Time {
	local := asOf.In(loc)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
}
