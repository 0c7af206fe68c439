// Package calendar provides calendar-day keys and day arithmetic.
package calendar

import (
	"fmt"
	"time"
)

// KeyLayout is the layout of a date key.
const KeyLayout = "2006-01-02"

// anchorHour is the wall-clock hour day values are pinned to. Some zones skip
// or repeat the hour around midnight on DST changes; noon always exists.
const anchorHour = 12

// DateKey returns the YYYY-MM-DD key of the calendar day t falls on in t's location.
func DateKey(t time.Time) string {
	return t.Format(KeyLayout)
}

// ParseKey parses a date key into the local day value of that day.
func ParseKey(key string) (time.Time, error) {
	return ParseKeyIn(key, time.Local)
}

// ParseKeyIn parses a date key into the day value of that day in loc.
func ParseKeyIn(key string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(KeyLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", key, err)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, anchorHour, 0, 0, 0, loc), nil
}

// Day returns the day value of t's calendar day: noon in t's location.
// DateKey(Day(t)) == DateKey(t) for every t.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, anchorHour, 0, 0, 0, t.Location())
}

// AddDays returns the day value n calendar days after t's day.
func AddDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+n, anchorHour, 0, 0, 0, t.Location())
}

// DaysBetween returns the signed number of calendar days from a to b.
// Time of day is ignored on both sides.
func DaysBetween(a, b time.Time) int {
	return dayNumber(b) - dayNumber(a)
}

// dayNumber maps a calendar date onto a UTC day count, so DST never applies.
func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	u := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(u.Unix() / 86400)
}
