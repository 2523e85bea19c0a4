package timezone

import (
	"fmt"
	"time"
)

// Load resolves an IANA zone name, an empty name means UTC.
func Load(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// Clock is the interface anything depending on the system clock should use.
type Clock interface {
	// Now returns the current time in the clock's location.
	Now() time.Time
	Location() *time.Location
}

type SystemClock struct {
	location *time.Location
}

func NewSystemClock(location *time.Location) SystemClock {
	if location == nil {
		location = time.UTC
	}
	return SystemClock{location: location}
}

func (c SystemClock) Now() time.Time {
	return time.Now().In(c.location)
}

func (c SystemClock) Location() *time.Location {
	return c.location
}

// FixedClock always returns the same instant.
type FixedClock struct {
	Time time.Time
}

func (c FixedClock) Now() time.Time {
	return c.Time
}

func (c FixedClock) Location() *time.Location {
	return c.Time.Location()
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthsBefore goes back n calendar months, clamping the day to the last
// day of the target month (May 31 minus 3 months is Feb 28/29) instead of
// overflowing into the following month like time.AddDate does.
func MonthsBefore(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	total := int(month) - 1 - n
	year += total / 12
	total %= 12
	if total < 0 {
		total += 12
		year--
	}
	target := time.Month(total + 1)
	if last := daysIn(year, target); day > last {
		day = last
	}
	return time.Date(
		year, target, day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(),
		t.Location(),
	)
}

const (
	isoLayout       = "2006-01-02T15:04:05-07:00"
	isoMicroLayout  = "2006-01-02T15:04:05.000000-07:00"
	naiveLayout     = "2006-01-02T15:04:05.999999999"
	naiveDateLayout = "2006-01-02"
)

// FormatISO renders t as ISO-8601 with a numeric offset (UTC is written
// +00:00, never Z) and microseconds only when they are non-zero.
func FormatISO(t time.Time) string {
	if t.Nanosecond()/1000 != 0 {
		return t.Format(isoMicroLayout)
	}
	return t.Format(isoLayout)
}

// ParseLocal parses an ISO-8601 timestamp. Timestamps without an offset
// are interpreted as wall clock time in loc, timestamps with one are
// converted into loc.
func ParseLocal(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range []string{naiveLayout, naiveDateLayout} {
		t, err := time.ParseInLocation(layout, value, loc)
		if err == nil {
			return t, nil
		}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return t.In(loc), nil
}
