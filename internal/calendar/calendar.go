// Package calendar provides the date-key utilities shared by the engines:
// local calendar days as "YYYY-MM-DD" keys, month keys, and day-difference
// arithmetic in UTC calendar days.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// DateLayout formats a calendar day key.
	DateLayout = "2006-01-02"
	// MonthLayout formats a calendar month key.
	MonthLayout = "2006-01"
)

// ErrInvalidDateKey is returned when a string is not a valid YYYY-MM-DD key.
var ErrInvalidDateKey = errors.New("invalid date key")

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock {
	return ClockFunc(time.Now)
}

// LocalDateKey returns the calendar day of t in loc. A nil loc means UTC.
func LocalDateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// MonthKey returns the calendar month of t in loc. A nil loc means UTC.
func MonthKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(MonthLayout)
}

// ParseDateKey parses a day key as midnight UTC.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, key, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateKey, key)
	}
	return t, nil
}

// IsDateKey reports whether key is a well-formed day key.
func IsDateKey(key string) bool {
	_, err := ParseDateKey(key)
	return err == nil
}

// MonthOf returns the month key of a day key.
func MonthOf(dateKey string) (string, error) {
	t, err := ParseDateKey(dateKey)
	if err != nil {
		return "", err
	}
	return t.Format(MonthLayout), nil
}

// DaysBetween returns the number of UTC calendar days from one key to another.
// The result is negative when to precedes from.
func DaysBetween(from, to string) (int, error) {
	f, err := ParseDateKey(from)
	if err != nil {
		return 0, err
	}
	t, err := ParseDateKey(to)
	if err != nil {
		return 0, err
	}
	// Both values are UTC midnights, so the division is exact.
	return int(t.Sub(f).Hours() / 24), nil
}

type locationKey struct{}

// WithLocation returns a copy of ctx carrying the caller's time zone.
func WithLocation(ctx context.Context, loc *time.Location) context.Context {
	return context.WithValue(ctx, locationKey{}, loc)
}

// LocationFromContext returns the caller's time zone, or UTC when none was set.
func LocationFromContext(ctx context.Context) *time.Location {
	if loc, ok := ctx.Value(locationKey{}).(*time.Location); ok && loc != nil {
		return loc
	}
	return time.UTC
}
