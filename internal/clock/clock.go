// Package clock supplies the current date to services so that due-date and
// overdue logic never reads the system clock directly.
package clock

import "time"

// Clock reports the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// Fixed always reports the same instant. Used by tests and by the CLI when a
// date is given explicitly.
type Fixed time.Time

func (f Fixed) Now() time.Time {
	return time.Time(f)
}

// Today truncates the clock's current instant to a calendar date.
func Today(c Clock) time.Time {
	return Date(c.Now())
}

// Date drops the time-of-day, keeping the calendar day in the value's own
// location, and returns it as midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	return Date(t), nil
}
