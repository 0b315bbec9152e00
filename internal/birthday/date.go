// Package birthday ranks contacts by the distance to their next birthday and derives ages from
// birthdays. All functions are pure: the reference date is always passed in by the caller.
package birthday

import (
	"errors"
	"time"
)

var (
	// ErrInvalidBirthday is returned when a birthday is not a valid calendar date.
	ErrInvalidBirthday = errors.New("invalid birthday")

	// ErrMissingBirthdayYear is returned when the year, month or day of a birthday is absent.
	ErrMissingBirthdayYear = errors.New("birthday year, month or day missing")
)

// Date is a calendar date in the local clock of the service.
type Date struct {
	Year  int
	Month int
	Day   int
}

// Clock supplies the current date. Handlers read it once per request so that all computations
// of that request see the same day.
type Clock func() Date

// FromTime returns the calendar date of t in t's location.
func FromTime(t time.Time) Date {
	year, month, day := t.Date()
	return Date{Year: year, Month: int(month), Day: day}
}

// Today returns the current local calendar date.
func Today() Date {
	return FromTime(time.Now())
}

// NextCalendarMonth returns the month following month, wrapping December to January.
func NextCalendarMonth(month int) int {
	if month == 12 {
		return 1
	}
	return month + 1
}

// MonthDiff is the number of months from refMonth forward to birthMonth, in the range 0 to 11.
func MonthDiff(birthMonth, refMonth int) int {
	return (birthMonth - refMonth + 12) % 12
}

func validMonth(month int) bool {
	return month >= 1 && month <= 12
}

// daysIn returns the number of days of the month in the given year.
func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
