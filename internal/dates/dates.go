package dates

import (
	"errors"
	"fmt"
	"time"
)

// Layout for dates persisted as strings. All scheduling math in this app is
// calendar-day granular, never timestamp granular, so dates are stored and
// compared without any time-of-day or timezone component.
const Layout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

// LocalDate is a calendar day in the user's local calendar.
// The zero value is "no date".
type LocalDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewLocalDate builds a LocalDate, normalizing overflow the same way
// time.Date does (e.g. Jan 32 -> Feb 1).
func NewLocalDate(year int, month time.Month, day int) LocalDate {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return LocalDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// FromTime extracts the calendar day of t in t's own location.
// This is the only correct way to derive "today" from a wall-clock reading;
// truncating to UTC shifts users west of Greenwich onto the wrong day.
func FromTime(t time.Time) LocalDate {
	return LocalDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Parse parses a YYYY-MM-DD string.
func Parse(s string) (LocalDate, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return LocalDate{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return FromTime(t), nil
}

// MustParse is a test/fixture helper; it panics on malformed input.
func MustParse(s string) LocalDate {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d LocalDate) String() string {
	return d.toTime().Format(Layout)
}

func (d LocalDate) IsZero() bool {
	return d == LocalDate{}
}

// toTime anchors the date at midnight UTC purely for arithmetic.
// The location is irrelevant as long as it is used consistently.
func (d LocalDate) toTime() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date n calendar days after d (n may be negative).
func (d LocalDate) AddDays(n int) LocalDate {
	return FromTime(d.toTime().AddDate(0, 0, n))
}

// Weekday returns the ISO-style ordinal weekday: 1 (Monday) through 7 (Sunday).
func (d LocalDate) Weekday() int {
	wd := int(d.toTime().Weekday())
	if wd == 0 {
		return 7 // Sunday
	}
	return wd
}

func (d LocalDate) Before(other LocalDate) bool {
	return d.toTime().Before(other.toTime())
}

func (d LocalDate) After(other LocalDate) bool {
	return d.toTime().After(other.toTime())
}

func (d LocalDate) Equal(other LocalDate) bool {
	return d == other
}

// DaysUntil returns the number of calendar days from d to other.
// Positive when other is after d.
func (d LocalDate) DaysUntil(other LocalDate) int {
	return int(other.toTime().Sub(d.toTime()) / (24 * time.Hour))
}

// SameCalendarDay reports whether two timestamps fall on the same calendar
// day when both are read in their own locations.
func SameCalendarDay(a, b time.Time) bool {
	return FromTime(a) == FromTime(b)
}

// Clock supplies "today" as a local calendar day. Injected everywhere
// scheduling math happens so date-rollover behavior is testable.
type Clock interface {
	Today() LocalDate
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location (the user's
// configured timezone).
type SystemClock struct {
	Location *time.Location
}

func NewSystemClock(loc *time.Location) SystemClock {
	if loc == nil {
		loc = time.Local
	}
	return SystemClock{Location: loc}
}

func (c SystemClock) Now() time.Time {
	return time.Now().In(c.Location)
}

func (c SystemClock) Today() LocalDate {
	return FromTime(c.Now())
}

// FixedClock always reports the same day. Test helper.
type FixedClock struct {
	Day  LocalDate
	Time time.Time
}

func (c FixedClock) Today() LocalDate {
	return c.Day
}

func (c FixedClock) Now() time.Time {
	if c.Time.IsZero() {
		return time.Date(c.Day.Year, c.Day.Month, c.Day.Day, 12, 0, 0, 0, time.UTC)
	}
	return c.Time
}
