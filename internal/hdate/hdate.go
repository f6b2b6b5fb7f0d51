// Package hdate implements the arithmetic Hebrew calendar.
//
// Dates convert to and from R.D. day numbers (see package greg), so a
// Hebrew date can be bridged to any Gregorian date and back. Years are
// counted Anno Mundi; the calendar epoch (1 Tishrei AM 1) is R.D. -1373427.
package hdate

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/zapponejosh/parsha-api/internal/greg"
)

// epoch + ElapsedDays(year) is the R.D. of 1 Tishrei of year.
const epoch int64 = -1373428

// Mean length of a Hebrew year in days (235 lunations / 19 years).
const avgYearDays = 365.24682220597794

// ErrInvalidDate is returned for a (year, month, day) that does not name a
// day of the Hebrew calendar.
var ErrInvalidDate = errors.New("invalid hebrew date")

// HDate is an immutable Hebrew calendar date. Both the field form and the
// R.D. form are fixed at construction, so every accessor is O(1).
type HDate struct {
	year  int
	month Month
	day   int
	rd    int64
}

// New returns the Hebrew date (year, month, day). Month 13 in a common
// year is read as Adar. It fails with ErrInvalidDate for years below 1,
// an unknown month, or a day outside the month.
func New(year int, month Month, day int) (HDate, error) {
	if year < 1 {
		return HDate{}, fmt.Errorf("%w: year %d must be at least 1", ErrInvalidDate, year)
	}
	if month < Nisan || month > AdarII {
		return HDate{}, fmt.Errorf("%w: month %d out of range 1-13", ErrInvalidDate, int(month))
	}
	if month == AdarII && !IsLeapYear(year) {
		month = AdarI
	}
	if limit := DaysInMonth(month, year); day < 1 || day > limit {
		return HDate{}, fmt.Errorf("%w: day %d out of range 1-%d for %s %d",
			ErrInvalidDate, day, limit, MonthName(month, year), year)
	}
	return HDate{year: year, month: month, day: day, rd: ToRD(year, month, day)}, nil
}

// MustNew is like New but panics on an invalid date. It is intended for
// tables and tests.
func MustNew(year int, month Month, day int) HDate {
	d, err := New(year, month, day)
	if err != nil {
		panic(err)
	}
	return d
}

// FromRD returns the Hebrew date of R.D. rd. It is total: dates before
// the epoch come back with a year below 1. The field form is computed here,
// once, rather than on first access.
func FromRD(rd int64) HDate {
	y, m, d := fromRD(rd)
	return HDate{year: y, month: m, day: d, rd: rd}
}

// FromTime returns the Hebrew date of t's calendar day. The Hebrew day is
// taken to coincide with the civil day; sunset is not considered.
func FromTime(t time.Time) HDate {
	return FromRD(greg.FromTime(t))
}

// FromGregorian returns the Hebrew date of a Gregorian (year, month, day).
func FromGregorian(year, month, day int) (HDate, error) {
	if err := greg.Validate(year, month, day); err != nil {
		return HDate{}, err
	}
	return FromRD(greg.ToRD(year, month, day)), nil
}

// ToRD converts a Hebrew date to an R.D. day number. The caller is
// responsible for passing a valid date; out-of-range days are counted
// forward from the start of the month.
func ToRD(year int, month Month, day int) int64 {
	leap, length := IsLeapYear(year), DaysInYear(year)
	tempabs := int64(day)
	if month < Tishrei {
		for m := Tishrei; int(m) <= MonthsInYear(year); m++ {
			tempabs += int64(daysInMonth(m, leap, length))
		}
		for m := Nisan; m < month; m++ {
			tempabs += int64(daysInMonth(m, leap, length))
		}
	} else {
		for m := Tishrei; m < month; m++ {
			tempabs += int64(daysInMonth(m, leap, length))
		}
	}
	return epoch + ElapsedDays(year) + tempabs - 1
}

// NewYear returns the R.D. of 1 Tishrei of year.
func NewYear(year int) int64 {
	return epoch + ElapsedDays(year)
}

func fromRD(rd int64) (int, Month, int) {
	year := int(math.Floor(float64(rd-epoch) / avgYearDays))
	for NewYear(year) > rd {
		year--
	}
	for NewYear(year+1) <= rd {
		year++
	}

	leap, length := IsLeapYear(year), DaysInYear(year)
	month, start := Tishrei, NewYear(year)
	if nisan := ToRD(year, Nisan, 1); rd >= nisan {
		month, start = Nisan, nisan
	}
	for {
		n := int64(daysInMonth(month, leap, length))
		if rd < start+n {
			break
		}
		start += n
		month++
	}
	return year, month, int(rd-start) + 1
}

// Year returns the Anno Mundi year.
func (d HDate) Year() int { return d.year }

// Month returns the month (Nisan = 1).
func (d HDate) Month() Month { return d.month }

// Day returns the day of the month.
func (d HDate) Day() int { return d.day }

// RD returns the R.D. day number.
func (d HDate) RD() int64 { return d.rd }

// IsZero reports whether d is the zero HDate, which names no date.
func (d HDate) IsZero() bool { return d.year == 0 && d.month == 0 }

func (d HDate) Weekday() time.Weekday { return greg.Weekday(d.rd) }

func (d HDate) IsLeapYear() bool { return IsLeapYear(d.year) }

func (d HDate) DaysInMonth() int { return DaysInMonth(d.month, d.year) }

func (d HDate) MonthName() string { return MonthName(d.month, d.year) }

// Greg returns midnight UTC of the corresponding Gregorian day.
func (d HDate) Greg() time.Time { return greg.ToTime(d.rd) }

// String renders d as "15 Nisan 5784".
func (d HDate) String() string {
	return fmt.Sprintf("%d %s %d", d.day, d.MonthName(), d.year)
}

// Add returns the date days after d. Negative days move backwards.
func (d HDate) Add(days int) HDate {
	return FromRD(d.rd + int64(days))
}

// AddMonths returns the date n months after d, counting months in
// calendar order from Tishrei. The day is clamped to the target month's
// length, so 30 Kislev plus one year of months may land on 29 Kislev.
func (d HDate) AddMonths(n int) HDate {
	year := d.year
	i := index(d.month, year) + n
	for i < 0 {
		year--
		i += MonthsInYear(year)
	}
	for i >= MonthsInYear(year) {
		i -= MonthsInYear(year)
		year++
	}
	month := monthAt(i, year)
	day := min(d.day, DaysInMonth(month, year))
	return HDate{year: year, month: month, day: day, rd: ToRD(year, month, day)}
}

// AddYears returns the same month and day n years later. Adar II becomes
// Adar in a common year, and 30 Adar I becomes 1 Nisan; days that do not
// exist in the target month roll forward as Normalize does.
func (d HDate) AddYears(n int) HDate {
	month := d.month
	year := d.year + n
	if month == AdarII && !IsLeapYear(year) {
		month = AdarI
	}
	out, err := Normalize(year, month, d.day)
	if err != nil {
		return FromRD(ToRD(year, month, 1) + int64(d.day) - 1)
	}
	return out
}

// Compare returns -1, 0 or +1 as d is before, equal to or after other.
func (d HDate) Compare(other HDate) int {
	switch {
	case d.rd < other.rd:
		return -1
	case d.rd > other.rd:
		return 1
	default:
		return 0
	}
}

func (d HDate) Before(other HDate) bool { return d.rd < other.rd }

func (d HDate) After(other HDate) bool { return d.rd > other.rd }

func (d HDate) Equal(other HDate) bool { return d.rd == other.rd }

// DayOnOrBefore returns the date of weekday falling on or before d.
func (d HDate) DayOnOrBefore(weekday time.Weekday) HDate {
	return FromRD(greg.DayOnOrBefore(weekday, d.rd))
}

// DayOnOrAfter returns the date of weekday falling on or after d.
func (d HDate) DayOnOrAfter(weekday time.Weekday) HDate {
	return FromRD(greg.DayOnOrAfter(weekday, d.rd))
}
