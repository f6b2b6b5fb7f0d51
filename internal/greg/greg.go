// Package greg provides proleptic Gregorian calendar arithmetic on R.D.
// (Rata Die) day numbers.
//
// R.D. 1 is Monday, January 1 of year 1 in the proleptic Gregorian calendar.
// Years use astronomical numbering: year 0 is 1 BCE, year -1 is 2 BCE, etc.
// Every function here is pure and works for negative years and day numbers.
package greg

import (
	"fmt"
	"time"
)

// monthLengths holds days per month for common and leap years.
var monthLengths = [2][13]int{
	{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31},
	{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31},
}

// Mod returns x modulo y using floor semantics, so the result always has the
// sign of y. Mod(-1, 7) == 6, whereas -1 % 7 == -1 in Go.
func Mod(x, y int64) int64 {
	return x - y*FloorDiv(x, y)
}

// FloorDiv returns the largest integer less than or equal to x/y.
func FloorDiv(x, y int64) int64 {
	q := x / y
	if (x%y != 0) && ((x < 0) != (y < 0)) {
		q--
	}
	return q
}

// IsLeapYear reports whether year is a Gregorian leap year.
func IsLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// DaysInMonth returns the number of days in month (1-12) of year.
// It returns 0 for a month outside 1-12.
func DaysInMonth(month, year int) int {
	if month < 1 || month > 12 {
		return 0
	}
	leap := 0
	if IsLeapYear(year) {
		leap = 1
	}
	return monthLengths[leap][month]
}

// ToRD converts a Gregorian date to its R.D. day number.
func ToRD(year, month, day int) int64 {
	py := int64(year) - 1
	rd := 365*py +
		FloorDiv(py, 4) -
		FloorDiv(py, 100) +
		FloorDiv(py, 400) +
		FloorDiv(367*int64(month)-362, 12) +
		int64(day)

	if month > 2 {
		if IsLeapYear(year) {
			rd--
		} else {
			rd -= 2
		}
	}
	return rd
}

// yearFromRD returns the Gregorian year containing rd.
func yearFromRD(rd int64) int {
	d0 := rd - 1
	n400 := FloorDiv(d0, 146097)
	d1 := Mod(d0, 146097)
	n100 := FloorDiv(d1, 36524)
	d2 := Mod(d1, 36524)
	n4 := FloorDiv(d2, 1461)
	d3 := Mod(d2, 1461)
	n1 := FloorDiv(d3, 365)

	year := 400*n400 + 100*n100 + 4*n4 + n1
	if n100 != 4 && n1 != 4 {
		year++
	}
	return int(year)
}

// FromRD converts an R.D. day number to a Gregorian (year, month, day).
func FromRD(rd int64) (year, month, day int) {
	year = yearFromRD(rd)
	priorDays := rd - ToRD(year, 1, 1)

	var correction int64
	if rd >= ToRD(year, 3, 1) {
		if IsLeapYear(year) {
			correction = 1
		} else {
			correction = 2
		}
	}

	month = int(FloorDiv(12*(priorDays+correction)+373, 367))
	day = int(rd-ToRD(year, month, 1)) + 1
	return year, month, day
}

// Weekday returns the day of week of rd (0=Sunday ... 6=Saturday).
func Weekday(rd int64) time.Weekday {
	return time.Weekday(Mod(rd, 7))
}

// DayOnOrBefore returns the R.D. of the given weekday falling on or before rd.
func DayOnOrBefore(weekday time.Weekday, rd int64) int64 {
	return rd - Mod(rd-int64(weekday), 7)
}

// DayOnOrAfter returns the R.D. of the given weekday falling on or after rd.
func DayOnOrAfter(weekday time.Weekday, rd int64) int64 {
	return DayOnOrBefore(weekday, rd+6)
}

// Validate reports an error if (year, month, day) is not a valid Gregorian date.
func Validate(year, month, day int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("gregorian month %d out of range 1-12", month)
	}
	if limit := DaysInMonth(month, year); day < 1 || day > limit {
		return fmt.Errorf("gregorian day %d out of range 1-%d for %04d-%02d", day, limit, year, month)
	}
	return nil
}

// FromTime returns the R.D. of the calendar date of t in t's own location.
// The wall-clock part of t is ignored.
func FromTime(t time.Time) int64 {
	y, m, d := t.Date()
	return ToRD(y, int(m), d)
}

// ToTime returns midnight UTC of the Gregorian date rd.
func ToTime(rd int64) time.Time {
	y, m, d := FromRD(rd)
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// Format renders rd as YYYY-MM-DD. Years before 1 keep their sign.
func Format(rd int64) string {
	y, m, d := FromRD(rd)
	if y < 0 {
		return fmt.Sprintf("-%04d-%02d-%02d", -y, m, d)
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}
