package hdate

import "fmt"

// Normalize turns an out-of-range (year, month, day) into a valid date.
//
// A month above the year's month count continues into the next year and a
// month below 1 falls back into the previous one; Adar II in a common year
// becomes Adar. Days past the end of a month spill into the following
// months (Elul spills into Tishrei of the next year) and days below 1
// borrow from the preceding months. The result is an error only when the
// cascade lands before AM 1.
func Normalize(year int, month Month, day int) (HDate, error) {
	for {
		switch {
		case month < Nisan:
			year--
			month += Month(MonthsInYear(year))
			continue
		case int(month) > MonthsInYear(year) && month != AdarII:
			month -= Month(MonthsInYear(year))
			year++
			continue
		case month == AdarII && !IsLeapYear(year):
			month = AdarI
			continue
		}
		if year < 1 {
			return HDate{}, fmt.Errorf("%w: normalized year %d is before AM 1", ErrInvalidDate, year)
		}

		if day < 1 {
			m, back := prev(month, year)
			if back {
				year--
			}
			month = m
			day += DaysInMonth(month, year)
			continue
		}
		if limit := DaysInMonth(month, year); day > limit {
			day -= limit
			m, fwd := next(month, year)
			if fwd {
				year++
			}
			month = m
			continue
		}
		return HDate{year: year, month: month, day: day, rd: ToRD(year, month, day)}, nil
	}
}
