package hdate

import (
	"sync"

	"github.com/zapponejosh/parsha-api/internal/greg"
)

// Molad constants, in "parts" (1 hour = 1080 parts).
const (
	partsPerHour = 1080

	// A molad at or after noon postpones Rosh Hashana (molad zaken).
	moladZaken = 18 * partsPerHour // 19440

	// GaTaRaD: Tuesday molad at or after 9h 204p in a common year.
	gatarad = 9*partsPerHour + 204 // 9924

	// BeTUTaKPaT: Monday molad at or after 15h 589p following a leap year.
	betutakpat = 15*partsPerHour + 589 // 16789
)

// YearCache memoizes ElapsedDays per Hebrew year. A year's elapsed-day
// count never changes, so entries are never invalidated. It is safe for
// concurrent use; racing misses recompute the same value.
type YearCache struct {
	elapsed sync.Map // int -> int64
}

// NewYearCache returns an empty cache.
func NewYearCache() *YearCache {
	return &YearCache{}
}

var defaultCache = NewYearCache()

// ElapsedDays returns the number of days from the calendar epoch to
// 1 Tishrei of year, after applying the postponement rules.
func (c *YearCache) ElapsedDays(year int) int64 {
	if v, ok := c.elapsed.Load(year); ok {
		return v.(int64)
	}
	days := elapsedDays(year)
	c.elapsed.Store(year, days)
	return days
}

// Len reports how many years are currently memoized.
func (c *YearCache) Len() int {
	n := 0
	c.elapsed.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// DaysInYear returns the length of year in days.
func (c *YearCache) DaysInYear(year int) int {
	return int(c.ElapsedDays(year+1) - c.ElapsedDays(year))
}

// elapsedDays computes the molad of Tishrei for year and applies the four
// dehiyot. Floor arithmetic keeps the formula total for years below 1.
func elapsedDays(year int) int64 {
	y := int64(year) - 1
	cycle := greg.FloorDiv(y, 19)
	inCycle := greg.Mod(y, 19)

	monthsElapsed := 235*cycle + 12*inCycle + greg.FloorDiv(7*inCycle+1, 19)

	partsElapsed := 204 + 793*greg.Mod(monthsElapsed, 1080)
	hoursElapsed := 5 + 12*monthsElapsed +
		793*greg.FloorDiv(monthsElapsed, 1080) +
		greg.FloorDiv(partsElapsed, partsPerHour)

	parts := greg.Mod(partsElapsed, partsPerHour) + partsPerHour*greg.Mod(hoursElapsed, 24)
	day := 1 + 29*monthsElapsed + greg.FloorDiv(hoursElapsed, 24)

	altDay := day
	dow := greg.Mod(day, 7)
	if parts >= moladZaken ||
		(dow == 2 && parts >= gatarad && !IsLeapYear(year)) ||
		(dow == 1 && parts >= betutakpat && IsLeapYear(year-1)) {
		altDay++
	}

	// Lo ADU Rosh: never Sunday, Wednesday or Friday.
	switch greg.Mod(altDay, 7) {
	case 0, 3, 5:
		altDay++
	}
	return altDay
}

// IsLeapYear reports whether year has 13 months. Leap years fall on
// positions 3, 6, 8, 11, 14, 17 and 19 of the 19-year cycle.
func IsLeapYear(year int) bool {
	return greg.Mod(1+7*int64(year), 19) < 7
}

// MonthsInYear returns 13 for leap years and 12 otherwise.
func MonthsInYear(year int) int {
	if IsLeapYear(year) {
		return 13
	}
	return 12
}

// ElapsedDays returns the days from the epoch to 1 Tishrei of year, using
// the process-wide cache.
func ElapsedDays(year int) int64 {
	return defaultCache.ElapsedDays(year)
}

// DaysInYear returns 353, 354, 355, 383, 384 or 385.
func DaysInYear(year int) int {
	return defaultCache.DaysInYear(year)
}

// LongCheshvan reports whether Cheshvan has 30 days in year.
func LongCheshvan(year int) bool {
	return DaysInYear(year)%10 == 5
}

// ShortKislev reports whether Kislev has 29 days in year.
func ShortKislev(year int) bool {
	return DaysInYear(year)%10 == 3
}

// DaysInMonth returns the number of days in month of year.
func DaysInMonth(month Month, year int) int {
	return daysInMonth(month, IsLeapYear(year), DaysInYear(year))
}

// daysInMonth is DaysInMonth with the year's leap flag and length
// resolved once by the caller.
func daysInMonth(month Month, leap bool, length int) int {
	switch month {
	case Iyyar, Tamuz, Elul, Tevet, AdarII:
		return 29
	case AdarI:
		if leap {
			return 30
		}
		return 29
	case Cheshvan:
		if length%10 == 5 {
			return 30
		}
		return 29
	case Kislev:
		if length%10 == 3 {
			return 29
		}
		return 30
	default:
		return 30
	}
}
