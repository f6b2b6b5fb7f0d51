package hdate

import (
	"fmt"
	"strings"
)

// Month is a Hebrew month number. Numbering starts at Nisan, as in the
// Torah, so Tishrei (the first month of the civil year) is 7.
type Month int

const (
	Nisan Month = iota + 1
	Iyyar
	Sivan
	Tamuz
	Av
	Elul
	Tishrei
	Cheshvan
	Kislev
	Tevet
	Shvat
	AdarI
	AdarII
)

// Adar is the single Adar of a common year.
const Adar = AdarI

var monthNames = [...]string{
	"",
	"Nisan",
	"Iyyar",
	"Sivan",
	"Tamuz",
	"Av",
	"Elul",
	"Tishrei",
	"Cheshvan",
	"Kislev",
	"Tevet",
	"Sh'vat",
	"Adar",
	"Adar II",
}

// String returns the transliterated month name. Month 12 is rendered as
// plain "Adar"; use MonthName for the leap-year aware form.
func (m Month) String() string {
	if m < Nisan || m > AdarII {
		return fmt.Sprintf("Month(%d)", int(m))
	}
	return monthNames[m]
}

// MonthName returns the name of month in year, distinguishing "Adar I"
// from "Adar" by the year's leap status.
func MonthName(m Month, year int) string {
	if m == AdarI && IsLeapYear(year) {
		return "Adar I"
	}
	return m.String()
}

var monthAliases = map[string]Month{
	"nisan":    Nisan,
	"nissan":   Nisan,
	"iyyar":    Iyyar,
	"iyar":     Iyyar,
	"sivan":    Sivan,
	"tamuz":    Tamuz,
	"tammuz":   Tamuz,
	"av":       Av,
	"elul":     Elul,
	"tishrei":  Tishrei,
	"tishri":   Tishrei,
	"cheshvan": Cheshvan,
	"heshvan":  Cheshvan,
	"kislev":   Kislev,
	"tevet":    Tevet,
	"shvat":    Shvat,
	"sh'vat":   Shvat,
	"shevat":   Shvat,
	"adar":     AdarI,
	"adar i":   AdarI,
	"adar 1":   AdarI,
	"adar ii":  AdarII,
	"adar 2":   AdarII,
}

// MonthFromName parses a transliterated month name, case-insensitively.
func MonthFromName(name string) (Month, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "’", "'")
	if m, ok := monthAliases[key]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("%w: unknown month %q", ErrInvalidDate, name)
}

// next returns the month after m in year, and whether the year rolls
// over (Elul is followed by Tishrei of the next year).
func next(m Month, year int) (Month, bool) {
	switch {
	case m == Elul:
		return Tishrei, true
	case int(m) == MonthsInYear(year):
		return Nisan, false
	default:
		return m + 1, false
	}
}

// prev returns the month before m in year, and whether the year rolls
// back (Tishrei is preceded by Elul of the previous year).
func prev(m Month, year int) (Month, bool) {
	switch m {
	case Tishrei:
		return Elul, true
	case Nisan:
		return Month(MonthsInYear(year)), false
	default:
		return m - 1, false
	}
}

// index returns the position of m within year counted from Tishrei.
func index(m Month, year int) int {
	if m >= Tishrei {
		return int(m - Tishrei)
	}
	return MonthsInYear(year) - int(Tishrei) + int(m)
}

// monthAt is the inverse of index.
func monthAt(i, year int) Month {
	n := MonthsInYear(year)
	if i <= n-int(Tishrei) {
		return Tishrei + Month(i)
	}
	return Month(i - (n - int(Tishrei)))
}
