// Package keviah classifies Hebrew years by their "keviah": whether the
// year is leap, the weekday of Rosh Hashana, and whether Cheshvan and
// Kislev are both short, regular, or both long. Those three facts decide
// on which Saturdays every festival falls, and so which reading pattern
// the year follows.
package keviah

import (
	"fmt"
	"strconv"
	"time"

	"github.com/zapponejosh/parsha-api/internal/hdate"
)

// Completeness describes the lengths of Cheshvan and Kislev.
type Completeness int

const (
	// Deficient years have a 29-day Kislev (353 or 383 days).
	Deficient Completeness = iota
	// Regular years have a 29-day Cheshvan and 30-day Kislev.
	Regular
	// Complete years have a 30-day Cheshvan (355 or 385 days).
	Complete
)

func (c Completeness) String() string {
	switch c {
	case Deficient:
		return "deficient"
	case Regular:
		return "regular"
	case Complete:
		return "complete"
	}
	return "Completeness(" + strconv.Itoa(int(c)) + ")"
}

// YearType is the keviah of a year. It is comparable and is used directly
// as a map key.
type YearType struct {
	Leap         bool
	RoshHashana  time.Weekday
	Completeness Completeness
}

// reachable lists the fourteen keviot permitted by the postponement
// rules, common years first, each group ordered by weekday then length.
var reachable = []YearType{
	{false, time.Monday, Deficient},
	{false, time.Monday, Complete},
	{false, time.Tuesday, Regular},
	{false, time.Thursday, Regular},
	{false, time.Thursday, Complete},
	{false, time.Saturday, Deficient},
	{false, time.Saturday, Complete},
	{true, time.Monday, Deficient},
	{true, time.Monday, Complete},
	{true, time.Tuesday, Regular},
	{true, time.Thursday, Deficient},
	{true, time.Thursday, Complete},
	{true, time.Saturday, Deficient},
	{true, time.Saturday, Complete},
}

// Reachable returns the fourteen year types that actually occur.
func Reachable() []YearType {
	out := make([]YearType, len(reachable))
	copy(out, reachable)
	return out
}

// Classify returns the year type of a Hebrew year.
func Classify(year int) YearType {
	c := Regular
	switch {
	case hdate.LongCheshvan(year):
		c = Complete
	case hdate.ShortKislev(year):
		c = Deficient
	}
	return YearType{
		Leap:         hdate.IsLeapYear(year),
		RoshHashana:  hdate.MustNew(year, hdate.Tishrei, 1).Weekday(),
		Completeness: c,
	}
}

// IsReachable reports whether t is one of the fourteen real keviot.
func (t YearType) IsReachable() bool {
	for _, r := range reachable {
		if r == t {
			return true
		}
	}
	return false
}

// Days returns the length of a year of this type.
func (t YearType) Days() int {
	n := 353 + int(t.Completeness)
	if t.Leap {
		n += 30
	}
	return n
}

// PesachWeekday returns the weekday of 15 Nisan.
func (t YearType) PesachWeekday() time.Weekday {
	// 1 Tishrei to 15 Nisan in a regular common year.
	offset := 191 + int(t.Completeness) - int(Regular)
	if t.Leap {
		offset += 30
	}
	return time.Weekday((int(t.RoshHashana) + offset) % 7)
}

// String renders t as "leap/Mon/deficient".
func (t YearType) String() string {
	kind := "common"
	if t.Leap {
		kind = "leap"
	}
	return fmt.Sprintf("%s/%s/%s", kind, t.RoshHashana.String()[:3], t.Completeness)
}

// Code renders t as three digits: 1 for leap, the 1-based weekday of
// Rosh Hashana (Sunday = 1) and the completeness (0, 1 or 2). A leap year
// starting on a Monday with a short Kislev is "120".
func (t YearType) Code() string {
	leap := 0
	if t.Leap {
		leap = 1
	}
	return fmt.Sprintf("%d%d%d", leap, int(t.RoshHashana)+1, int(t.Completeness))
}

// ParseCode is the inverse of Code. It accepts only reachable year types.
func ParseCode(code string) (YearType, error) {
	if len(code) != 3 {
		return YearType{}, fmt.Errorf("keviah code %q: want three digits", code)
	}
	var digits [3]int
	for i := range digits {
		if code[i] < '0' || code[i] > '9' {
			return YearType{}, fmt.Errorf("keviah code %q: want three digits", code)
		}
		digits[i] = int(code[i] - '0')
	}
	if digits[0] > 1 || digits[1] < 1 || digits[1] > 7 {
		return YearType{}, fmt.Errorf("keviah code %q is malformed", code)
	}
	t := YearType{
		Leap:         digits[0] == 1,
		RoshHashana:  time.Weekday(digits[1] - 1),
		Completeness: Completeness(digits[2]),
	}
	if !t.IsReachable() {
		return YearType{}, fmt.Errorf("keviah code %q does not occur", code)
	}
	return t, nil
}

var (
	dayLetters          = []string{"א", "ב", "ג", "ד", "ה", "ו", "ז"}
	completenessLetters = []string{"ח", "כ", "ש"}
)

// Mnemonic returns the traditional three-letter sign of the year: the
// weekday of Rosh Hashana, the completeness and the weekday of Pesach.
func (t YearType) Mnemonic() string {
	if t.Completeness < Deficient || t.Completeness > Complete {
		return ""
	}
	return dayLetters[t.RoshHashana] + completenessLetters[t.Completeness] + dayLetters[t.PesachWeekday()]
}
