package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zapponejosh/parsha-api/internal/greg"
	"github.com/zapponejosh/parsha-api/internal/hdate"
	"github.com/zapponejosh/parsha-api/internal/keviah"
)

// DateLayout is the civil date format used on the wire.
const DateLayout = time.DateOnly

// ParseDateString parses a date string in YYYY-MM-DD format.
func ParseDateString(dateStr string) (time.Time, error) {
	return time.Parse(DateLayout, dateStr)
}

// FormatDate formats a date as YYYY-MM-DD.
func FormatDate(date time.Time) string {
	return date.Format(DateLayout)
}

func hebrewDate(date time.Time) hdate.HDate {
	return hdate.FromTime(date)
}

// ParseHebrewDate parses the three parts of a Hebrew date. The month may
// be a number (1 = Nisan, 7 = Tishrei, 13 = Adar II) or a name such as
// "Cheshvan" or "Adar I".
func ParseHebrewDate(year, month, day string) (hdate.HDate, error) {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return hdate.HDate{}, fmt.Errorf("%w: year %q", hdate.ErrInvalidDate, year)
	}
	d, err := strconv.Atoi(strings.TrimSpace(day))
	if err != nil {
		return hdate.HDate{}, fmt.Errorf("%w: day %q", hdate.ErrInvalidDate, day)
	}

	var m hdate.Month
	if n, err := strconv.Atoi(strings.TrimSpace(month)); err == nil {
		m = hdate.Month(n)
	} else if m, err = hdate.MonthFromName(month); err != nil {
		return hdate.HDate{}, err
	}
	return hdate.New(y, m, d)
}

// DateInfo describes one day in both calendars.
type DateInfo struct {
	Gregorian  string `json:"gregorian"`
	Weekday    string `json:"weekday"`
	Hebrew     string `json:"hebrew"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	MonthName  string `json:"month_name"`
	Day        int    `json:"day"`
	RD         int64  `json:"rd"`
	Leap       bool   `json:"leap"`
	DaysInYear int    `json:"days_in_year"`
	YearType   string `json:"year_type"`
	Keviah     string `json:"keviah"`
	Mnemonic   string `json:"mnemonic"`
}

// Describe returns both calendar views of d together with its year's
// keviah.
func Describe(d hdate.HDate) DateInfo {
	yt := keviah.Classify(d.Year())
	return DateInfo{
		Gregorian:  greg.Format(d.RD()),
		Weekday:    d.Weekday().String(),
		Hebrew:     d.String(),
		Year:       d.Year(),
		Month:      int(d.Month()),
		MonthName:  d.MonthName(),
		Day:        d.Day(),
		RD:         d.RD(),
		Leap:       d.IsLeapYear(),
		DaysInYear: hdate.DaysInYear(d.Year()),
		YearType:   yt.Code(),
		Keviah:     yt.String(),
		Mnemonic:   yt.Mnemonic(),
	}
}
