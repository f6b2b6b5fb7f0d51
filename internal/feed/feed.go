// Package feed renders weekly readings as an iCalendar subscription.
package feed

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

const (
	prodID    = "-//Parsha API//Sedra Feed//EN"
	uidDomain = "parsha-api"

	propCalName = "X-WR-CALNAME"
	propCalDesc = "X-WR-CALDESC"
	propRefresh = "REFRESH-INTERVAL"
	propTransp  = "TRANSP"

	// DefaultRefresh is the REFRESH-INTERVAL suggested to clients.
	DefaultRefresh = 24 * time.Hour
)

// ErrEmpty is returned when there is nothing to put in a feed.
var ErrEmpty = errors.New("feed has no entries")

// Entry is one Saturday in the feed.
type Entry struct {
	// Date is the civil date of the Saturday; the clock part is ignored.
	Date       time.Time
	Title      string // "Chukat-Balak", "Pesach"
	HebrewDate string
	Chag       bool
	Num        []int
}

// Options describe the calendar as a whole.
type Options struct {
	Name    string
	Israel  bool
	Now     time.Time // DTSTAMP
	Refresh time.Duration
}

// Build returns the calendar holding one all-day event per entry.
func Build(entries []Entry, opts Options) (*ical.Calendar, error) {
	if len(entries) == 0 {
		return nil, ErrEmpty
	}
	if opts.Refresh <= 0 {
		opts.Refresh = DefaultRefresh
	}
	if opts.Name == "" {
		opts.Name = DefaultName(opts.Israel)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, prodID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	cal.Props.SetText(ical.PropMethod, "PUBLISH")
	cal.Props.SetText(propCalName, opts.Name)
	cal.Props.SetText(propCalDesc, "Weekly Torah portion")

	refresh := ical.NewProp(propRefresh)
	refresh.SetDuration(opts.Refresh)
	cal.Props.Set(refresh)

	stamp := ical.NewProp(ical.PropDateTimeStamp)
	stamp.SetDateTime(opts.Now.UTC())

	for _, e := range entries {
		ev := event(e, opts.Israel)
		ev.Props.Set(stamp)
		cal.Children = append(cal.Children, ev.Component)
	}
	return cal, nil
}

// Encode writes the feed to w.
func Encode(w io.Writer, entries []Entry, opts Options) error {
	cal, err := Build(entries, opts)
	if err != nil {
		return err
	}
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}

// DefaultName is the calendar name used when Options.Name is empty.
func DefaultName(il bool) string {
	if il {
		return "Parashat HaShavua (Israel)"
	}
	return "Parashat HaShavua (Diaspora)"
}

func event(e Entry, il bool) *ical.Event {
	day := civil(e.Date)

	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, UID(day, il))
	ev.Props.SetText(ical.PropSummary, Summary(e))
	ev.Props.SetText(ical.PropDescription, description(e))
	ev.Props.SetText(propTransp, "TRANSPARENT")
	if e.Chag {
		ev.Props.SetText(ical.PropCategories, "Holiday")
	} else {
		ev.Props.SetText(ical.PropCategories, "Parashat HaShavua")
	}

	start := ical.NewProp(ical.PropDateTimeStart)
	start.SetDate(day)
	ev.Props.Set(start)

	end := ical.NewProp(ical.PropDateTimeEnd)
	end.SetDate(day.AddDate(0, 0, 1))
	ev.Props.Set(end)

	return ev
}

// UID is stable for a given Saturday and location, so re-fetching the
// feed updates events instead of duplicating them.
func UID(day time.Time, il bool) string {
	sum := sha256.Sum256([]byte(civil(day).Format(time.DateOnly) + "|" + strconv.FormatBool(il)))
	return fmt.Sprintf("%x@%s", sum[:12], uidDomain)
}

// Summary is the event title: "Parashat Chukat-Balak", or the festival
// name as is.
func Summary(e Entry) string {
	if e.Chag {
		return e.Title
	}
	return "Parashat " + e.Title
}

func description(e Entry) string {
	var b strings.Builder
	b.WriteString(e.HebrewDate)
	if len(e.Num) > 0 {
		nums := make([]string, len(e.Num))
		for i, n := range e.Num {
			nums[i] = strconv.Itoa(n)
		}
		b.WriteString("\nParsha ")
		b.WriteString(strings.Join(nums, ", "))
		b.WriteString(" of 54")
	}
	return b.String()
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
