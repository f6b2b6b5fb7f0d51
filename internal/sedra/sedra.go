// Package sedra schedules the weekly Torah reading.
//
// Each Hebrew year follows one of a fixed set of reading patterns chosen
// by its keviah (see package keviah) and by whether the reader lives in
// Israel or the Diaspora. A pattern lists, for every Saturday from the
// first Saturday of the year, the parsha read, the pair of parshiot read
// together, or the festival that displaces the reading.
package sedra

import (
	"fmt"
	"strconv"
	"time"

	"github.com/zapponejosh/parsha-api/internal/greg"
	"github.com/zapponejosh/parsha-api/internal/hdate"
	"github.com/zapponejosh/parsha-api/internal/keviah"
)

// Year is the reading schedule of one Hebrew year. It is immutable and
// safe to share.
type Year struct {
	year          int
	il            bool
	yearType      keviah.YearType
	firstSaturday int64
	weeks         []week

	// store resolves the following year when a lookup runs past the end.
	store *Store
}

// Result is the reading for one Saturday.
type Result struct {
	// Parsha holds one or two parsha names, or a festival label.
	Parsha []string `json:"parsha"`
	// Chag is set when a festival displaces the reading.
	Chag bool `json:"chag"`
	// Num holds the 1-based parsha numbers; nil for a festival.
	Num []int `json:"num,omitempty"`
	// Date is the Saturday the reading belongs to.
	Date hdate.HDate `json:"-"`
}

// Name joins a doubled reading as "Chukat-Balak".
func (r Result) Name() string {
	switch len(r.Parsha) {
	case 0:
		return ""
	case 1:
		return r.Parsha[0]
	default:
		return r.Parsha[0] + "-" + r.Parsha[1]
	}
}

// New builds the schedule of a Hebrew year. It bypasses every cache; use
// Get or a Store in long-lived code.
func New(year int, il bool) (*Year, error) {
	return newYear(year, il, nil)
}

func newYear(year int, il bool, store *Store) (*Year, error) {
	if year < 1 {
		return nil, &RangeError{Op: "year", Input: strconv.Itoa(year), Msg: "hebrew year must be at least 1"}
	}
	yt := keviah.Classify(year)
	rh := hdate.NewYear(year)
	return &Year{
		year:          year,
		il:            il,
		yearType:      yt,
		firstSaturday: greg.DayOnOrBefore(time.Saturday, rh+6),
		weeks:         patternFor(yt, il),
		store:         store,
	}, nil
}

// Year returns the Hebrew year.
func (y *Year) Year() int { return y.year }

// Israel reports whether this is the Israel schedule.
func (y *Year) Israel() bool { return y.il }

// Type returns the year's keviah.
func (y *Year) Type() keviah.YearType { return y.yearType }

// FirstSaturday returns the R.D. of the first Saturday on or after
// Rosh Hashana.
func (y *Year) FirstSaturday() int64 { return y.firstSaturday }

// Len returns the number of Saturdays in the year.
func (y *Year) Len() int { return len(y.weeks) }

func (y *Year) next() (*Year, error) {
	if y.store != nil {
		return y.store.Get(y.year+1, y.il)
	}
	return New(y.year+1, y.il)
}

// Lookup returns the reading for the Saturday on or after rd. A date
// after the last Saturday of the year is answered from the next year.
// Dates before the year's first Saturday are out of range.
func (y *Year) Lookup(rd int64) (Result, error) {
	saturday := greg.DayOnOrAfter(time.Saturday, rd)
	idx := (saturday - y.firstSaturday) / 7
	if saturday < y.firstSaturday {
		return Result{}, &RangeError{
			Op:    "lookup",
			Input: greg.Format(rd),
			Msg:   fmt.Sprintf("date precedes the first Saturday of %d", y.year),
		}
	}
	if idx >= int64(len(y.weeks)) {
		next, err := y.next()
		if err != nil {
			return Result{}, err
		}
		return next.Lookup(saturday)
	}
	return y.result(int(idx)), nil
}

// LookupDate is Lookup for a Hebrew date.
func (y *Year) LookupDate(d hdate.HDate) (Result, error) {
	return y.Lookup(d.RD())
}

// Get returns the names read on the Saturday on or after rd.
func (y *Year) Get(rd int64) ([]string, error) {
	r, err := y.Lookup(rd)
	if err != nil {
		return nil, err
	}
	return r.Parsha, nil
}

// IsParsha reports whether a parsha, rather than a festival, is read on
// the Saturday on or after rd.
func (y *Year) IsParsha(rd int64) (bool, error) {
	r, err := y.Lookup(rd)
	if err != nil {
		return false, err
	}
	return !r.Chag, nil
}

// Weeks returns the reading of every Saturday of the year, in order.
func (y *Year) Weeks() []Result {
	out := make([]Result, len(y.weeks))
	for i := range y.weeks {
		out[i] = y.result(i)
	}
	return out
}

func (y *Year) result(idx int) Result {
	wk := y.weeks[idx]
	r := Result{Date: hdate.FromRD(y.firstSaturday + int64(idx)*7)}
	if wk.isChag() {
		r.Parsha = []string{chagNames[wk]}
		r.Chag = true
		return r
	}
	for _, p := range wk.parshiot() {
		r.Parsha = append(r.Parsha, parshiot[p])
		r.Num = append(r.Num, p+1)
	}
	return r
}

// Find returns the Saturday on which sel is read in exactly that form.
// It returns nil, nil when the reading does not occur this year in that
// form, for instance a pair that is read separately. Vezot Haberakhah is
// read on Simchat Torah, which Find returns although it is not a Saturday.
func (y *Year) Find(sel Selector) (*hdate.HDate, error) {
	if err := sel.validate(); err != nil {
		return nil, err
	}
	if !sel.IsPair() && sel.first == VezotHaberakhah {
		day := 23
		if y.il {
			day = 22
		}
		d := hdate.MustNew(y.year, hdate.Tishrei, day)
		return &d, nil
	}

	target := sel.week()
	for i, wk := range y.weeks {
		if wk == target {
			d := hdate.FromRD(y.firstSaturday + int64(i)*7)
			return &d, nil
		}
	}
	return nil, nil
}

// FindContaining is like Find but also accepts the other form of a
// reading: a single parsha is found inside its doubled pair, and a pair
// read separately is found at the Saturday of its first parsha.
func (y *Year) FindContaining(sel Selector) (*hdate.HDate, error) {
	d, err := y.Find(sel)
	if err != nil || d != nil {
		return d, err
	}

	if sel.IsPair() {
		return y.Find(ByIndex(sel.first))
	}
	p := sel.first
	if doubles[p] {
		if d, err := y.Find(ByPair(p, p+1)); err != nil || d != nil {
			return d, err
		}
	}
	if doubles[p-1] {
		return y.Find(ByPair(p-1, p))
	}
	return nil, nil
}
