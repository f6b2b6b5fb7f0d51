// Package calendar resolves civil dates and Hebrew years to weekly
// readings, reading through the schedule store.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zapponejosh/parsha-api/internal/database"
	"github.com/zapponejosh/parsha-api/internal/greg"
	"github.com/zapponejosh/parsha-api/internal/sedra"
)

// materializeWorkers bounds how many years are built at once. Writes are
// serialized by the single SQLite connection anyway.
const materializeWorkers = 4

var (
	// ErrNoStore is returned by Materialize when the resolver has no
	// database.
	ErrNoStore = errors.New("no schedule store configured")

	// ErrInvalidSpan is returned for a materialize span that starts before
	// year 1 or holds no years.
	ErrInvalidSpan = errors.New("invalid year span")
)

// Store is the persistence the resolver reads through. *database.DB
// satisfies it.
type Store interface {
	GetYear(ctx context.Context, year int, il bool) (*database.ScheduleYear, error)
	SaveYear(ctx context.Context, y *database.ScheduleYear) error
}

// Recorder is told how many years were written to the store.
type Recorder interface {
	YearsMaterialized(il bool, n int)
}

// Resolver answers reading queries from the in-memory schedule cache and
// the persistent schedule store.
type Resolver struct {
	db        Store
	schedules *sedra.Store
	rec       Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRecorder reports materialized years to rec.
func WithRecorder(rec Recorder) Option {
	return func(r *Resolver) { r.rec = rec }
}

// WithClock replaces time.Now for stamping new schedules.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// NewResolver returns a resolver. db may be nil, in which case nothing is
// persisted; schedules nil means a private cache of the default size.
func NewResolver(db Store, schedules *sedra.Store, logger *slog.Logger, opts ...Option) *Resolver {
	if schedules == nil {
		schedules = sedra.NewStore(sedra.DefaultCacheSize)
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		db:        db,
		schedules: schedules,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reading is the reading of one Saturday as served to clients.
type Reading struct {
	Date       string   `json:"date"`
	RD         int64    `json:"rd"`
	HebrewDate string   `json:"hebrew_date"`
	Year       int      `json:"year"`
	Israel     bool     `json:"il"`
	Name       string   `json:"name"`
	Parsha     []string `json:"parsha"`
	Num        []int    `json:"num,omitempty"`
	Chag       bool     `json:"chag"`
}

func newReading(res sedra.Result, il bool) Reading {
	return Reading{
		Date:       greg.Format(res.Date.RD()),
		RD:         res.Date.RD(),
		HebrewDate: res.Date.String(),
		Year:       res.Date.Year(),
		Israel:     il,
		Name:       res.Name(),
		Parsha:     res.Parsha,
		Num:        res.Num,
		Chag:       res.Chag,
	}
}

func readingFromWeek(w database.ScheduleWeek) Reading {
	return Reading{
		Date:       w.Date,
		RD:         w.RD,
		HebrewDate: w.HebrewDate,
		Year:       w.Year,
		Israel:     w.Israel,
		Name:       strings.Join(w.Parsha, "-"),
		Parsha:     w.Parsha,
		Num:        w.Num,
		Chag:       w.Chag,
	}
}

// ResolveDate returns the reading of the Saturday on or after date's
// calendar day.
func (r *Resolver) ResolveDate(ctx context.Context, date time.Time, il bool) (*Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := r.schedules.Lookup(hebrewDate(date), il)
	if err != nil {
		return nil, err
	}
	reading := newReading(res, il)
	return &reading, nil
}

// Year returns the schedule of a Hebrew year. A year missing from the
// store is built, saved and returned; a failed save is logged and the
// built schedule is still returned.
func (r *Resolver) Year(ctx context.Context, year int, il bool) (*database.ScheduleYear, error) {
	if r.db != nil {
		sy, err := r.db.GetYear(ctx, year, il)
		if err == nil {
			return sy, nil
		}
		if !database.IsNotFound(err) {
			return nil, fmt.Errorf("load schedule %d: %w", year, err)
		}
	}

	y, err := r.schedules.Get(year, il)
	if err != nil {
		return nil, err
	}
	sy := ToScheduleYear(y)
	sy.CreatedAt = r.now().UTC()

	if r.db != nil {
		if err := r.db.SaveYear(ctx, sy); err != nil {
			r.logger.Warn("schedule not persisted",
				slog.Int("year", year),
				slog.Bool("il", il),
				slog.Any("error", err),
			)
		} else {
			r.record(il, 1)
		}
	}
	return sy, nil
}

// Weeks returns every Saturday of count consecutive years starting at
// from, in date order.
func (r *Resolver) Weeks(ctx context.Context, from, count int, il bool) ([]Reading, error) {
	var out []Reading
	for year := from; year < from+count; year++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sy, err := r.Year(ctx, year, il)
		if err != nil {
			return nil, err
		}
		for _, w := range sy.Weeks {
			out = append(out, readingFromWeek(w))
		}
	}
	return out, nil
}

// FindResult reports where a parsha falls in a year.
type FindResult struct {
	Parsha     string `json:"parsha"`
	Year       int    `json:"year"`
	Israel     bool   `json:"il"`
	Found      bool   `json:"found"`
	Date       string `json:"date,omitempty"`
	HebrewDate string `json:"hebrew_date,omitempty"`
}

// Find locates query (a name, a hyphenated pair or a 0-based index) in
// year. With containing set, a parsha read as part of a pair, or a pair
// read separately, still counts as found.
func (r *Resolver) Find(ctx context.Context, year int, query string, il, containing bool) (*FindResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sel, err := sedra.ParseSelector(query)
	if err != nil {
		return nil, err
	}
	y, err := r.schedules.Get(year, il)
	if err != nil {
		return nil, err
	}

	find := y.Find
	if containing {
		find = y.FindContaining
	}
	d, err := find(sel)
	if err != nil {
		return nil, err
	}

	res := &FindResult{Parsha: sel.String(), Year: year, Israel: il}
	if d != nil {
		res.Found = true
		res.Date = greg.Format(d.RD())
		res.HebrewDate = d.String()
	}
	return res, nil
}

// MaterializeResult summarizes a Materialize call.
type MaterializeResult struct {
	From   int  `json:"from"`
	To     int  `json:"to"`
	Israel bool `json:"il"`
	Years  int  `json:"years"`
	Weeks  int  `json:"weeks"`
}

// Materialize builds and saves count years starting at from, replacing
// any stored copies. Years are built outside the shared cache so a large
// span does not evict the years being served.
func (r *Resolver) Materialize(ctx context.Context, from, count int, il bool) (*MaterializeResult, error) {
	if r.db == nil {
		return nil, ErrNoStore
	}
	if from < 1 || count < 1 {
		return nil, fmt.Errorf("%w: from %d, count %d", ErrInvalidSpan, from, count)
	}

	weeks := make([]int, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(materializeWorkers)

	for i := range count {
		year := from + i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			y, err := sedra.New(year, il)
			if err != nil {
				return err
			}
			sy := ToScheduleYear(y)
			if err := r.db.SaveYear(gctx, sy); err != nil {
				return fmt.Errorf("save schedule %d: %w", year, err)
			}
			weeks[i] = len(sy.Weeks)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &MaterializeResult{From: from, To: from + count - 1, Israel: il, Years: count}
	for _, n := range weeks {
		res.Weeks += n
	}
	r.record(il, count)

	r.logger.Info("schedules materialized",
		slog.Int("from", res.From),
		slog.Int("to", res.To),
		slog.Bool("il", il),
		slog.Int("weeks", res.Weeks),
	)
	return res, nil
}

func (r *Resolver) record(il bool, n int) {
	if r.rec != nil {
		r.rec.YearsMaterialized(il, n)
	}
}

// ToScheduleYear flattens a schedule into its stored form. CreatedAt is
// left zero.
func ToScheduleYear(y *sedra.Year) *database.ScheduleYear {
	results := y.Weeks()
	sy := &database.ScheduleYear{
		Year:          y.Year(),
		Israel:        y.Israel(),
		YearType:      y.Type().Code(),
		Keviah:        y.Type().String(),
		FirstSaturday: greg.Format(y.FirstSaturday()),
		WeekCount:     len(results),
		Weeks:         make([]database.ScheduleWeek, len(results)),
	}
	for i, res := range results {
		sy.Weeks[i] = database.ScheduleWeek{
			Year:       y.Year(),
			Israel:     y.Israel(),
			Week:       i,
			RD:         res.Date.RD(),
			Date:       greg.Format(res.Date.RD()),
			HebrewDate: res.Date.String(),
			Parsha:     res.Parsha,
			Num:        res.Num,
			Chag:       res.Chag,
		}
	}
	return sy
}
