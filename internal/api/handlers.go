package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/parsha-api/internal/calendar"
	"github.com/zapponejosh/parsha-api/internal/config"
	"github.com/zapponejosh/parsha-api/internal/feed"
	"github.com/zapponejosh/parsha-api/internal/greg"
	"github.com/zapponejosh/parsha-api/internal/hdate"
	"github.com/zapponejosh/parsha-api/internal/sedra"
)

// maxHebrewYear is the Hebrew year running at the end of Gregorian 9999,
// the last date the API accepts.
const maxHebrewYear = 13760

// defaultFeedYears is how many Hebrew years a feed covers by default.
const defaultFeedYears = 2

// iCalendar dates carry a four-digit year.
const (
	minFeedYear = 1
	maxFeedYear = 9999
)

// Clock abstracts time.Now so "today" is deterministic in tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// HealthChecker reports whether the backing store is usable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	db       HealthChecker
	resolver *calendar.Resolver
	cfg      *config.Config
	logger   *slog.Logger
	clock    Clock
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db HealthChecker, resolver *calendar.Resolver, cfg *config.Config, logger *slog.Logger) *Handlers {
	return &Handlers{
		db:       db,
		resolver: resolver,
		cfg:      cfg,
		logger:   logger,
		clock:    realClock{},
	}
}

// WithClock replaces the clock used for "today".
func (h *Handlers) WithClock(c Clock) *Handlers {
	h.clock = c
	return h
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Health(r.Context()); err != nil {
		h.logger.Warn("health check failed", slog.Any("error", err))
		WriteError(w, http.StatusServiceUnavailable, "Database unhealthy", "HEALTH_CHECK_FAILED")
		return
	}

	WriteSuccess(w, map[string]string{
		"status": "healthy",
	})
}

// GetTodayReading handles GET /api/v1/sedra/today?il=
func (h *Handlers) GetTodayReading(w http.ResponseWriter, r *http.Request) {
	il, ok := h.israel(w, r)
	if !ok {
		return
	}

	reading, err := h.resolver.ResolveDate(r.Context(), h.clock.Now(), il)
	if err != nil {
		h.writeDomainError(w, r, "failed to resolve today's reading", err)
		return
	}
	WriteSuccess(w, reading)
}

// GetDateReading handles GET /api/v1/sedra/date/{date}?il=
func (h *Handlers) GetDateReading(w http.ResponseWriter, r *http.Request) {
	dateStr := chi.URLParam(r, "date")
	date, err := calendar.ParseDateString(dateStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid date format: %s. Use YYYY-MM-DD", dateStr))
		return
	}
	il, ok := h.israel(w, r)
	if !ok {
		return
	}

	reading, err := h.resolver.ResolveDate(r.Context(), date, il)
	if err != nil {
		h.writeDomainError(w, r, "failed to resolve reading", err, slog.String("date", dateStr))
		return
	}
	WriteSuccess(w, reading)
}

// GetYearSchedule handles GET /api/v1/sedra/year/{year}?il=
func (h *Handlers) GetYearSchedule(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	il, ok := h.israel(w, r)
	if !ok {
		return
	}

	schedule, err := h.resolver.Year(r.Context(), year, il)
	if err != nil {
		h.writeDomainError(w, r, "failed to load schedule", err, slog.Int("year", year))
		return
	}
	WriteSuccess(w, schedule)
}

// FindParsha handles GET /api/v1/sedra/year/{year}/find/{parsha}?il=&containing=
func (h *Handlers) FindParsha(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	il, ok := h.israel(w, r)
	if !ok {
		return
	}
	containing, ok := boolQuery(w, r, "containing", false)
	if !ok {
		return
	}

	query, err := url.PathUnescape(chi.URLParam(r, "parsha"))
	if err != nil {
		WriteBadRequest(w, "Invalid parsha parameter")
		return
	}

	res, err := h.resolver.Find(r.Context(), year, query, il, containing)
	if err != nil {
		h.writeDomainError(w, r, "failed to find parsha", err, slog.String("parsha", query))
		return
	}
	WriteSuccess(w, res)
}

// GetHebrewDate handles GET /api/v1/hdate/{date}
func (h *Handlers) GetHebrewDate(w http.ResponseWriter, r *http.Request) {
	dateStr := chi.URLParam(r, "date")
	date, err := calendar.ParseDateString(dateStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid date format: %s. Use YYYY-MM-DD", dateStr))
		return
	}
	WriteSuccess(w, calendar.Describe(hdate.FromTime(date)))
}

// GetGregorianDate handles GET /api/v1/gdate/{year}/{month}/{day}
func (h *Handlers) GetGregorianDate(w http.ResponseWriter, r *http.Request) {
	month, err := url.PathUnescape(chi.URLParam(r, "month"))
	if err != nil {
		WriteBadRequest(w, "Invalid month parameter")
		return
	}

	d, err := calendar.ParseHebrewDate(chi.URLParam(r, "year"), month, chi.URLParam(r, "day"))
	if err != nil {
		h.writeDomainError(w, r, "failed to convert date", err)
		return
	}
	if d.Year() > maxHebrewYear {
		WriteError(w, http.StatusBadRequest,
			fmt.Sprintf("year must be at most %d", maxHebrewYear), CodeOutOfRange)
		return
	}
	WriteSuccess(w, calendar.Describe(d))
}

// GetCalendarFeed handles GET /api/v1/calendar.ics?il=&start=&years=
func (h *Handlers) GetCalendarFeed(w http.ResponseWriter, r *http.Request) {
	il, ok := h.israel(w, r)
	if !ok {
		return
	}

	now := h.clock.Now()
	start := hdate.FromTime(now).Year()
	if s := r.URL.Query().Get("start"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxHebrewYear {
			WriteBadRequest(w, fmt.Sprintf("start must be a Hebrew year between 1 and %d", maxHebrewYear))
			return
		}
		start = n
	}

	years := defaultFeedYears
	if s := r.URL.Query().Get("years"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > h.cfg.MaterializeSpan {
			WriteBadRequest(w, fmt.Sprintf("years must be between 1 and %d", h.cfg.MaterializeSpan))
			return
		}
		years = n
	}

	readings, err := h.resolver.Weeks(r.Context(), start, years, il)
	if err != nil {
		h.writeDomainError(w, r, "failed to build feed", err)
		return
	}

	entries := make([]feed.Entry, 0, len(readings))
	for _, rd := range readings {
		date := greg.ToTime(rd.RD)
		if y := date.Year(); y < minFeedYear || y > maxFeedYear {
			WriteError(w, http.StatusBadRequest,
				fmt.Sprintf("feed dates must fall in Gregorian years %d-%d", minFeedYear, maxFeedYear), CodeOutOfRange)
			return
		}
		entries = append(entries, feed.Entry{
			Date:       date,
			Title:      rd.Name,
			HebrewDate: rd.HebrewDate,
			Chag:       rd.Chag,
			Num:        rd.Num,
		})
	}

	var buf bytes.Buffer
	if err := feed.Encode(&buf, entries, feed.Options{Israel: il, Now: now}); err != nil {
		h.writeDomainError(w, r, "failed to build feed", err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="parsha.ics"`)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("failed to write feed", slog.Any("error", err))
	}
}

// materializeRequest is the body of POST /api/v1/admin/materialize.
type materializeRequest struct {
	From   int   `json:"from"`
	Years  int   `json:"years"`
	Israel *bool `json:"il,omitempty"`
}

// Materialize handles POST /api/v1/admin/materialize
func (h *Handlers) Materialize(w http.ResponseWriter, r *http.Request) {
	var req materializeRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if req.From < 1 || req.From > maxHebrewYear {
		WriteBadRequest(w, fmt.Sprintf("from must be a Hebrew year between 1 and %d", maxHebrewYear))
		return
	}
	if req.Years == 0 {
		req.Years = 1
	}
	if req.Years < 1 || req.Years > h.cfg.MaterializeSpan {
		WriteBadRequest(w, fmt.Sprintf("years must be between 1 and %d", h.cfg.MaterializeSpan))
		return
	}
	il := h.cfg.DefaultIsrael
	if req.Israel != nil {
		il = *req.Israel
	}

	res, err := h.resolver.Materialize(r.Context(), req.From, req.Years, il)
	if err != nil {
		h.writeDomainError(w, r, "failed to materialize schedules", err, slog.Int("from", req.From))
		return
	}
	WriteSuccess(w, res)
}

// israel reads the il query parameter, falling back to the configured
// default. It writes a 400 and returns false when il is malformed.
func (h *Handlers) israel(w http.ResponseWriter, r *http.Request) (bool, bool) {
	return boolQuery(w, r, "il", h.cfg.DefaultIsrael)
}

func boolQuery(w http.ResponseWriter, r *http.Request, name string, def bool) (bool, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, true
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("%s must be true or false", name))
		return false, false
	}
	return v, true
}

func yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	s := chi.URLParam(r, "year")
	year, err := strconv.Atoi(s)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid year: %s", s))
		return 0, false
	}
	if year > maxHebrewYear {
		WriteError(w, http.StatusBadRequest,
			fmt.Sprintf("year must be at most %d", maxHebrewYear), CodeOutOfRange)
		return 0, false
	}
	return year, true
}

// writeDomainError maps calendar and schedule errors to responses.
// Anything unrecognised is logged and reported as a 500.
func (h *Handlers) writeDomainError(w http.ResponseWriter, r *http.Request, msg string, err error, attrs ...any) {
	var rangeErr *sedra.RangeError
	switch {
	case errors.As(err, &rangeErr):
		WriteError(w, http.StatusBadRequest, rangeErr.Error(), CodeOutOfRange)
	case errors.Is(err, sedra.ErrOutOfRange), errors.Is(err, calendar.ErrInvalidSpan):
		WriteError(w, http.StatusBadRequest, err.Error(), CodeOutOfRange)
	case errors.Is(err, sedra.ErrInvalidSelector):
		WriteError(w, http.StatusBadRequest, err.Error(), CodeInvalidParsha)
	case errors.Is(err, hdate.ErrInvalidDate):
		WriteError(w, http.StatusBadRequest, err.Error(), CodeInvalidDate)
	case errors.Is(err, calendar.ErrNoStore):
		WriteError(w, http.StatusServiceUnavailable, "Schedule store unavailable", CodeUnavailable)
	case errors.Is(err, context.Canceled):
		h.logger.Debug("request cancelled", slog.String("path", r.URL.Path))
	default:
		h.logger.Error(msg, append(attrs, slog.Any("error", err), slog.String("path", r.URL.Path))...)
		WriteInternalError(w, "Internal server error")
	}
}

// decodeJSON decodes a JSON request body, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("request body is empty")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return err
	}
	return nil
}
