package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/zapponejosh/parsha-api/internal/calendar"
	"github.com/zapponejosh/parsha-api/internal/config"
	"github.com/zapponejosh/parsha-api/internal/database"
	"github.com/zapponejosh/parsha-api/internal/metrics"
	"github.com/zapponejosh/parsha-api/internal/sedra"
)

// =============================================================================
// TEST SETUP HELPERS
// =============================================================================

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

// testEnv sets up a complete test environment with database, config, and router
type testEnv struct {
	db      *database.DB
	cfg     *config.Config
	metrics *metrics.Metrics
	router  http.Handler
	apiKey  string
}

// setupTest creates a fresh test environment. "Today" is Wednesday
// 2 November 1988.
func setupTest(t *testing.T) *testEnv {
	t.Helper()

	dbCfg := database.Config{
		Path:            ":memory:",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Quiet during tests
	}))

	db, err := database.Open(dbCfg, logger)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	apiKey := "admin-test-key-32-characters-minimum-length"
	cfg := &config.Config{
		Port:            8080,
		Env:             config.EnvProduction,
		DatabasePath:    ":memory:",
		APIKey:          apiKey,
		LogLevel:        "error",
		LogFormat:       "text",
		SedraCacheSize:  8,
		MaterializeSpan: 5,
	}

	m := metrics.New()
	store := sedra.NewStore(cfg.SedraCacheSize, sedra.WithObserver(m))
	resolver := calendar.NewResolver(db, store, logger, calendar.WithRecorder(m))
	handlers := NewHandlers(db, resolver, cfg, logger).
		WithClock(fixedClock(time.Date(1988, time.November, 2, 15, 0, 0, 0, time.UTC)))

	return &testEnv{
		db:      db,
		cfg:     cfg,
		metrics: m,
		router:  SetupRoutes(handlers, m, cfg, logger),
		apiKey:  apiKey,
	}
}

// makeRequest is a helper to make HTTP requests with optional API key
func makeRequest(method, path string, body any, apiKey string) *http.Request {
	var bodyReader io.Reader
	if body != nil {
		jsonData, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(jsonData)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")

	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	return req
}

func (env *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

func (env *testEnv) get(path string) *httptest.ResponseRecorder {
	return env.do(makeRequest(http.MethodGet, path, nil, ""))
}

// envelope mirrors Response with the payload left raw.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorInfo      `json:"error"`
}

// parseResponse parses the JSON envelope and, when v is non-nil, its data.
func parseResponse(t *testing.T, rr *httptest.ResponseRecorder, v any) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v, body: %s", err, rr.Body.String())
	}
	if v != nil {
		if err := json.Unmarshal(env.Data, v); err != nil {
			t.Fatalf("decode data: %v, data: %s", err, env.Data)
		}
	}
	return env
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("Status = %d, want %d; body: %s", rr.Code, status, rr.Body.String())
	}
	env := parseResponse(t, rr, nil)
	if env.Success {
		t.Error("Success = true, want false")
	}
	if env.Error == nil || env.Error.Code != code {
		t.Errorf("Error = %+v, want code %s", env.Error, code)
	}
}

// =============================================================================
// READING TESTS
// =============================================================================

func TestHealthCheck(t *testing.T) {
	env := setupTest(t)

	rr := env.get("/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rr.Code)
	}
	var data map[string]string
	if resp := parseResponse(t, rr, &data); !resp.Success {
		t.Error("Success = false")
	}
	if data["status"] != "healthy" {
		t.Errorf("status = %q", data["status"])
	}
}

type failingHealth struct{}

func (failingHealth) Health(context.Context) error { return errors.New("disk gone") }

func TestHealthCheck_Unhealthy(t *testing.T) {
	env := setupTest(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandlers(failingHealth{}, calendar.NewResolver(nil, nil, logger), env.cfg, logger)

	rr := httptest.NewRecorder()
	h.HealthCheck(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	expectError(t, rr, http.StatusServiceUnavailable, "HEALTH_CHECK_FAILED")
}

func TestGetTodayReading(t *testing.T) {
	env := setupTest(t)

	rr := env.get("/api/v1/sedra/today")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
	}
	var got calendar.Reading
	parseResponse(t, rr, &got)

	if got.Name != "Chayei Sara" || got.Date != "1988-11-05" || got.Year != 5749 {
		t.Errorf("reading = %+v, want Chayei Sara on 1988-11-05", got)
	}
	if len(got.Num) != 1 || got.Num[0] != 5 {
		t.Errorf("Num = %v, want [5]", got.Num)
	}
}

func TestGetDateReading(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		name   string
		path   string
		want   string
		date   string
		israel bool
	}{
		{"single", "/api/v1/sedra/date/1988-11-05", "Chayei Sara", "1988-11-05", false},
		{"doubled", "/api/v1/sedra/date/1989-07-13", "Chukat-Balak", "1989-07-15", false},
		{"israel flag", "/api/v1/sedra/date/1988-11-05?il=true", "Chayei Sara", "1988-11-05", true},
		{"end of year", "/api/v1/sedra/date/2021-09-06", "Vayeilech", "2021-09-11", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.get(tt.path)
			if rr.Code != http.StatusOK {
				t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
			}
			var got calendar.Reading
			parseResponse(t, rr, &got)
			if got.Name != tt.want || got.Date != tt.date || got.Israel != tt.israel {
				t.Errorf("reading = %+v, want %s on %s (il=%v)", got, tt.want, tt.date, tt.israel)
			}
		})
	}
}

func TestGetDateReading_BadInput(t *testing.T) {
	env := setupTest(t)

	expectError(t, env.get("/api/v1/sedra/date/05-11-1988"), http.StatusBadRequest, CodeBadRequest)
	expectError(t, env.get("/api/v1/sedra/date/1988-11-05?il=maybe"), http.StatusBadRequest, CodeBadRequest)
}

func TestGetYearSchedule(t *testing.T) {
	env := setupTest(t)

	rr := env.get("/api/v1/sedra/year/5781")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
	}
	var got database.ScheduleYear
	parseResponse(t, rr, &got)

	y, err := sedra.New(5781, false)
	if err != nil {
		t.Fatal(err)
	}
	if got.YearType != "070" || got.FirstSaturday != "2020-09-19" {
		t.Errorf("header = %s/%s", got.YearType, got.FirstSaturday)
	}
	if len(got.Weeks) != y.Len() {
		t.Errorf("weeks = %d, want %d", len(got.Weeks), y.Len())
	}

	// The first request materializes the year.
	if _, err := env.db.GetYear(context.Background(), 5781, false); err != nil {
		t.Errorf("year not stored: %v", err)
	}
}

func TestGetYearSchedule_Errors(t *testing.T) {
	env := setupTest(t)

	expectError(t, env.get("/api/v1/sedra/year/abc"), http.StatusBadRequest, CodeBadRequest)
	expectError(t, env.get("/api/v1/sedra/year/0"), http.StatusBadRequest, CodeOutOfRange)
	expectError(t, env.get("/api/v1/sedra/year/99999"), http.StatusBadRequest, CodeOutOfRange)
}

func TestFindParsha(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		name  string
		path  string
		found bool
		date  string
	}{
		{"by name", "/api/v1/sedra/year/5781/find/Bereshit", true, "2020-10-17"},
		{"pair read separately", "/api/v1/sedra/year/5781/find/Chukat-Balak", false, ""},
		{"containing", "/api/v1/sedra/year/5781/find/Chukat-Balak?containing=true", true, "2021-06-19"},
		{"escaped", "/api/v1/sedra/year/5781/find/Chayei%20Sara", true, "2020-11-14"},
		{"case-insensitive", "/api/v1/sedra/year/5781/find/lech-lecha", true, "2020-10-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.get(tt.path)
			if rr.Code != http.StatusOK {
				t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
			}
			var got calendar.FindResult
			parseResponse(t, rr, &got)
			if got.Found != tt.found || got.Date != tt.date {
				t.Errorf("result = %+v, want found=%v date=%q", got, tt.found, tt.date)
			}
		})
	}
}

func TestFindParsha_Errors(t *testing.T) {
	env := setupTest(t)

	expectError(t, env.get("/api/v1/sedra/year/5781/find/Nothing"), http.StatusBadRequest, CodeInvalidParsha)
	expectError(t, env.get("/api/v1/sedra/year/5781/find/99"), http.StatusBadRequest, CodeOutOfRange)
	expectError(t, env.get("/api/v1/sedra/year/5781/find/Bereshit?containing=perhaps"), http.StatusBadRequest, CodeBadRequest)
}

// =============================================================================
// CONVERSION TESTS
// =============================================================================

func TestGetHebrewDate(t *testing.T) {
	env := setupTest(t)

	rr := env.get("/api/v1/hdate/2024-04-23")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
	}
	var got calendar.DateInfo
	parseResponse(t, rr, &got)
	if got.Hebrew != "15 Nisan 5784" || got.YearType != "170" || !got.Leap {
		t.Errorf("info = %+v", got)
	}

	expectError(t, env.get("/api/v1/hdate/tomorrow"), http.StatusBadRequest, CodeBadRequest)
}

func TestGetGregorianDate(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/gdate/5785/Adar/14", "2025-03-14"},
		{"/api/v1/gdate/5784/13/14", "2024-03-24"},
		{"/api/v1/gdate/5784/Adar%20II/14", "2024-03-24"},
		{"/api/v1/gdate/5749/7/1", "1988-09-12"},
	}
	for _, tt := range tests {
		rr := env.get(tt.path)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: Status = %d, body: %s", tt.path, rr.Code, rr.Body.String())
		}
		var got calendar.DateInfo
		parseResponse(t, rr, &got)
		if got.Gregorian != tt.want {
			t.Errorf("%s: gregorian = %s, want %s", tt.path, got.Gregorian, tt.want)
		}
	}

	expectError(t, env.get("/api/v1/gdate/5784/2/30"), http.StatusBadRequest, CodeInvalidDate)
	expectError(t, env.get("/api/v1/gdate/5784/Smarch/1"), http.StatusBadRequest, CodeInvalidDate)
	expectError(t, env.get("/api/v1/gdate/0/1/1"), http.StatusBadRequest, CodeInvalidDate)
	expectError(t, env.get("/api/v1/gdate/20000/1/1"), http.StatusBadRequest, CodeOutOfRange)
}

// =============================================================================
// FEED TESTS
// =============================================================================

func TestGetCalendarFeed(t *testing.T) {
	env := setupTest(t)

	rr := env.get("/api/v1/calendar.ics?start=5781&years=1&il=true")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Content-Type = %q", ct)
	}

	cal, err := ical.NewDecoder(rr.Body).Decode()
	if err != nil {
		t.Fatalf("decode feed: %v", err)
	}
	y, err := sedra.New(5781, true)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(cal.Events()); n != y.Len() {
		t.Errorf("events = %d, want %d", n, y.Len())
	}
}

func TestGetCalendarFeed_DefaultsToCurrentYear(t *testing.T) {
	env := setupTest(t)

	rr := env.get("/api/v1/calendar.ics")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "DTSTART;VALUE=DATE:19881105") {
		t.Error("feed for 5749-5750 is missing 5 November 1988")
	}
}

func TestGetCalendarFeed_Errors(t *testing.T) {
	env := setupTest(t)

	expectError(t, env.get("/api/v1/calendar.ics?years=6"), http.StatusBadRequest, CodeBadRequest)
	expectError(t, env.get("/api/v1/calendar.ics?years=0"), http.StatusBadRequest, CodeBadRequest)
	expectError(t, env.get("/api/v1/calendar.ics?start=-3"), http.StatusBadRequest, CodeBadRequest)
}

func TestGetCalendarFeed_GregorianRange(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		start  string
		status int
	}{
		{"1", http.StatusBadRequest},     // 3761 BCE
		{"3761", http.StatusBadRequest},  // starts in year 0
		{"3762", http.StatusOK},          // 1 CE
		{"13759", http.StatusOK},         // ends in 9999
		{"13760", http.StatusBadRequest}, // runs into 10000
	}

	for _, tt := range tests {
		t.Run(tt.start, func(t *testing.T) {
			rr := env.get("/api/v1/calendar.ics?years=1&start=" + tt.start)
			if tt.status == http.StatusOK {
				if rr.Code != http.StatusOK {
					t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
				}
				if _, err := ical.NewDecoder(rr.Body).Decode(); err != nil {
					t.Fatalf("decode feed: %v", err)
				}
				return
			}
			expectError(t, rr, tt.status, CodeOutOfRange)
		})
	}
}

// =============================================================================
// ADMIN TESTS
// =============================================================================

func TestMaterialize(t *testing.T) {
	env := setupTest(t)

	body := map[string]any{"from": 5784, "years": 3, "il": true}
	rr := env.do(makeRequest(http.MethodPost, "/api/v1/admin/materialize", body, env.apiKey))
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
	}
	var got calendar.MaterializeResult
	parseResponse(t, rr, &got)
	if got.From != 5784 || got.To != 5786 || got.Years != 3 || !got.Israel {
		t.Errorf("result = %+v", got)
	}

	years, err := env.db.ListYears(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(years) != 3 {
		t.Errorf("stored years = %v, want 3", years)
	}
}

func TestMaterialize_Auth(t *testing.T) {
	env := setupTest(t)
	body := map[string]any{"from": 5784}

	rr := env.do(makeRequest(http.MethodPost, "/api/v1/admin/materialize", body, ""))
	expectError(t, rr, http.StatusUnauthorized, CodeUnauthorized)

	rr = env.do(makeRequest(http.MethodPost, "/api/v1/admin/materialize", body, "wrong-key"))
	expectError(t, rr, http.StatusUnauthorized, CodeUnauthorized)
}

func TestMaterialize_BadRequest(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		name string
		body any
	}{
		{"no year", map[string]any{"years": 1}},
		{"too many years", map[string]any{"from": 5784, "years": 6}},
		{"negative years", map[string]any{"from": 5784, "years": -1}},
		{"unknown field", map[string]any{"from": 5784, "until": 5790}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(makeRequest(http.MethodPost, "/api/v1/admin/materialize", tt.body, env.apiKey))
			expectError(t, rr, http.StatusBadRequest, CodeBadRequest)
		})
	}
}

// =============================================================================
// MIDDLEWARE TESTS
// =============================================================================

func TestRequestID(t *testing.T) {
	env := setupTest(t)

	rr := env.get("/health")
	if _, err := uuid.Parse(rr.Header().Get(RequestIDHeader)); err != nil {
		t.Errorf("X-Request-ID = %q is not a UUID", rr.Header().Get(RequestIDHeader))
	}

	req := makeRequest(http.MethodGet, "/health", nil, "")
	req.Header.Set(RequestIDHeader, "client-chosen")
	rr = env.do(req)
	if got := rr.Header().Get(RequestIDHeader); got != "client-chosen" {
		t.Errorf("X-Request-ID = %q, want client-chosen", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := setupTest(t)

	rr := env.do(makeRequest(http.MethodOptions, "/api/v1/sedra/today", nil, ""))
	if rr.Code != http.StatusNoContent {
		t.Errorf("Status = %d, want 204", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing Access-Control-Allow-Origin")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := RecoveryMiddleware(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	expectError(t, rr, http.StatusInternalServerError, CodeInternal)
}

func TestAdminAuthMiddleware_DevelopmentWithoutKey(t *testing.T) {
	cfg := &config.Config{Env: config.EnvDevelopment}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := AdminAuthMiddleware(cfg, logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200", rr.Code)
	}
}

func TestNotFound(t *testing.T) {
	env := setupTest(t)
	expectError(t, env.get("/api/v1/nope"), http.StatusNotFound, CodeNotFound)
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTest(t)

	env.get("/api/v1/sedra/date/1988-11-05")
	env.get("/api/v1/sedra/date/1988-11-05")

	rr := env.get("/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		`parsha_http_requests_total{method="GET",route="/api/v1/sedra/date/{date}",status="200"} 2`,
		"parsha_sedra_cache_hits_total 1",
		"parsha_sedra_cache_misses_total 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
