// Command apitest runs a smoke test of known readings and conversions
// against a running parsha API.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// =============================================================================
// Response Types - Match the actual API response structure
// =============================================================================

type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ReadingResponse is the response for /sedra/date/{date} and /sedra/today
type ReadingResponse struct {
	Date       string   `json:"date"`
	HebrewDate string   `json:"hebrew_date"`
	Year       int      `json:"year"`
	Israel     bool     `json:"il"`
	Name       string   `json:"name"`
	Parsha     []string `json:"parsha"`
	Num        []int    `json:"num"`
	Chag       bool     `json:"chag"`
}

// FindResponse is the response for /sedra/year/{year}/find/{parsha}
type FindResponse struct {
	Parsha string `json:"parsha"`
	Found  bool   `json:"found"`
	Date   string `json:"date"`
}

// DateResponse is the response for /hdate and /gdate
type DateResponse struct {
	Gregorian string `json:"gregorian"`
	Weekday   string `json:"weekday"`
	Hebrew    string `json:"hebrew"`
	YearType  string `json:"year_type"`
}

// HealthResponse is the response for /health
type HealthResponse struct {
	Status string `json:"status"`
}

// =============================================================================
// Test Runner
// =============================================================================

type TestRunner struct {
	baseURL      string
	client       *http.Client
	out          io.Writer
	verbose      bool
	successCount int
	errorCount   int
	errors       []string
}

func NewTestRunner(baseURL string, client *http.Client, out io.Writer, verbose bool) *TestRunner {
	return &TestRunner{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
		out:     out,
		verbose: verbose,
	}
}

func (tr *TestRunner) Run() {
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintln(tr.out, "Parsha API Test Suite")
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintf(tr.out, "Base URL: %s\n", tr.baseURL)
	fmt.Fprintln(tr.out)

	tr.testHealth()
	tr.testToday()
	tr.testKnownSaturdays()
	tr.testFind()
	tr.testConversions()
	tr.testCalendarFeed()
	tr.testEdgeCases()

	tr.printSummary()
}

// =============================================================================
// Test Groups
// =============================================================================

func (tr *TestRunner) testHealth() {
	tr.printSection("Health Check")

	var health HealthResponse
	if err := tr.getData("/health", &health); err != nil {
		tr.recordError("Health", err.Error())
		return
	}

	if health.Status == "healthy" {
		tr.recordSuccess("Health check passed")
	} else {
		tr.recordError("Health", fmt.Sprintf("Unexpected status: %s", health.Status))
	}
}

func (tr *TestRunner) testToday() {
	tr.printSection("This Week's Reading")

	for _, il := range []bool{false, true} {
		var data ReadingResponse
		if err := tr.getData(fmt.Sprintf("/api/v1/sedra/today?il=%t", il), &data); err != nil {
			tr.recordError(fmt.Sprintf("Today (il=%t)", il), err.Error())
			continue
		}
		tr.recordSuccess(fmt.Sprintf("Today (il=%t): %s on %s (%s)", il, data.Name, data.Date, data.HebrewDate))
	}
}

func (tr *TestRunner) testKnownSaturdays() {
	tr.printSection("Known Saturdays")

	testCases := []struct {
		date     string
		il       bool
		saturday string
		name     string
		desc     string
	}{
		{"1988-11-05", false, "1988-11-05", "Chayei Sara", "Plain Saturday"},
		{"1988-11-02", false, "1988-11-05", "Chayei Sara", "Midweek resolves forward"},
		{"1989-07-15", false, "1989-07-15", "Chukat-Balak", "Doubled in the Diaspora"},
		{"2020-09-19", false, "2020-09-19", "Rosh Hashana", "Rosh Hashana on Shabbat"},
		{"2020-10-17", false, "2020-10-17", "Bereshit", "First Bereshit of 5781"},
		{"2020-10-31", true, "2020-10-31", "Lech-Lecha", "Israel schedule"},
		{"2021-06-19", false, "2021-06-19", "Chukat", "Chukat read alone in 5781"},
		{"2021-09-06", false, "2021-09-11", "Vayeilech", "29 Elul crosses into the next year"},
	}

	for _, tc := range testCases {
		var data ReadingResponse
		path := fmt.Sprintf("/api/v1/sedra/date/%s?il=%t", tc.date, tc.il)
		if err := tr.getData(path, &data); err != nil {
			tr.recordError(tc.date, err.Error())
			continue
		}

		switch {
		case data.Date != tc.saturday:
			tr.recordError(tc.date, fmt.Sprintf("Expected Saturday %s, got %s", tc.saturday, data.Date))
		case data.Name != tc.name:
			tr.recordError(tc.date, fmt.Sprintf("Expected '%s', got '%s'", tc.name, data.Name))
		default:
			tr.recordSuccess(fmt.Sprintf("%s: %s (%s)", tc.date, data.Name, tc.desc))
		}

		if tr.verbose {
			tr.printReadingDetail(&data)
		}
	}
}

func (tr *TestRunner) testFind() {
	tr.printSection("Find")

	testCases := []struct {
		path  string
		found bool
		date  string
	}{
		{"/api/v1/sedra/year/5781/find/Chayei%20Sara", true, "2020-11-14"},
		{"/api/v1/sedra/year/5781/find/Chukat-Balak", false, ""},
		{"/api/v1/sedra/year/5781/find/Chukat-Balak?containing=true", true, "2021-06-19"},
		{"/api/v1/sedra/year/5749/find/Chukat-Balak", true, "1989-07-15"},
	}

	for _, tc := range testCases {
		var data FindResponse
		if err := tr.getData(tc.path, &data); err != nil {
			tr.recordError(tc.path, err.Error())
			continue
		}
		if data.Found != tc.found || data.Date != tc.date {
			tr.recordError(tc.path, fmt.Sprintf("Expected found=%t date=%q, got found=%t date=%q",
				tc.found, tc.date, data.Found, data.Date))
			continue
		}
		tr.recordSuccess(fmt.Sprintf("%s: found=%t %s", data.Parsha, data.Found, data.Date))
	}
}

func (tr *TestRunner) testConversions() {
	tr.printSection("Date Conversion")

	testCases := []struct {
		path      string
		gregorian string
		hebrew    string
	}{
		{"/api/v1/hdate/2024-04-23", "2024-04-23", "15 Nisan 5784"},
		{"/api/v1/hdate/1988-09-12", "1988-09-12", "1 Tishrei 5749"},
		{"/api/v1/gdate/5785/Adar/14", "2025-03-14", "14 Adar 5785"},
		{"/api/v1/gdate/5784/13/14", "2024-03-24", "14 Adar II 5784"},
	}

	for _, tc := range testCases {
		var data DateResponse
		if err := tr.getData(tc.path, &data); err != nil {
			tr.recordError(tc.path, err.Error())
			continue
		}
		if data.Gregorian != tc.gregorian || data.Hebrew != tc.hebrew {
			tr.recordError(tc.path, fmt.Sprintf("Expected %s = %s, got %s = %s",
				tc.gregorian, tc.hebrew, data.Gregorian, data.Hebrew))
			continue
		}
		tr.recordSuccess(fmt.Sprintf("%s %s = %s [%s]", data.Weekday, data.Gregorian, data.Hebrew, data.YearType))
	}
}

func (tr *TestRunner) testCalendarFeed() {
	tr.printSection("Calendar Feed")

	resp, err := tr.getRaw("/api/v1/calendar.ics?start=5785&years=1")
	if err != nil {
		tr.recordError("Feed", err.Error())
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		tr.recordError("Feed", err.Error())
		return
	}

	switch {
	case resp.StatusCode != http.StatusOK:
		tr.recordError("Feed", fmt.Sprintf("HTTP %d", resp.StatusCode))
	case !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/calendar"):
		tr.recordError("Feed", fmt.Sprintf("Unexpected Content-Type %q", resp.Header.Get("Content-Type")))
	case !strings.Contains(string(body), "BEGIN:VCALENDAR"):
		tr.recordError("Feed", "Body is not an iCalendar document")
	default:
		tr.recordSuccess(fmt.Sprintf("Feed for 5785: %d events", strings.Count(string(body), "BEGIN:VEVENT")))
	}
}

func (tr *TestRunner) testEdgeCases() {
	tr.printSection("Edge Cases")

	testCases := []struct {
		path string
		desc string
	}{
		{"/api/v1/sedra/date/invalid", "Invalid date format rejected"},
		{"/api/v1/sedra/date/2025-02-30", "Impossible Gregorian date rejected"},
		{"/api/v1/sedra/date/1988-11-05?il=maybe", "Invalid il value rejected"},
		{"/api/v1/sedra/year/99999", "Year beyond the supported range rejected"},
		{"/api/v1/sedra/year/5781/find/Nonesuch", "Unknown parsha rejected"},
		{"/api/v1/gdate/5785/Cheshvan/31", "Impossible Hebrew date rejected"},
		{"/api/v1/gdate/5785/Smarch/1", "Unknown month rejected"},
	}

	for _, tc := range testCases {
		resp, err := tr.getRaw(tc.path)
		if err != nil {
			tr.recordError(tc.path, err.Error())
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusBadRequest {
			tr.recordSuccess(tc.desc)
		} else {
			tr.recordError(tc.path, fmt.Sprintf("Expected HTTP 400, got %d", resp.StatusCode))
		}
	}
}

// =============================================================================
// Helper Methods
// =============================================================================

func (tr *TestRunner) getData(path string, target any) error {
	resp, err := tr.getRaw(path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read error: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	if !apiResp.Success {
		errMsg := "unknown error"
		if apiResp.Error != nil {
			errMsg = apiResp.Error.Message
		}
		return fmt.Errorf("API error: %s", errMsg)
	}

	return json.Unmarshal(apiResp.Data, target)
}

func (tr *TestRunner) getRaw(path string) (*http.Response, error) {
	return tr.client.Get(tr.baseURL + path)
}

func (tr *TestRunner) printSection(name string) {
	fmt.Fprintln(tr.out)
	fmt.Fprintf(tr.out, "--- %s ---\n", name)
	fmt.Fprintln(tr.out)
}

func (tr *TestRunner) printReadingDetail(r *ReadingResponse) {
	fmt.Fprintf(tr.out, "    Hebrew date: %s\n", r.HebrewDate)
	if len(r.Num) > 0 {
		fmt.Fprintf(tr.out, "    Parsha numbers: %v\n", r.Num)
	}
	if r.Chag {
		fmt.Fprintln(tr.out, "    Festival reading")
	}
	fmt.Fprintln(tr.out)
}

func (tr *TestRunner) recordSuccess(msg string) {
	tr.successCount++
	fmt.Fprintf(tr.out, "  ✓ %s\n", msg)
}

func (tr *TestRunner) recordError(context, msg string) {
	tr.errorCount++
	errStr := fmt.Sprintf("%s: %s", context, msg)
	tr.errors = append(tr.errors, errStr)
	fmt.Fprintf(tr.out, "  ✗ %s\n", errStr)
}

func (tr *TestRunner) printSummary() {
	fmt.Fprintln(tr.out)
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintln(tr.out, "Summary")
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintf(tr.out, "  Passed: %d\n", tr.successCount)
	fmt.Fprintf(tr.out, "  Failed: %d\n", tr.errorCount)
	fmt.Fprintln(tr.out)

	if tr.errorCount > 0 {
		fmt.Fprintln(tr.out, "Failures:")
		for _, err := range tr.errors {
			fmt.Fprintf(tr.out, "  • %s\n", err)
		}
		fmt.Fprintln(tr.out)
		fmt.Fprintf(tr.out, "Tests completed with %d failure(s)\n", tr.errorCount)
		return
	}
	fmt.Fprintln(tr.out, "All tests passed! ✓")
}

// =============================================================================
// Main
// =============================================================================

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the API")
	verbose := flag.Bool("v", false, "Verbose output (show reading details)")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(*baseURL + "/health")
	if err != nil {
		fmt.Printf("Error: Cannot connect to %s\n", *baseURL)
		fmt.Println("Make sure the API server is running.")
		os.Exit(1)
	}
	resp.Body.Close()

	runner := NewTestRunner(*baseURL, client, os.Stdout, *verbose)
	runner.Run()

	if runner.errorCount > 0 {
		os.Exit(1)
	}
}
