// Command coverage sweeps every Saturday of a span of Hebrew years against
// a running parsha API and checks that the year and date endpoints agree
// and that every year reads Bereshit through Nitzavim exactly once.
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

	"github.com/zapponejosh/parsha-api/internal/calendar"
	"github.com/zapponejosh/parsha-api/internal/database"
)

// lastAnnualParsha is Nitzavim. Every Hebrew year reads Bereshit through
// Nitzavim once; Vayeilech and Ha'azinu may fall into the next year.
const lastAnnualParsha = 51

// APIResponse matches the API response structure
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WeekResult holds the result for a single Saturday
type WeekResult struct {
	Year     int    `json:"year"`
	Date     string `json:"date"`
	Expected string `json:"expected"`
	Got      string `json:"got,omitempty"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// YearStats tracks statistics for each Hebrew year
type YearStats struct {
	Year      int    `json:"year"`
	YearType  string `json:"year_type"`
	Saturdays int    `json:"saturdays"`
	Chag      int    `json:"chag"`
	Single    int    `json:"single"`
	Doubled   int    `json:"doubled"`
	Failed    int    `json:"failed"`
	Missing   []int  `json:"missing,omitempty"`
	Repeated  []int  `json:"repeated,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Analysis holds the sweep results
type Analysis struct {
	TotalWeeks  int          `json:"total_weeks"`
	TotalFailed int          `json:"total_failed"`
	Years       []*YearStats `json:"years"`
	Failures    []WeekResult `json:"failures,omitempty"`
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the API")
	startYear := flag.Int("start", 5785, "First Hebrew year")
	years := flag.Int("years", 4, "Number of years to test")
	il := flag.Bool("il", false, "Use the Israel schedule")
	verbose := flag.Bool("v", false, "Verbose output (show each Saturday)")
	outputFile := flag.String("o", "", "Output results to JSON file")
	flag.Parse()

	location := "Diaspora"
	if *il {
		location = "Israel"
	}

	fmt.Println("================================================================")
	fmt.Println("Parsha API - Full Coverage Test")
	fmt.Println("================================================================")
	fmt.Printf("Base URL:    %s\n", *baseURL)
	fmt.Printf("Years:       %d-%d (%s)\n", *startYear, *startYear+*years-1, location)
	fmt.Println()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(*baseURL + "/health")
	if err != nil {
		fmt.Printf("Error: Cannot connect to %s\n", *baseURL)
		fmt.Println("Make sure the API server is running.")
		os.Exit(1)
	}
	resp.Body.Close()

	analysis := sweep(client, *baseURL, *startYear, *years, *il, *verbose, os.Stdout)
	printSummary(os.Stdout, analysis)
	printFailures(os.Stdout, analysis)

	if *outputFile != "" {
		saveResults(*outputFile, analysis)
	}

	if analysis.TotalFailed > 0 {
		os.Exit(1)
	}
}

func sweep(client *http.Client, baseURL string, startYear, years int, il, verbose bool, w io.Writer) *Analysis {
	analysis := &Analysis{}

	for year := startYear; year < startYear+years; year++ {
		stats := &YearStats{Year: year}
		analysis.Years = append(analysis.Years, stats)

		var schedule database.ScheduleYear
		url := fmt.Sprintf("%s/api/v1/sedra/year/%d?il=%t", baseURL, year, il)
		if err := getData(client, url, &schedule); err != nil {
			stats.Error = err.Error()
			analysis.TotalFailed++
			fmt.Fprintf(w, "  ✗ %d: %v\n", year, err)
			continue
		}
		stats.YearType = schedule.YearType
		stats.Saturdays = len(schedule.Weeks)

		read := make(map[int]int)
		for _, week := range schedule.Weeks {
			switch {
			case week.Chag:
				stats.Chag++
			case len(week.Num) == 2:
				stats.Doubled++
			default:
				stats.Single++
			}
			for _, n := range week.Num {
				read[n]++
			}

			result := checkWeek(client, baseURL, week, il)
			analysis.TotalWeeks++
			if !result.Success {
				stats.Failed++
				analysis.TotalFailed++
				analysis.Failures = append(analysis.Failures, result)
			}
			if verbose {
				status := "✓"
				if !result.Success {
					status = "✗"
				}
				fmt.Fprintf(w, "  %s %s: %s\n", status, result.Date, result.Expected)
				if !result.Success {
					fmt.Fprintf(w, "      Error: %s\n", result.Error)
				}
			}
		}

		for n := 1; n <= lastAnnualParsha; n++ {
			switch read[n] {
			case 0:
				stats.Missing = append(stats.Missing, n)
			case 1:
			default:
				stats.Repeated = append(stats.Repeated, n)
			}
		}
		if len(stats.Missing) > 0 || len(stats.Repeated) > 0 {
			analysis.TotalFailed++
		}
	}

	fmt.Fprintln(w)
	return analysis
}

// checkWeek asks the date endpoint about the Friday before week and
// expects it to resolve forward to the same Saturday and reading.
func checkWeek(client *http.Client, baseURL string, week database.ScheduleWeek, il bool) WeekResult {
	result := WeekResult{
		Year:     week.Year,
		Date:     week.Date,
		Expected: strings.Join(week.Parsha, "-"),
	}

	saturday, err := calendar.ParseDateString(week.Date)
	if err != nil {
		result.Error = fmt.Sprintf("Bad date in schedule: %v", err)
		return result
	}
	friday := calendar.FormatDate(saturday.AddDate(0, 0, -1))

	var reading calendar.Reading
	url := fmt.Sprintf("%s/api/v1/sedra/date/%s?il=%t", baseURL, friday, il)
	if err := getData(client, url, &reading); err != nil {
		result.Error = err.Error()
		return result
	}
	result.Got = strings.Join(reading.Parsha, "-")

	switch {
	case reading.Date != week.Date:
		result.Error = fmt.Sprintf("Resolved to %s", reading.Date)
	case result.Got != result.Expected:
		result.Error = "Reading mismatch"
	case reading.Chag != week.Chag:
		result.Error = "Chag flag mismatch"
	default:
		result.Success = true
	}
	return result
}

func getData(client *http.Client, url string, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("Connection error: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("Read error: %v", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return fmt.Errorf("Parse error: %v", err)
	}
	if !apiResp.Success {
		errMsg := "Unknown error"
		if apiResp.Error != nil {
			errMsg = apiResp.Error.Message
		}
		return fmt.Errorf("%s", errMsg)
	}

	if err := json.Unmarshal(apiResp.Data, out); err != nil {
		return fmt.Errorf("Data parse error: %v", err)
	}
	return nil
}

func printSummary(w io.Writer, analysis *Analysis) {
	fmt.Fprintln(w, "================================================================")
	fmt.Fprintln(w, "SUMMARY")
	fmt.Fprintln(w, "================================================================")
	fmt.Fprintf(w, "Saturdays Tested: %d\n", analysis.TotalWeeks)
	fmt.Fprintf(w, "Failures:         %d\n", analysis.TotalFailed)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "By Year:")
	for _, stats := range analysis.Years {
		status := "✓"
		if stats.Error != "" || stats.Failed > 0 || len(stats.Missing) > 0 || len(stats.Repeated) > 0 {
			status = "✗"
		}
		fmt.Fprintf(w, "  %s %d [%s]: %d Saturdays, %d chag, %d single, %d doubled\n",
			status, stats.Year, stats.YearType, stats.Saturdays, stats.Chag, stats.Single, stats.Doubled)
		if len(stats.Missing) > 0 {
			fmt.Fprintf(w, "      Missing parshiot: %v\n", stats.Missing)
		}
		if len(stats.Repeated) > 0 {
			fmt.Fprintf(w, "      Repeated parshiot: %v\n", stats.Repeated)
		}
	}
	fmt.Fprintln(w)
}

func printFailures(w io.Writer, analysis *Analysis) {
	if analysis.TotalFailed == 0 {
		fmt.Fprintln(w, "No failures!")
		return
	}
	if len(analysis.Failures) == 0 {
		return
	}

	fmt.Fprintln(w, "================================================================")
	fmt.Fprintln(w, "FAILURES (Date | Expected | Got | Error)")
	fmt.Fprintln(w, "================================================================")
	for i, f := range analysis.Failures {
		if i == 50 {
			fmt.Fprintf(w, "  ... and %d more\n", len(analysis.Failures)-50)
			break
		}
		fmt.Fprintf(w, "  %s | %s | %s | %s\n", f.Date, f.Expected, f.Got, f.Error)
	}
	fmt.Fprintln(w)
}

func saveResults(filename string, analysis *Analysis) {
	output := struct {
		GeneratedAt string `json:"generated_at"`
		*Analysis
	}{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Analysis:    analysis,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling results: %v\n", err)
		return
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		fmt.Printf("Error writing file: %v\n", err)
		return
	}

	fmt.Printf("Results saved to: %s\n", filename)
}
