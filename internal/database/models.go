package database

import (
	"encoding/json"
	"fmt"
	"time"
)

// ScheduleYear is the stored header of one year's reading schedule.
type ScheduleYear struct {
	Year          int            `json:"year"`
	Israel        bool           `json:"il"`
	YearType      string         `json:"year_type"` // keviah code, e.g. "120"
	Keviah        string         `json:"keviah"`    // e.g. "leap/Mon/deficient"
	FirstSaturday string         `json:"first_saturday"`
	WeekCount     int            `json:"week_count"`
	CreatedAt     time.Time      `json:"created_at"`
	Weeks         []ScheduleWeek `json:"weeks,omitempty"`
}

// ScheduleWeek is the stored reading of one Saturday.
type ScheduleWeek struct {
	Year       int      `json:"year"`
	Israel     bool     `json:"il"`
	Week       int      `json:"week"`
	RD         int64    `json:"rd"`
	Date       string   `json:"date"`
	HebrewDate string   `json:"hebrew_date"`
	Parsha     []string `json:"parsha"`
	Num        []int    `json:"num,omitempty"`
	Chag       bool     `json:"chag"`
}

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// unmarshalStrings decodes a JSON string array column.
func unmarshalStrings(s string) ([]string, error) {
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decode %q: %w", s, err)
	}
	return out, nil
}

// unmarshalInts decodes a JSON number array column; an empty array
// becomes nil.
func unmarshalInts(s string) ([]int, error) {
	var out []int
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decode %q: %w", s, err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// parseTimestamp reads SQLite's datetime('now') format, falling back to
// RFC 3339. It returns the zero time when neither matches.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
