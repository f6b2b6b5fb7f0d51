package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/parsha-api/internal/calendar"
	"github.com/zapponejosh/parsha-api/internal/database"
	"github.com/zapponejosh/parsha-api/internal/logger"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	now := func() time.Time { return time.Date(1988, time.November, 2, 12, 0, 0, 0, time.UTC) }
	cmd := newRootCmd(&options{now: now})

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "parsha version "+Version+"\n", out)
}

func TestLookup(t *testing.T) {
	out, err := execute(t, "lookup", "1988-11-05")
	require.NoError(t, err)
	assert.Equal(t, "1988-11-05 (25 Cheshvan 5749, Diaspora): Chayei Sara\n", out)
}

func TestLookup_Today(t *testing.T) {
	out, err := execute(t, "lookup")
	require.NoError(t, err)
	assert.Contains(t, out, "1988-11-05")
	assert.Contains(t, out, "Chayei Sara")
}

func TestLookup_JSON(t *testing.T) {
	out, err := execute(t, "lookup", "1989-07-12", "--json")
	require.NoError(t, err)

	var r calendar.Reading
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "1989-07-15", r.Date)
	assert.Equal(t, []string{"Chukat", "Balak"}, r.Parsha)
	assert.Equal(t, []int{39, 40}, r.Num)
	assert.False(t, r.Israel)
}

func TestLookup_BadDate(t *testing.T) {
	_, err := execute(t, "lookup", "11/05/1988")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}

func TestYear(t *testing.T) {
	out, err := execute(t, "year", "5781")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "5781 ("), out)
	assert.Contains(t, out, "Ha'azinu")
	assert.Contains(t, out, "(Rosh Hashana)")
	assert.Contains(t, out, "2020-10-17")
	assert.Contains(t, out, "Bereshit")
}

func TestYear_Errors(t *testing.T) {
	_, err := execute(t, "year", "five")
	assert.Error(t, err)

	_, err = execute(t, "year")
	assert.Error(t, err)

	_, err = execute(t, "year", "0")
	assert.Error(t, err)
}

func TestFind(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"single", []string{"find", "5781", "Lech-Lecha"}, "2020-10-31"},
		{"case insensitive", []string{"find", "5781", "chayei sara"}, "2020-11-14"},
		{"separate pair", []string{"find", "5781", "Chukat-Balak"}, "not read in that form"},
		{"containing", []string{"find", "5781", "Chukat-Balak", "--containing"}, "2021-06-19"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestFind_UnknownParsha(t *testing.T) {
	_, err := execute(t, "find", "5781", "Nonesuch")
	assert.Error(t, err)
}

func TestConvert(t *testing.T) {
	out, err := execute(t, "convert", "2024-04-23")
	require.NoError(t, err)
	assert.Contains(t, out, "Tuesday 2024-04-23 = 15 Nisan 5784")
	assert.Contains(t, out, "383 days")

	out, err = execute(t, "convert", "5785", "Adar", "14")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-03-14 = 14 Adar 5785")
}

func TestConvert_JSON(t *testing.T) {
	out, err := execute(t, "convert", "5784", "Adar II", "14", "--json")
	require.NoError(t, err)

	var info calendar.DateInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "2024-03-24", info.Gregorian)
	assert.True(t, info.Leap)
}

func TestConvert_Errors(t *testing.T) {
	_, err := execute(t, "convert", "5785", "Adar")
	assert.Error(t, err)

	_, err = execute(t, "convert", "5785", "Smarch", "1")
	assert.Error(t, err)
}

func TestKeviot(t *testing.T) {
	out, err := execute(t, "keviot", "--from", "5781", "--to", "5785", "--json")
	require.NoError(t, err)

	var rows []keviahRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 14)

	total := 0
	for _, r := range rows {
		total += r.Years
		if r.Years > 0 {
			assert.NotZero(t, r.Saturdays, r.Code)
			assert.GreaterOrEqual(t, r.Example, 5781)
		}
	}
	assert.Equal(t, 5, total)
}

func TestKeviot_InvalidRange(t *testing.T) {
	_, err := execute(t, "keviot", "--from", "5790", "--to", "5780")
	assert.Error(t, err)
}

func TestMaterialize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parsha.db")

	out, err := execute(t, "materialize", "--db", path, "--from", "5781", "--years", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "stored 5781-5782 (Diaspora): 2 years")

	db, err := database.Open(database.DefaultConfig(path), logger.Discard())
	require.NoError(t, err)
	defer db.Close()

	n, err := db.CountYears(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMaterialize_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parsha.db")

	_, err := execute(t, "materialize", "--db", path)
	assert.Error(t, err, "--from is required")

	_, err = execute(t, "materialize", "--db", path, "--from", "5781", "--years", "0")
	assert.Error(t, err)
}
