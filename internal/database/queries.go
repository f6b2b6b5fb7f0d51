package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// =============================================================================
// Schedule writes
// =============================================================================

// SaveYear stores a year's schedule, replacing any earlier copy of the
// same (year, il). Header and weeks are written in one transaction, so
// readers never see a partial year.
func (db *DB) SaveYear(ctx context.Context, y *ScheduleYear) error {
	return db.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO schedule_years (year, il, year_type, keviah, first_saturday, weeks, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, datetime('now'))
			ON CONFLICT(year, il) DO UPDATE SET
				year_type = excluded.year_type,
				keviah = excluded.keviah,
				first_saturday = excluded.first_saturday,
				weeks = excluded.weeks,
				updated_at = datetime('now')
		`, y.Year, boolToInt(y.Israel), y.YearType, y.Keviah, y.FirstSaturday, len(y.Weeks))
		if err != nil {
			return fmt.Errorf("upsert schedule year %d: %w", y.Year, err)
		}

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM schedule_weeks WHERE year = ? AND il = ?",
			y.Year, boolToInt(y.Israel),
		); err != nil {
			return fmt.Errorf("clear weeks of %d: %w", y.Year, err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO schedule_weeks (year, il, week, rd, date, hebrew_date, parsha, nums, chag)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare week insert: %w", err)
		}
		defer stmt.Close()

		for _, w := range y.Weeks {
			parsha, err := marshalJSON(w.Parsha)
			if err != nil {
				return fmt.Errorf("encode parsha of week %d: %w", w.Week, err)
			}
			nums := "[]"
			if len(w.Num) > 0 {
				if nums, err = marshalJSON(w.Num); err != nil {
					return fmt.Errorf("encode nums of week %d: %w", w.Week, err)
				}
			}
			if _, err := stmt.ExecContext(ctx,
				y.Year, boolToInt(y.Israel), w.Week, w.RD, w.Date, w.HebrewDate,
				parsha, nums, boolToInt(w.Chag),
			); err != nil {
				return fmt.Errorf("insert week %d of %d: %w", w.Week, y.Year, err)
			}
		}
		return nil
	})
}

// DeleteYear removes a stored year and its weeks. It returns ErrNotFound
// if the year was never saved.
func (db *DB) DeleteYear(ctx context.Context, year int, il bool) error {
	res, err := db.ExecContext(ctx,
		"DELETE FROM schedule_years WHERE year = ? AND il = ?", year, boolToInt(il))
	if err != nil {
		return fmt.Errorf("delete schedule year: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// =============================================================================
// Schedule reads
// =============================================================================

// GetYear loads a stored year with all of its weeks. Returns ErrNotFound
// if the year has not been materialized.
func (db *DB) GetYear(ctx context.Context, year int, il bool) (*ScheduleYear, error) {
	y := ScheduleYear{Year: year, Israel: il}
	var createdAt string

	err := db.QueryRowContext(ctx, `
		SELECT year_type, keviah, first_saturday, weeks, created_at
		FROM schedule_years
		WHERE year = ? AND il = ?
	`, year, boolToInt(il)).Scan(&y.YearType, &y.Keviah, &y.FirstSaturday, &y.WeekCount, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query schedule year: %w", err)
	}
	y.CreatedAt = parseTimestamp(createdAt)

	y.Weeks, err = db.queryWeeks(ctx, `
		SELECT year, il, week, rd, date, hebrew_date, parsha, nums, chag
		FROM schedule_weeks
		WHERE year = ? AND il = ?
		ORDER BY week
	`, year, boolToInt(il))
	if err != nil {
		return nil, err
	}
	return &y, nil
}

// GetWeeksInRange returns the stored Saturdays whose Gregorian date lies
// in [start, end], both YYYY-MM-DD, in date order. Years that were never
// materialized simply contribute no rows.
func (db *DB) GetWeeksInRange(ctx context.Context, il bool, start, end string) ([]ScheduleWeek, error) {
	return db.queryWeeks(ctx, `
		SELECT year, il, week, rd, date, hebrew_date, parsha, nums, chag
		FROM schedule_weeks
		WHERE il = ? AND date >= ? AND date <= ?
		ORDER BY rd
	`, boolToInt(il), start, end)
}

// CountYears returns how many (year, il) schedules are stored.
func (db *DB) CountYears(ctx context.Context) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schedule_years").Scan(&n); err != nil {
		return 0, fmt.Errorf("count schedule years: %w", err)
	}
	return n, nil
}

// ListYears returns the stored years for one schedule, ascending.
func (db *DB) ListYears(ctx context.Context, il bool) ([]int, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT year FROM schedule_years WHERE il = ? ORDER BY year", boolToInt(il))
	if err != nil {
		return nil, fmt.Errorf("list schedule years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, fmt.Errorf("scan year: %w", err)
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

func (db *DB) queryWeeks(ctx context.Context, query string, args ...any) ([]ScheduleWeek, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query schedule weeks: %w", err)
	}
	defer rows.Close()

	var weeks []ScheduleWeek
	for rows.Next() {
		var (
			w            ScheduleWeek
			il, chag     int
			parsha, nums string
		)
		if err := rows.Scan(&w.Year, &il, &w.Week, &w.RD, &w.Date, &w.HebrewDate, &parsha, &nums, &chag); err != nil {
			return nil, fmt.Errorf("scan schedule week: %w", err)
		}
		w.Israel = il == 1
		w.Chag = chag == 1
		if w.Parsha, err = unmarshalStrings(parsha); err != nil {
			return nil, fmt.Errorf("week %d of %d: %w", w.Week, w.Year, err)
		}
		if w.Num, err = unmarshalInts(nums); err != nil {
			return nil, fmt.Errorf("week %d of %d: %w", w.Week, w.Year, err)
		}
		weeks = append(weeks, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedule weeks: %w", err)
	}
	return weeks, nil
}
