package database

// migrationsSQL holds the schema, keyed by version. Versions are applied
// in order and never edited once released.
var migrationsSQL = map[int]string{
	1: migrationV1Schedules,
	2: migrationV2Indexes,
}

// migrationV1Schedules stores materialized schedules: one row per
// (year, il) and one row per Saturday of that year.
const migrationV1Schedules = `
CREATE TABLE IF NOT EXISTS schedule_years (
    year INTEGER NOT NULL CHECK (year >= 1),
    il INTEGER NOT NULL CHECK (il IN (0, 1)),

    -- keviah code ("120") and readable form ("leap/Mon/deficient")
    year_type TEXT NOT NULL,
    keviah TEXT NOT NULL,

    first_saturday TEXT NOT NULL, -- YYYY-MM-DD
    weeks INTEGER NOT NULL,

    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now')),

    PRIMARY KEY (year, il)
);

CREATE TABLE IF NOT EXISTS schedule_weeks (
    year INTEGER NOT NULL,
    il INTEGER NOT NULL,
    week INTEGER NOT NULL, -- 0-based Saturday index within the year

    rd INTEGER NOT NULL,
    date TEXT NOT NULL,        -- Gregorian YYYY-MM-DD
    hebrew_date TEXT NOT NULL, -- "15 Nisan 5784"

    -- JSON arrays: '["Chukat","Balak"]' and '[39,40]'
    parsha TEXT NOT NULL,
    nums TEXT NOT NULL DEFAULT '[]',
    chag INTEGER NOT NULL DEFAULT 0 CHECK (chag IN (0, 1)),

    PRIMARY KEY (year, il, week),
    FOREIGN KEY (year, il) REFERENCES schedule_years(year, il) ON DELETE CASCADE
);
`

// migrationV2Indexes supports range queries by civil date, which is how
// feeds and the coverage tool read the table.
const migrationV2Indexes = `
CREATE INDEX IF NOT EXISTS idx_schedule_weeks_date
    ON schedule_weeks(il, date);

CREATE INDEX IF NOT EXISTS idx_schedule_weeks_rd
    ON schedule_weeks(il, rd);
`
