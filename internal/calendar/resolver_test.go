package calendar

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/parsha-api/internal/database"
	"github.com/zapponejosh/parsha-api/internal/logger"
	"github.com/zapponejosh/parsha-api/internal/sedra"
)

type memStore struct {
	mu      sync.Mutex
	years   map[int]*database.ScheduleYear
	saves   int
	saveErr error
	getErr  error
}

func newMemStore() *memStore {
	return &memStore{years: make(map[int]*database.ScheduleYear)}
}

func (m *memStore) GetYear(_ context.Context, year int, il bool) (*database.ScheduleYear, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	y, ok := m.years[key(year, il)]
	if !ok {
		return nil, database.ErrNotFound
	}
	return y, nil
}

func (m *memStore) SaveYear(_ context.Context, y *database.ScheduleYear) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.years[key(y.Year, y.Israel)] = y
	return nil
}

func key(year int, il bool) int {
	if il {
		return -year
	}
	return year
}

type countingRecorder struct {
	mu    sync.Mutex
	years map[bool]int
}

func (c *countingRecorder) YearsMaterialized(il bool, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.years == nil {
		c.years = make(map[bool]int)
	}
	c.years[il] += n
}

func testDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(database.DefaultConfig(":memory:"), logger.Discard())
	require.NoError(t, err)
	_, err = db.Migrate(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveDate(t *testing.T) {
	r := NewResolver(nil, nil, logger.Discard())
	ctx := context.Background()

	tests := []struct {
		name   string
		date   time.Time
		want   string
		num    []int
		year   int
		sat    string
		isChag bool
	}{
		{"saturday", date(1988, time.November, 5), "Chayei Sara", []int{5}, 5749, "1988-11-05", false},
		{"midweek", date(1988, time.November, 2), "Chayei Sara", []int{5}, 5749, "1988-11-05", false},
		{"doubled", date(1989, time.July, 15), "Chukat-Balak", []int{39, 40}, 5749, "1989-07-15", false},
		{"rosh hashana", date(2020, time.September, 19), "Rosh Hashana", nil, 5781, "2020-09-19", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ResolveDate(ctx, tt.date, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Name)
			assert.Equal(t, tt.num, got.Num)
			assert.Equal(t, tt.year, got.Year)
			assert.Equal(t, tt.sat, got.Date)
			assert.Equal(t, tt.isChag, got.Chag)
		})
	}
}

func TestResolveDate_CancelledContext(t *testing.T) {
	r := NewResolver(nil, nil, logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.ResolveDate(ctx, date(2024, time.January, 1), false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestYear_ReadThrough(t *testing.T) {
	store := newMemStore()
	rec := &countingRecorder{}
	stamp := time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)
	r := NewResolver(store, nil, logger.Discard(), WithRecorder(rec), WithClock(func() time.Time { return stamp }))
	ctx := context.Background()

	first, err := r.Year(ctx, 5781, false)
	require.NoError(t, err)
	assert.Equal(t, "070", first.YearType)
	assert.Equal(t, stamp, first.CreatedAt)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 1, rec.years[false])

	second, err := r.Year(ctx, 5781, false)
	require.NoError(t, err)
	assert.Same(t, first, second, "second call must come from the store")
	assert.Equal(t, 1, store.saves)
}

func TestYear_SaveFailureStillServes(t *testing.T) {
	store := newMemStore()
	store.saveErr = errors.New("disk full")
	rec := &countingRecorder{}
	r := NewResolver(store, nil, logger.Discard(), WithRecorder(rec))

	y, err := r.Year(context.Background(), 5784, true)
	require.NoError(t, err)
	assert.True(t, y.Israel)
	assert.Equal(t, 0, rec.years[true])
}

func TestYear_LoadFailure(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("database is locked")
	r := NewResolver(store, nil, logger.Discard())

	_, err := r.Year(context.Background(), 5784, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestYear_OutOfRange(t *testing.T) {
	r := NewResolver(newMemStore(), nil, logger.Discard())

	_, err := r.Year(context.Background(), 0, false)
	assert.ErrorIs(t, err, sedra.ErrOutOfRange)
}

func TestYear_WithDatabase(t *testing.T) {
	db := testDB(t)
	r := NewResolver(db, nil, logger.Discard())
	ctx := context.Background()

	built, err := r.Year(ctx, 5749, false)
	require.NoError(t, err)

	stored, err := db.GetYear(ctx, 5749, false)
	require.NoError(t, err)
	assert.Equal(t, len(built.Weeks), len(stored.Weeks))
	assert.Equal(t, built.Weeks[5].Parsha, stored.Weeks[5].Parsha)
	assert.Equal(t, built.Weeks[5].Num, stored.Weeks[5].Num)
}

func TestWeeks(t *testing.T) {
	r := NewResolver(nil, nil, logger.Discard())

	weeks, err := r.Weeks(context.Background(), 5781, 2, false)
	require.NoError(t, err)

	a, err := sedra.New(5781, false)
	require.NoError(t, err)
	b, err := sedra.New(5782, false)
	require.NoError(t, err)
	require.Len(t, weeks, a.Len()+b.Len())

	assert.Equal(t, "2020-09-19", weeks[0].Date)
	assert.Equal(t, "Rosh Hashana", weeks[0].Name)

	for i := 1; i < len(weeks); i++ {
		prev, err := ParseDateString(weeks[i-1].Date)
		require.NoError(t, err)
		cur, err := ParseDateString(weeks[i].Date)
		require.NoError(t, err)
		require.Equal(t, 7*24*time.Hour, cur.Sub(prev), "gap after %s", weeks[i-1].Date)
	}
}

func TestFind(t *testing.T) {
	r := NewResolver(nil, nil, logger.Discard())
	ctx := context.Background()

	got, err := r.Find(ctx, 5781, "bereshit", false, false)
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.Equal(t, "Bereshit", got.Parsha)
	assert.Equal(t, "2020-10-17", got.Date)

	got, err = r.Find(ctx, 5781, "Chukat-Balak", false, false)
	require.NoError(t, err)
	assert.False(t, got.Found)
	assert.Empty(t, got.Date)

	got, err = r.Find(ctx, 5781, "Chukat-Balak", false, true)
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.Equal(t, "2021-06-19", got.Date)

	_, err = r.Find(ctx, 5781, "Not A Parsha", false, false)
	assert.ErrorIs(t, err, sedra.ErrInvalidSelector)

	_, err = r.Find(ctx, 5781, "60", false, false)
	assert.ErrorIs(t, err, sedra.ErrOutOfRange)
}

func TestMaterialize(t *testing.T) {
	db := testDB(t)
	rec := &countingRecorder{}
	r := NewResolver(db, nil, logger.Discard(), WithRecorder(rec))
	ctx := context.Background()

	res, err := r.Materialize(ctx, 5780, 3, true)
	require.NoError(t, err)
	assert.Equal(t, 5780, res.From)
	assert.Equal(t, 5782, res.To)
	assert.Equal(t, 3, res.Years)
	assert.Equal(t, 3, rec.years[true])

	want := 0
	for year := 5780; year <= 5782; year++ {
		y, err := sedra.New(year, true)
		require.NoError(t, err)
		want += y.Len()
	}
	assert.Equal(t, want, res.Weeks)

	years, err := db.ListYears(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []int{5780, 5781, 5782}, years)

	// Materializing again replaces rather than duplicates.
	_, err = r.Materialize(ctx, 5781, 1, true)
	require.NoError(t, err)
	n, err := db.CountYears(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestMaterialize_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewResolver(nil, nil, logger.Discard()).Materialize(ctx, 5780, 1, false)
	assert.ErrorIs(t, err, ErrNoStore)

	r := NewResolver(newMemStore(), nil, logger.Discard())
	_, err = r.Materialize(ctx, 0, 1, false)
	assert.ErrorIs(t, err, ErrInvalidSpan)
	_, err = r.Materialize(ctx, 5780, 0, false)
	assert.ErrorIs(t, err, ErrInvalidSpan)
}

func TestToScheduleYear(t *testing.T) {
	y, err := sedra.New(5781, false)
	require.NoError(t, err)

	sy := ToScheduleYear(y)
	assert.Equal(t, 5781, sy.Year)
	assert.Equal(t, "070", sy.YearType)
	assert.Equal(t, y.Type().String(), sy.Keviah)
	assert.Equal(t, "2020-09-19", sy.FirstSaturday)
	assert.Equal(t, y.Len(), sy.WeekCount)
	assert.True(t, sy.CreatedAt.IsZero())

	assert.Equal(t, "1 Tishrei 5781", sy.Weeks[0].HebrewDate)
	assert.True(t, sy.Weeks[0].Chag)
	assert.Equal(t, []string{"Ha'azinu"}, sy.Weeks[1].Parsha)
	assert.Equal(t, []int{53}, sy.Weeks[1].Num)
	for i, w := range sy.Weeks {
		assert.Equal(t, i, w.Week)
		assert.Equal(t, sy.Weeks[0].RD+int64(7*i), w.RD)
	}
}
