package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/craftstat/craftstat/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCache returns a memory-backed cache pinned to a fixed clock the test
// can advance.
func testCache(t *testing.T) (*Cache, *time.Time) {
	t.Helper()

	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.Local)
	c := New(NewMemoryStore())
	c.now = func() time.Time { return now }

	return c, &now
}

func TestLookupMissing(t *testing.T) {
	c, _ := testCache(t)

	entry, err := c.Lookup("never.seen.example.com")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestPersistThenLookup(t *testing.T) {
	c, _ := testCache(t)

	week, err := c.Persist("mc.example.com", "iconpng", false, 12, 100)
	require.NoError(t, err)
	assert.EqualValues(t, 12, week.PeakOnline)
	assert.EqualValues(t, 100, week.PeakMax)

	entry, err := c.Lookup("mc.example.com")
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Equal(t, "iconpng", entry.Favicon)
	assert.False(t, entry.Generated)

	today := entry.Week.DailyStats[status.WeekDays-1]
	assert.EqualValues(t, 12, today.PeakOnline)
	assert.EqualValues(t, 12, today.AverageOnline)
}

func TestPersistAveragesExactly(t *testing.T) {
	c, _ := testCache(t)

	_, err := c.Persist("mc.example.com", "", true, 10, 100)
	require.NoError(t, err)
	week, err := c.Persist("mc.example.com", "", true, 20, 100)
	require.NoError(t, err)

	today := week.DailyStats[status.WeekDays-1]
	assert.EqualValues(t, 15, today.AverageOnline)
	assert.EqualValues(t, 20, today.PeakOnline)
}

func TestRingRotatesAcrossDays(t *testing.T) {
	c, now := testCache(t)

	_, err := c.Persist("mc.example.com", "icon", false, 30, 60)
	require.NoError(t, err)

	*now = now.AddDate(0, 0, 1)

	entry, err := c.Lookup("mc.example.com")
	require.NoError(t, err)
	require.NotNil(t, entry)

	yesterday := entry.Week.DailyStats[status.WeekDays-2]
	today := entry.Week.DailyStats[status.WeekDays-1]
	assert.EqualValues(t, 30, yesterday.PeakOnline)
	assert.EqualValues(t, 0, today.PeakOnline)

	// The window peak still reflects yesterday.
	assert.EqualValues(t, 30, entry.Week.PeakOnline)
}

func TestRingResetsAfterLongGap(t *testing.T) {
	c, now := testCache(t)

	_, err := c.Persist("mc.example.com", "icon", false, 30, 60)
	require.NoError(t, err)

	*now = now.AddDate(0, 0, status.WeekDays+2)

	week, err := c.Persist("mc.example.com", "icon", false, 5, 60)
	require.NoError(t, err)

	assert.EqualValues(t, 5, week.PeakOnline)
	for _, day := range week.DailyStats[:status.WeekDays-1] {
		assert.EqualValues(t, 0, day.PeakOnline)
		assert.EqualValues(t, 0, day.AverageOnline)
	}
}

func TestLookupNeverWrites(t *testing.T) {
	c, now := testCache(t)

	_, err := c.Persist("mc.example.com", "icon", false, 30, 60)
	require.NoError(t, err)

	*now = now.AddDate(0, 0, 2)

	// Two lookups across a day boundary must see the same aligned window;
	// the second one would double-shift if Lookup wrote the alignment back.
	first, err := c.Lookup("mc.example.com")
	require.NoError(t, err)
	second, err := c.Lookup("mc.example.com")
	require.NoError(t, err)

	assert.Equal(t, first.Week, second.Week)
	assert.EqualValues(t, 30, first.Week.DailyStats[status.WeekDays-3].PeakOnline)
}

func TestCorruptRecordStartsFresh(t *testing.T) {
	store := NewMemoryStore()
	c := New(store)

	require.NoError(t, store.PutBytes("mc.example.com", []byte("not json")))

	_, err := c.Lookup("mc.example.com")
	assert.Error(t, err)

	// Persist treats the unreadable record as absent and rebuilds it.
	week, err := c.Persist("mc.example.com", "icon", true, 3, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, week.PeakOnline)

	entry, err := c.Lookup("mc.example.com")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.True(t, entry.Generated)
}

func TestFutureRecordRestamps(t *testing.T) {
	c, now := testCache(t)

	_, err := c.Persist("mc.example.com", "icon", false, 9, 20)
	require.NoError(t, err)

	// Clock moved backwards (DST, manual change). The window must not shift.
	*now = now.AddDate(0, 0, -1)

	entry, err := c.Lookup("mc.example.com")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.EqualValues(t, 9, entry.Week.DailyStats[status.WeekDays-1].PeakOnline)
}

func TestDaysBetween(t *testing.T) {
	cases := []struct {
		from, to string
		want     int
	}{
		{"2026-08-20", "2026-08-20", 0},
		{"2026-08-20", "2026-08-21", 1},
		{"2026-08-20", "2026-08-27", 7},
		{"garbage", "2026-08-20", status.WeekDays},
		{"", "2026-08-20", status.WeekDays},
	}

	for _, tc := range cases {
		if got := daysBetween(tc.from, tc.to); got != tc.want {
			t.Fatalf("daysBetween(%q, %q) = %d, want %d", tc.from, tc.to, got, tc.want)
		}
	}
}

// failingStore breaks writes to exercise the degraded-persist path.
type failingStore struct{ Store }

func (failingStore) PutBytes(string, []byte) error { return errors.New("disk full") }

func TestPersistReturnsStatsOnWriteFailure(t *testing.T) {
	c := New(failingStore{NewMemoryStore()})

	week, err := c.Persist("mc.example.com", "icon", false, 7, 10)
	assert.Error(t, err)
	assert.EqualValues(t, 7, week.PeakOnline)
}
