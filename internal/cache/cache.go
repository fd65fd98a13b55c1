// Package cache persists per-server favicons and a rolling window of daily
// player statistics, keyed by normalized server address.
package cache

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/craftstat/craftstat/internal/status"
	"github.com/rs/zerolog/log"
)

// dayFormat is the local-date form used for the ring's day boundary.
const dayFormat = "2006-01-02"

// DayBucket accumulates the samples observed during one local day. The
// running totals make the average exact across read-modify-write cycles.
type DayBucket struct {
	Samples     int64 `json:"samples"`
	TotalOnline int64 `json:"total_online"`
	PeakOnline  int64 `json:"peak_online"`
	PeakMax     int64 `json:"peak_max"`
}

// Record is the persisted cache entry for one server address.
type Record struct {
	// Favicon is the last persisted icon as base64 PNG; Generated marks it
	// as an identicon rather than a server-provided image.
	Favicon   string `json:"favicon,omitempty"`
	Generated bool   `json:"generated,omitempty"`

	// Days is the daily stats ring, oldest first, current day last.
	Days [status.WeekDays]DayBucket `json:"days"`

	// LastUpdatedDay is the local date the ring was last aligned to.
	LastUpdatedDay string `json:"last_updated_day"`
}

// Cache owns all cache records. Other components only ever see copies.
type Cache struct {
	store Store

	// now is swappable for tests.
	now func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New builds a cache on top of a byte store.
func New(store Store) *Cache {
	return &Cache{
		store: store,
		now:   time.Now,
		locks: make(map[string]*sync.Mutex),
	}
}

// keyLock returns the mutex serializing read-modify-write cycles for one
// address key.
func (c *Cache) keyLock(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.locks[key]
	if !ok {
		l = &sync.Mutex{}
		c.locks[key] = l
	}
	return l
}

// Lookup implements status.Cache. It returns the cached fallback for key,
// with the stats window re-aligned to today, or nil when the address has
// never been cached. Lookup never mutates the store.
func (c *Cache) Lookup(key string) (*status.CachedStatus, error) {
	lock := c.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	rec, err := c.read(key)
	if err != nil || rec == nil {
		return nil, err
	}

	rec.alignTo(c.today())

	return &status.CachedStatus{
		Favicon:   rec.Favicon,
		Generated: rec.Generated,
		Week:      rec.weekStats(),
	}, nil
}

// Persist implements status.Cache. It overwrites the stored favicon and
// folds one online/max sample into today's bucket under the per-key lock.
// The computed week window is returned even when the write fails, so a
// broken store degrades the cache, not the probe.
func (c *Cache) Persist(key, favicon string, generated bool, online, max int64) (status.WeekStats, error) {
	lock := c.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	rec, err := c.read(key)
	if err != nil {
		log.Error().Err(err).Str("address", key).Msg("Unreadable cache record, starting fresh")
	}
	if rec == nil {
		rec = &Record{}
	}

	rec.alignTo(c.today())
	rec.Favicon = favicon
	rec.Generated = generated

	today := &rec.Days[status.WeekDays-1]
	today.Samples++
	today.TotalOnline += online
	if online > today.PeakOnline {
		today.PeakOnline = online
	}
	if max > today.PeakMax {
		today.PeakMax = max
	}

	week := rec.weekStats()

	data, err := json.Marshal(rec)
	if err != nil {
		return week, fmt.Errorf("marshal cache record: %w", err)
	}
	if err := c.store.PutBytes(key, data); err != nil {
		return week, fmt.Errorf("write cache record: %w", err)
	}

	return week, nil
}

// read fetches and decodes the record for key. A missing key yields
// (nil, nil); an undecodable record yields (nil, error) so callers can
// start fresh.
func (c *Cache) read(key string) (*Record, error) {
	data, err := c.store.GetBytes(key)
	if err != nil {
		return nil, fmt.Errorf("read cache record: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode cache record: %w", err)
	}

	return &rec, nil
}

func (c *Cache) today() string {
	return c.now().Local().Format(dayFormat)
}

// alignTo rotates the ring so its last slot is the given local day: one
// shift per elapsed day, dropping the oldest bucket and appending a zeroed
// one. A record from the future (clock change) is re-stamped without
// shifting.
func (r *Record) alignTo(today string) {
	elapsed := daysBetween(r.LastUpdatedDay, today)
	if elapsed <= 0 {
		r.LastUpdatedDay = today
		return
	}
	if elapsed >= status.WeekDays || r.LastUpdatedDay == "" {
		r.Days = [status.WeekDays]DayBucket{}
		r.LastUpdatedDay = today
		return
	}

	copy(r.Days[:], r.Days[elapsed:])
	for i := status.WeekDays - elapsed; i < status.WeekDays; i++ {
		r.Days[i] = DayBucket{}
	}
	r.LastUpdatedDay = today
}

// weekStats projects the ring into the exposed stats window.
func (r *Record) weekStats() status.WeekStats {
	var week status.WeekStats

	for i, day := range r.Days {
		stats := status.RangeStats{PeakOnline: day.PeakOnline}
		if day.Samples > 0 {
			stats.AverageOnline = day.TotalOnline / day.Samples
		}
		week.DailyStats[i] = stats

		if day.PeakOnline > week.PeakOnline {
			week.PeakOnline = day.PeakOnline
		}
		if day.PeakMax > week.PeakMax {
			week.PeakMax = day.PeakMax
		}
	}

	return week
}

// daysBetween counts calendar days from one dayFormat date to another.
// Unparseable inputs count as "very old" so the ring resets.
func daysBetween(from, to string) int {
	if from == to {
		return 0
	}

	fromDay, err := time.ParseInLocation(dayFormat, from, time.Local)
	if err != nil {
		return status.WeekDays
	}
	toDay, err := time.ParseInLocation(dayFormat, to, time.Local)
	if err != nil {
		return status.WeekDays
	}

	// Round to absorb DST-shifted day lengths.
	return int(toDay.Sub(fromDay).Round(24*time.Hour) / (24 * time.Hour))
}
