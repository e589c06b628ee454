package redis

import (
	"fmt"
	"time"
)

// Day attribution convention: daily stat keys (DAU, hourly, channel, user
// daily) use UTC day boundaries. Monthly join/leave buckets use
// Europe/Prague, matching the reporting convention of the community this
// platform serves.

var pragueLoc = mustLoadLocation("Europe/Prague")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("CET", 3600)
	}
	return loc
}

// DayKey formats a time as the compact UTC day string used in daily keys.
func DayKey(t time.Time) string {
	return t.UTC().Format("20060102")
}

// DateKey formats a time as the dashed UTC date used in score caches.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// MonthKeyPrague formats a time as the YYYY-MM bucket for join/leave counts.
func MonthKeyPrague(t time.Time) string {
	return t.In(pragueLoc).Format("2006-01")
}

// MonthStartPrague returns midnight on the first of the month containing t.
func MonthStartPrague(t time.Time) time.Time {
	local := t.In(pragueLoc)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, pragueLoc)
}

// HourUTC returns the 0-23 hour bucket of a time.
func HourUTC(t time.Time) int {
	return t.UTC().Hour()
}

// WeekdayUTC returns the heatmap weekday, 0=Monday .. 6=Sunday.
func WeekdayUTC(t time.Time) int {
	wd := int(t.UTC().Weekday())
	// time.Weekday has Sunday=0
	return (wd + 6) % 7
}

// HeatmapField returns the "{weekday}_{hour}" hash field.
func HeatmapField(weekday, hour int) string {
	return fmt.Sprintf("%d_%d", weekday, hour)
}

// ParseDay parses a compact UTC day string.
func ParseDay(day string) (time.Time, error) {
	return time.ParseInLocation("20060102", day, time.UTC)
}

// ParseDate parses a dashed date string.
func ParseDate(date string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", date, time.UTC)
}

// DaysInRange returns the compact day keys from start to end inclusive.
func DaysInRange(start, end time.Time) []string {
	var days []string
	cur := time.Date(start.UTC().Year(), start.UTC().Month(), start.UTC().Day(), 0, 0, 0, 0, time.UTC)
	last := time.Date(end.UTC().Year(), end.UTC().Month(), end.UTC().Day(), 0, 0, 0, 0, time.UTC)
	for !cur.After(last) {
		days = append(days, DayKey(cur))
		cur = cur.AddDate(0, 0, 1)
	}
	return days
}

// DatesInRange returns the dashed date keys from start to end inclusive.
func DatesInRange(start, end time.Time) []string {
	var dates []string
	cur := time.Date(start.UTC().Year(), start.UTC().Month(), start.UTC().Day(), 0, 0, 0, 0, time.UTC)
	last := time.Date(end.UTC().Year(), end.UTC().Month(), end.UTC().Day(), 0, 0, 0, 0, time.UTC)
	for !cur.After(last) {
		dates = append(dates, DateKey(cur))
		cur = cur.AddDate(0, 0, 1)
	}
	return dates
}
