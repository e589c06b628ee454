package query

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

// Heatmap is the weekday x hour activity grid with its derived peak and
// quiet markers. Weekday 0 is Monday.
type Heatmap struct {
	Grid        [7][24]int64 `json:"grid"`
	PeakWeekday int          `json:"peak_weekday"`
	PeakHour    int          `json:"peak_hour"`
	PeakCount   int64        `json:"peak_count"`
	// PeakMessages is the largest single-day total inside the window.
	PeakMessages int64 `json:"peak_messages"`
	BusiestDay   int   `json:"busiest_day"`
	BusiestHour  int   `json:"busiest_hour"`
	QuietStart   int   `json:"quiet_start"`
	QuietCount   int64 `json:"quiet_count"`
	Total        int64 `json:"total"`
}

// HeatmapStats aggregates the per-day hourly hashes into the 7x24 grid,
// keying each day's counts by its own weekday, then derives the peak cell,
// the max daily total, the busiest weekday and hour, and the quietest
// two-hour window. Default window is the last 30 days; windows wider than
// the per-day scan bound fall back to the long-lived accumulator hash,
// which cannot recover daily totals.
func (s *Service) HeatmapStats(ctx context.Context, p Params) (*Heatmap, error) {
	key := s.cacheKey(ctx, "heatmap", p)
	var cached Heatmap
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	start, end := p.Start, p.End
	if !p.windowed() {
		now := time.Now().UTC()
		start, end = now.AddDate(0, 0, -29), now
	}

	days := storage.DaysInRange(start, end)
	var hm *Heatmap
	var err error
	if len(days) <= maxWindowDays {
		hm, err = s.heatmapWindowed(ctx, p.GuildID, days)
	} else {
		hm, err = s.heatmapAllTime(ctx, p.GuildID)
	}
	if err != nil {
		return nil, err
	}

	finishHeatmap(hm)
	s.cachePut(ctx, key, hm, cacheTTLLong)
	return hm, nil
}

func (s *Service) heatmapWindowed(ctx context.Context, guildID string, days []string) (*Heatmap, error) {
	client, err := s.store.GetClientSafe()
	if err != nil {
		return nil, err
	}

	pipe := client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(days))
	for i, day := range days {
		cmds[i] = pipe.HGetAll(ctx, storage.HourlyKey(guildID, day))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	hm := &Heatmap{}
	for i, day := range days {
		t, err := storage.ParseDay(day)
		if err != nil {
			continue
		}
		weekday := storage.WeekdayUTC(t)

		var dayTotal int64
		for field, raw := range cmds[i].Val() {
			hour := parseHour(field)
			if hour < 0 {
				continue
			}
			n := parseCount(raw)
			hm.Grid[weekday][hour] += n
			dayTotal += n
		}
		if dayTotal > hm.PeakMessages {
			hm.PeakMessages = dayTotal
		}
	}
	return hm, nil
}

func (s *Service) heatmapAllTime(ctx context.Context, guildID string) (*Heatmap, error) {
	fields, err := s.store.HGetAll(ctx, storage.HeatmapKey(guildID))
	if err != nil {
		return nil, err
	}

	hm := &Heatmap{}
	for field, raw := range fields {
		weekday, hour, ok := parseHeatmapField(field)
		if !ok {
			continue
		}
		hm.Grid[weekday][hour] = parseCount(raw)
	}
	return hm, nil
}

// finishHeatmap derives the markers shared by both load paths.
func finishHeatmap(hm *Heatmap) {
	hm.PeakWeekday, hm.PeakHour, hm.PeakCount = peakCell(&hm.Grid)
	hm.BusiestDay = busiestWeekday(&hm.Grid)
	totals := hourTotals(&hm.Grid)
	hm.BusiestHour = busiestHour(totals)
	hm.QuietStart, hm.QuietCount = quietWindow(totals)
	for _, row := range hm.Grid {
		for _, n := range row {
			hm.Total += n
		}
	}
}

// parseHeatmapField splits a "weekday_hour" hash field.
func parseHeatmapField(field string) (weekday, hour int, ok bool) {
	parts := strings.SplitN(field, "_", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	weekday, err := strconv.Atoi(parts[0])
	if err != nil || weekday < 0 || weekday > 6 {
		return 0, 0, false
	}
	hour = parseHour(parts[1])
	if hour < 0 {
		return 0, 0, false
	}
	return weekday, hour, true
}

// peakCell returns the busiest single cell; earliest cell wins ties.
func peakCell(grid *[7][24]int64) (weekday, hour int, count int64) {
	for w := 0; w < 7; w++ {
		for h := 0; h < 24; h++ {
			if grid[w][h] > count {
				weekday, hour, count = w, h, grid[w][h]
			}
		}
	}
	return weekday, hour, count
}

func busiestWeekday(grid *[7][24]int64) int {
	best, bestSum := 0, int64(-1)
	for w := 0; w < 7; w++ {
		var sum int64
		for h := 0; h < 24; h++ {
			sum += grid[w][h]
		}
		if sum > bestSum {
			best, bestSum = w, sum
		}
	}
	return best
}

func hourTotals(grid *[7][24]int64) [24]int64 {
	var totals [24]int64
	for w := 0; w < 7; w++ {
		for h := 0; h < 24; h++ {
			totals[h] += grid[w][h]
		}
	}
	return totals
}

func busiestHour(totals [24]int64) int {
	best, bestCount := 0, int64(-1)
	for h, n := range totals {
		if n > bestCount {
			best, bestCount = h, n
		}
	}
	return best
}

// quietWindow finds the two consecutive hours with the lowest combined
// traffic. The window wraps, so 23-00 is a candidate; the earliest start
// wins ties.
func quietWindow(totals [24]int64) (start int, count int64) {
	start, count = 0, totals[0]+totals[1]
	for h := 1; h < 24; h++ {
		sum := totals[h] + totals[(h+1)%24]
		if sum < count {
			start, count = h, sum
		}
	}
	return start, count
}
