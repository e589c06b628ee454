package query

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

// ActivityPoint is one day of the DAU series.
type ActivityPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// ActivitySummary is the headline engagement block: live unique-user counts
// plus the daily series for the requested window.
type ActivitySummary struct {
	DAU        int64           `json:"dau"`
	WAU        int64           `json:"wau"`
	MAU        int64           `json:"mau"`
	Stickiness float64         `json:"stickiness"`
	Series     []ActivityPoint `json:"series"`
}

// Activity returns DAU/WAU/MAU, stickiness and the windowed series. The
// rolling counts always end today regardless of the window; the series
// follows the window (last 30 days when none is given).
func (s *Service) Activity(ctx context.Context, p Params) (*ActivitySummary, error) {
	key := s.cacheKey(ctx, "activity", p)
	var cached ActivitySummary
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	now := time.Now().UTC()
	today := storage.DayKey(now)

	dau, err := s.store.DAUCount(ctx, p.GuildID, today)
	if err != nil {
		return nil, err
	}
	wau, err := s.store.UniqueCount(ctx, p.GuildID,
		storage.DaysInRange(now.AddDate(0, 0, -6), now))
	if err != nil {
		return nil, err
	}
	mau, err := s.store.UniqueCount(ctx, p.GuildID,
		storage.DaysInRange(now.AddDate(0, 0, -29), now))
	if err != nil {
		return nil, err
	}

	start, end := p.Start, p.End
	if !p.windowed() {
		start, end = now.AddDate(0, 0, -29), now
	}
	days := storage.DaysInRange(start, end)
	counts, err := s.store.DAUSeries(ctx, p.GuildID, days)
	if err != nil {
		return nil, err
	}

	series := make([]ActivityPoint, len(days))
	for i, day := range days {
		series[i] = ActivityPoint{Date: day, Count: counts[i]}
	}

	out := &ActivitySummary{
		DAU:        dau,
		WAU:        wau,
		MAU:        mau,
		Stickiness: stickiness(dau, mau),
		Series:     series,
	}
	s.cachePut(ctx, key, out, cacheTTLShort)
	return out, nil
}

// stickiness is the DAU/MAU ratio as a percentage.
func stickiness(dau, mau int64) float64 {
	if mau <= 0 {
		return 0
	}
	return float64(dau) / float64(mau) * 100
}

// StickinessPoint is one day of the rolling-ratio series: the day's DAU
// against the 7-day and 30-day unique unions ending that day.
type StickinessPoint struct {
	Date      string  `json:"date"`
	DAU       int64   `json:"dau"`
	WAU       int64   `json:"wau"`
	MAU       int64   `json:"mau"`
	DAUWAUPct float64 `json:"dau_wau_pct"`
	DAUMAUPct float64 `json:"dau_mau_pct"`
}

// StickinessSeries computes DAU(d), WAU over {d-6..d} and MAU over
// {d-29..d} for every day d in the window, with both percentage ratios.
// Three PFCOUNT unions per day make this the priciest activity query, so
// it holds the long cache TTL.
func (s *Service) StickinessSeries(ctx context.Context, p Params) ([]StickinessPoint, error) {
	key := s.cacheKey(ctx, "stickiness-series", p)
	var cached []StickinessPoint
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	start, end := p.Start, p.End
	if !p.windowed() {
		now := time.Now().UTC()
		start, end = now.AddDate(0, 0, -29), now
	}

	var points []StickinessPoint
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dau, err := s.store.DAUCount(ctx, p.GuildID, storage.DayKey(d))
		if err != nil {
			return nil, err
		}
		wau, err := s.store.UniqueCount(ctx, p.GuildID,
			storage.DaysInRange(d.AddDate(0, 0, -6), d))
		if err != nil {
			return nil, err
		}
		mau, err := s.store.UniqueCount(ctx, p.GuildID,
			storage.DaysInRange(d.AddDate(0, 0, -29), d))
		if err != nil {
			return nil, err
		}
		points = append(points, stickinessPoint(storage.DayKey(d), dau, wau, mau))
	}

	s.cachePut(ctx, key, points, cacheTTLLong)
	return points, nil
}

func stickinessPoint(date string, dau, wau, mau int64) StickinessPoint {
	return StickinessPoint{
		Date:      date,
		DAU:       dau,
		WAU:       wau,
		MAU:       mau,
		DAUWAUPct: stickiness(dau, wau),
		DAUMAUPct: stickiness(dau, mau),
	}
}

// HourlyTotals sums the per-day hour hashes across the window into a 24-slot
// distribution.
func (s *Service) HourlyTotals(ctx context.Context, p Params) ([24]int64, error) {
	var totals [24]int64

	start, end := p.Start, p.End
	if !p.windowed() {
		now := time.Now().UTC()
		start, end = now.AddDate(0, 0, -29), now
	}

	client, err := s.store.GetClientSafe()
	if err != nil {
		return totals, err
	}

	days := storage.DaysInRange(start, end)
	pipe := client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(days))
	for i, day := range days {
		cmds[i] = pipe.HGetAll(ctx, storage.HourlyKey(p.GuildID, day))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return totals, err
	}

	for _, c := range cmds {
		for field, raw := range c.Val() {
			hour := parseHour(field)
			if hour < 0 {
				continue
			}
			totals[hour] += parseCount(raw)
		}
	}
	return totals, nil
}
