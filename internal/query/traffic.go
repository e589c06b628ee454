package query

import (
	"context"
	"time"

	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

// TrafficPoint is one month of member churn. Cumulative is the running net
// change across the requested range.
type TrafficPoint struct {
	Month      string `json:"month"`
	Joins      int64  `json:"joins"`
	Leaves     int64  `json:"leaves"`
	Net        int64  `json:"net"`
	Cumulative int64  `json:"cumulative"`
}

// Traffic returns the monthly join/leave series for the trailing months
// (current month included, Prague time).
func (s *Service) Traffic(ctx context.Context, p Params, months int) ([]TrafficPoint, error) {
	if months <= 0 {
		months = 12
	}

	key := s.cacheKey(ctx, "traffic", p)
	var cached []TrafficPoint
	if s.cacheGet(ctx, key, &cached) && len(cached) == months {
		return cached, nil
	}

	joins, err := s.store.HGetAll(ctx, storage.JoinsKey(p.GuildID))
	if err != nil {
		return nil, err
	}
	leaves, err := s.store.HGetAll(ctx, storage.LeavesKey(p.GuildID))
	if err != nil {
		return nil, err
	}

	out := buildTraffic(joins, leaves, trailingMonths(time.Now(), months))
	s.cachePut(ctx, key, out, cacheTTLShort)
	return out, nil
}

// trailingMonths lists the month bucket keys ending at now, oldest first.
// The walk starts from the first of the month so short months cannot skip
// a bucket.
func trailingMonths(now time.Time, n int) []string {
	cur := storage.MonthStartPrague(now)
	months := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		months = append(months, storage.MonthKeyPrague(cur.AddDate(0, -i, 0)))
	}
	return months
}

func buildTraffic(joins, leaves map[string]string, months []string) []TrafficPoint {
	out := make([]TrafficPoint, 0, len(months))
	var cumulative int64
	for _, m := range months {
		j := parseCount(joins[m])
		l := parseCount(leaves[m])
		cumulative += j - l
		out = append(out, TrafficPoint{
			Month:      m,
			Joins:      j,
			Leaves:     l,
			Net:        j - l,
			Cumulative: cumulative,
		})
	}
	return out
}
