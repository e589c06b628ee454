package query

import (
	"context"
	"sort"

	"github.com/redis/go-redis/v9"

	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

// channelLimit caps the distribution to the busiest channels.
const channelLimit = 15

// maxWindowDays bounds the per-day scan; wider windows fall back to the
// all-time totals.
const maxWindowDays = 365

// ChannelStat is one channel's share of message traffic.
type ChannelStat struct {
	ChannelID string  `json:"channel_id"`
	Name      string  `json:"name"`
	Count     int64   `json:"count"`
	Share     float64 `json:"share"`
}

// ChannelDistribution returns the busiest channels and their traffic share.
// Windows up to a year are summed from the per-day counters; anything wider
// (or no window) uses the all-time totals ZSET.
func (s *Service) ChannelDistribution(ctx context.Context, p Params) ([]ChannelStat, error) {
	key := s.cacheKey(ctx, "channels", p)
	var cached []ChannelStat
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	var stats []ChannelStat
	var err error
	if p.scannable() {
		stats, err = s.channelsWindowed(ctx, p)
	} else {
		stats, err = s.channelsAllTime(ctx, p.GuildID)
	}
	if err != nil {
		return nil, err
	}

	var total int64
	for _, st := range stats {
		total += st.Count
	}
	for i := range stats {
		if total > 0 {
			stats[i].Share = float64(stats[i].Count) / float64(total) * 100
		}
		stats[i].Name = s.store.GetChannelName(ctx, stats[i].ChannelID)
	}

	s.cachePut(ctx, key, stats, cacheTTLShort)
	return stats, nil
}

func (s *Service) channelsAllTime(ctx context.Context, guildID string) ([]ChannelStat, error) {
	client, err := s.store.GetClientSafe()
	if err != nil {
		return nil, err
	}

	members, err := client.ZRevRangeWithScores(ctx,
		storage.ChannelTotalKey(guildID), 0, channelLimit-1).Result()
	if err != nil {
		return nil, err
	}

	stats := make([]ChannelStat, 0, len(members))
	for _, m := range members {
		id, ok := m.Member.(string)
		if !ok {
			continue
		}
		stats = append(stats, ChannelStat{ChannelID: id, Count: int64(m.Score)})
	}
	return stats, nil
}

// channelsWindowed sums per-day counters for every known channel across the
// window in one pipeline. Channel candidates come from the all-time ZSET.
func (s *Service) channelsWindowed(ctx context.Context, p Params) ([]ChannelStat, error) {
	client, err := s.store.GetClientSafe()
	if err != nil {
		return nil, err
	}

	channelIDs, err := client.ZRevRange(ctx, storage.ChannelTotalKey(p.GuildID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(channelIDs) == 0 {
		return nil, nil
	}

	days := storage.DaysInRange(p.Start, p.End)
	pipe := client.Pipeline()
	cmds := make(map[string][]*redis.StringCmd, len(channelIDs))
	for _, ch := range channelIDs {
		for _, day := range days {
			cmds[ch] = append(cmds[ch], pipe.Get(ctx, storage.ChannelDailyKey(p.GuildID, ch, day)))
		}
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	stats := make([]ChannelStat, 0, len(channelIDs))
	for _, ch := range channelIDs {
		var count int64
		for _, cmd := range cmds[ch] {
			if raw, err := cmd.Result(); err == nil {
				count += parseCount(raw)
			}
		}
		if count > 0 {
			stats = append(stats, ChannelStat{ChannelID: ch, Count: count})
		}
	}

	sort.Slice(stats, func(i, j int) bool { return stats[i].Count > stats[j].Count })
	if len(stats) > channelLimit {
		stats = stats[:channelLimit]
	}
	return stats, nil
}
