package query

import (
	"context"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

// LeaderboardEntry is one ranked user with profile enrichment.
type LeaderboardEntry struct {
	Rank     int     `json:"rank"`
	UserID   string  `json:"user_id"`
	Name     string  `json:"name"`
	Avatar   string  `json:"avatar"`
	Messages int64   `json:"messages"`
	AvgLen   float64 `json:"avg_len"`
}

// Leaderboard ranks users by message count. Date windows up to maxWindowDays
// are answered by a ZUNIONSTORE of the per-day ZSETs into a throwaway key;
// all-time and wider windows come straight from the cumulative leaderboard.
func (s *Service) Leaderboard(ctx context.Context, p Params, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	key := s.cacheKey(ctx, "leaderboard", p)
	var cached []LeaderboardEntry
	if s.cacheGet(ctx, key, &cached) && len(cached) >= limit {
		return cached[:limit], nil
	}

	client, err := s.store.GetClientSafe()
	if err != nil {
		return nil, err
	}

	source := storage.MsgLeaderboardKey(p.GuildID)
	if p.scannable() {
		days := storage.DaysInRange(p.Start, p.End)
		keys := make([]string, len(days))
		for i, day := range days {
			keys[i] = storage.UserDailyKey(p.GuildID, day)
		}

		dest := storage.PrefixTempUnion + uuid.New().String()
		pipe := client.Pipeline()
		pipe.ZUnionStore(ctx, dest, &redis.ZStore{Keys: keys})
		pipe.Expire(ctx, dest, storage.TTLTempUnion)
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, err
		}
		source = dest
	}

	members, err := client.ZRevRangeWithScores(ctx, source, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(members))
	for i, m := range members {
		userID, ok := m.Member.(string)
		if !ok {
			continue
		}
		e := LeaderboardEntry{
			Rank:     i + 1,
			UserID:   userID,
			Messages: int64(m.Score),
		}
		if profile, err := s.store.GetUserProfile(ctx, userID); err == nil {
			e.Name = profile.Name
			e.Avatar = profile.Avatar
		}
		if avg, err := s.store.AvgMsgLength(ctx, p.GuildID, userID); err == nil {
			e.AvgLen = avg
		}
		entries = append(entries, e)
	}

	s.cachePut(ctx, key, entries, cacheTTLShort)
	return entries, nil
}
