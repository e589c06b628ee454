package query

import (
	"context"

	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

// LengthBucket is one bar of the message-length histogram.
type LengthBucket struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// LengthStats is the message-length distribution with its weighted mean.
type LengthStats struct {
	Buckets []LengthBucket `json:"buckets"`
	Total   int64          `json:"total"`
	Mean    float64        `json:"mean"`
}

// MessageLengths reads the all-time length histogram. The mean is weighted
// by the canonical bucket values, so it is an estimate rather than an exact
// character average.
func (s *Service) MessageLengths(ctx context.Context, p Params) (*LengthStats, error) {
	key := s.cacheKey(ctx, "msglen", p)
	var cached LengthStats
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	client, err := s.store.GetClientSafe()
	if err != nil {
		return nil, err
	}

	members, err := client.ZRangeWithScores(ctx, storage.MsgLenKey(p.GuildID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(members))
	for _, m := range members {
		bucket, ok := m.Member.(string)
		if !ok {
			continue
		}
		counts[bucket] = int64(m.Score)
	}

	out := &LengthStats{Buckets: make([]LengthBucket, 0, len(storage.MsgLenBucketLabels))}
	var weighted int64
	for _, b := range storage.MsgLenBucketLabels {
		n := counts[b.Key]
		out.Buckets = append(out.Buckets, LengthBucket{Label: b.Label, Count: n})
		out.Total += n
		weighted += parseCount(b.Key) * n
	}
	if out.Total > 0 {
		out.Mean = float64(weighted) / float64(out.Total)
	}

	s.cachePut(ctx, key, out, cacheTTLLong)
	return out, nil
}
