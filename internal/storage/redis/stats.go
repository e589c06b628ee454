package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/guildpulse/guildpulse-go/internal/pkg/logger"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Message-length histogram buckets. The ZSET member is the canonical bucket
// key; the score is the count. Bucket keys are stable so the dashboard can
// map them to labels.
var msgLenBuckets = []struct {
	Max int
	Key string
}{
	{0, "0"},
	{10, "5"},
	{50, "30"},
	{100, "75"},
	{200, "150"},
}

// MsgLenBucketLabels maps canonical bucket keys to display labels, in
// histogram order.
var MsgLenBucketLabels = []struct {
	Key   string
	Label string
}{
	{"0", "0"},
	{"5", "1–10"},
	{"30", "11–50"},
	{"75", "51–100"},
	{"150", "101–200"},
	{"250", "201+"},
}

// MsgLenBucket returns the canonical histogram bucket for a content length.
func MsgLenBucket(length int) string {
	for _, b := range msgLenBuckets {
		if length <= b.Max {
			return b.Key
		}
	}
	return "250"
}

// MessageWrite describes one observed message after classification. All
// dashboard aggregates for it are flushed in a single pipeline.
type MessageWrite struct {
	GuildID    string
	ChannelID  string
	ChannelNm  string
	UserID     string
	ContentLen int
	IsReply    bool
	Timestamp  time.Time
}

// RecordMessage issues the pipelined aggregate writes for one owned message.
// The DAU contribution is not written here; it goes through the aggregation
// writer's batch.
func (c *Client) RecordMessage(ctx context.Context, m MessageWrite) error {
	pipe, err := c.Pipeline()
	if err != nil {
		return err
	}

	day := DayKey(m.Timestamp)
	hour := HourUTC(m.Timestamp)
	weekday := WeekdayUTC(m.Timestamp)

	hourlyKey := HourlyKey(m.GuildID, day)
	pipe.HIncrBy(ctx, hourlyKey, strconv.Itoa(hour), 1)
	pipe.Expire(ctx, hourlyKey, TTLDailyStats)

	pipe.ZIncrBy(ctx, MsgLenKey(m.GuildID), 1, MsgLenBucket(m.ContentLen))

	heatmapKey := HeatmapKey(m.GuildID)
	pipe.HIncrBy(ctx, heatmapKey, HeatmapField(weekday, hour), 1)
	pipe.Expire(ctx, heatmapKey, TTLHeatmap)

	pipe.Incr(ctx, TotalMsgsKey(m.GuildID))

	chDaily := ChannelDailyKey(m.GuildID, m.ChannelID, day)
	pipe.Incr(ctx, chDaily)
	pipe.Expire(ctx, chDaily, TTLDailyStats)
	pipe.ZIncrBy(ctx, ChannelTotalKey(m.GuildID), 1, m.ChannelID)

	chHourly := ChannelHourlyKey(m.GuildID, m.ChannelID)
	pipe.HIncrBy(ctx, chHourly, strconv.Itoa(hour), 1)
	pipe.Expire(ctx, chHourly, TTLDailyStats)

	if m.ChannelNm != "" {
		pipe.Set(ctx, ChannelInfoKey(m.ChannelID), m.ChannelNm, 0)
	}

	userDaily := UserDailyKey(m.GuildID, day)
	pipe.ZIncrBy(ctx, userDaily, 1, m.UserID)
	pipe.Expire(ctx, userDaily, TTLDailyStats)

	pipe.ZIncrBy(ctx, MsgLeaderboardKey(m.GuildID), 1, m.UserID)

	samples := MsgLenSamplesKey(m.GuildID, m.UserID)
	pipe.LPush(ctx, samples, m.ContentLen)
	pipe.LTrim(ctx, samples, 0, MsgLenSampleCap-1)
	pipe.Expire(ctx, samples, TTLMsgLenList)

	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("Failed to record message aggregates",
			zap.String("guild", m.GuildID), zap.Error(err))
		return err
	}
	return nil
}

// DAUEntry is one (guild, user, day) contribution.
type DAUEntry struct {
	GuildID string
	UserID  string
	Day     string
}

// FlushDAUBatch PFADDs a deduplicated batch in one pipeline, refreshing the
// retention TTL with NX so an existing expiry is never extended.
func (c *Client) FlushDAUBatch(ctx context.Context, entries []DAUEntry, retention time.Duration) error {
	if len(entries) == 0 {
		return nil
	}

	pipe, err := c.Pipeline()
	if err != nil {
		return err
	}

	for _, e := range entries {
		key := DAUKey(e.GuildID, e.Day)
		pipe.PFAdd(ctx, key, e.UserID)
		pipe.ExpireNX(ctx, key, retention)
	}

	_, err = pipe.Exec(ctx)
	return err
}

// DAUCount returns the estimated unique users for a single guild day.
func (c *Client) DAUCount(ctx context.Context, guildID, day string) (int64, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return 0, err
	}
	return client.PFCount(ctx, DAUKey(guildID, day)).Result()
}

// UniqueCount merges the DAU HLLs of the given days (PFCOUNT union).
func (c *Client) UniqueCount(ctx context.Context, guildID string, days []string) (int64, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return 0, err
	}
	keys := make([]string, 0, len(days))
	for _, d := range days {
		keys = append(keys, DAUKey(guildID, d))
	}
	return client.PFCount(ctx, keys...).Result()
}

// DAUSeries PFCOUNTs each day individually in one pipeline.
func (c *Client) DAUSeries(ctx context.Context, guildID string, days []string) ([]int64, error) {
	pipe, err := c.Pipeline()
	if err != nil {
		return nil, err
	}

	cmds := make([]*goredis.IntCmd, len(days))
	for i, d := range days {
		cmds[i] = pipe.PFCount(ctx, DAUKey(guildID, d))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != goredis.Nil {
		return nil, err
	}

	series := make([]int64, len(days))
	for i, cmd := range cmds {
		series[i], _ = cmd.Result()
	}
	return series, nil
}

// RecordJoin increments the Prague-month join bucket.
func (c *Client) RecordJoin(ctx context.Context, guildID string, at time.Time) error {
	client, err := c.GetClientSafe()
	if err != nil {
		return err
	}
	return client.HIncrBy(ctx, JoinsKey(guildID), MonthKeyPrague(at), 1).Err()
}

// RecordCommand increments one command's invocation counter.
func (c *Client) RecordCommand(ctx context.Context, guildID, command string) error {
	client, err := c.GetClientSafe()
	if err != nil {
		return err
	}
	return client.HIncrBy(ctx, CommandStatsKey(guildID), command, 1).Err()
}

// CommandCounts reads the full command usage hash.
func (c *Client) CommandCounts(ctx context.Context, guildID string) (map[string]int64, error) {
	raw, err := c.HGetAll(ctx, CommandStatsKey(guildID))
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(raw))
	for name, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out[name] = n
	}
	return out, nil
}

// RecordLeave increments the Prague-month leave bucket.
func (c *Client) RecordLeave(ctx context.Context, guildID string, at time.Time) error {
	client, err := c.GetClientSafe()
	if err != nil {
		return err
	}
	return client.HIncrBy(ctx, LeavesKey(guildID), MonthKeyPrague(at), 1).Err()
}

