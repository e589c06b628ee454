package backfill

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

// msgEventRec mirrors the live message event shape plus the timestamp the
// ZADD score needs.
type msgEventRec struct {
	Len   int  `json:"len"`
	Reply bool `json:"reply"`
	ts    int64
}

// buffers accumulates one batch worth of message-phase aggregates. Summing
// locally and flushing in one transaction keeps the backfill orders of
// magnitude cheaper than per-message writes.
type buffers struct {
	totalMsgs  int64
	hourly     map[string]map[int]int64            // day -> hour -> count
	dau        map[string]map[string]struct{}      // day -> user ids
	heatmap    map[string]int64                    // "{wd}_{h}" -> count
	lenHist    map[string]int64                    // bucket -> count
	chanDaily  map[string]map[string]int64         // channel -> day -> count
	chanTotal  map[string]int64                    // channel -> count
	chanHourly map[string]map[int]int64            // channel -> hour -> count
	userDaily  map[string]map[string]int64         // day -> user -> count
	userTotal  map[string]int64                    // user -> count
	lenSamples map[string][]int                    // user -> recent lengths
	events     map[string][]msgEventRec            // user -> events
}

func newBuffers() *buffers {
	return &buffers{
		hourly:     make(map[string]map[int]int64),
		dau:        make(map[string]map[string]struct{}),
		heatmap:    make(map[string]int64),
		lenHist:    make(map[string]int64),
		chanDaily:  make(map[string]map[string]int64),
		chanTotal:  make(map[string]int64),
		chanHourly: make(map[string]map[int]int64),
		userDaily:  make(map[string]map[string]int64),
		userTotal:  make(map[string]int64),
		lenSamples: make(map[string][]int),
		events:     make(map[string][]msgEventRec),
	}
}

func (b *buffers) add(m Message) {
	day := storage.DayKey(m.Timestamp)
	hour := storage.HourUTC(m.Timestamp)
	contentLen := len([]rune(m.Content))

	b.totalMsgs++

	if b.hourly[day] == nil {
		b.hourly[day] = make(map[int]int64)
	}
	b.hourly[day][hour]++

	if b.dau[day] == nil {
		b.dau[day] = make(map[string]struct{})
	}
	b.dau[day][m.AuthorID] = struct{}{}

	b.heatmap[storage.HeatmapField(storage.WeekdayUTC(m.Timestamp), hour)]++
	b.lenHist[storage.MsgLenBucket(contentLen)]++

	if b.chanDaily[m.ChannelID] == nil {
		b.chanDaily[m.ChannelID] = make(map[string]int64)
	}
	b.chanDaily[m.ChannelID][day]++
	b.chanTotal[m.ChannelID]++
	if b.chanHourly[m.ChannelID] == nil {
		b.chanHourly[m.ChannelID] = make(map[int]int64)
	}
	b.chanHourly[m.ChannelID][hour]++

	if b.userDaily[day] == nil {
		b.userDaily[day] = make(map[string]int64)
	}
	b.userDaily[day][m.AuthorID]++
	b.userTotal[m.AuthorID]++

	if len(b.lenSamples[m.AuthorID]) < storage.MsgLenSampleCap {
		b.lenSamples[m.AuthorID] = append(b.lenSamples[m.AuthorID], contentLen)
	}

	b.events[m.AuthorID] = append(b.events[m.AuthorID], msgEventRec{
		Len:   contentLen,
		Reply: m.Reply,
		ts:    m.Timestamp.Unix(),
	})
}

// flush writes the accumulated batch in one transaction and resets the
// buffers. Increments merge with previous batches, so the per-batch flush
// order does not matter.
func (b *buffers) flush(ctx context.Context, store *storage.Client, guildID string, retention time.Duration) error {
	if b.totalMsgs == 0 {
		return nil
	}
	pipe, err := store.TxPipeline()
	if err != nil {
		return err
	}

	pipe.IncrBy(ctx, storage.TotalMsgsKey(guildID), b.totalMsgs)

	for day, hours := range b.hourly {
		key := storage.HourlyKey(guildID, day)
		for hour, n := range hours {
			pipe.HIncrBy(ctx, key, strconv.Itoa(hour), n)
		}
		pipe.Expire(ctx, key, storage.TTLDailyStats)
	}

	for day, users := range b.dau {
		key := storage.DAUKey(guildID, day)
		members := make([]interface{}, 0, len(users))
		for uid := range users {
			members = append(members, uid)
		}
		pipe.PFAdd(ctx, key, members...)
		pipe.ExpireNX(ctx, key, retention)
	}

	heatKey := storage.HeatmapKey(guildID)
	for field, n := range b.heatmap {
		pipe.HIncrBy(ctx, heatKey, field, n)
	}
	pipe.Expire(ctx, heatKey, storage.TTLHeatmap)

	for bucket, n := range b.lenHist {
		pipe.ZIncrBy(ctx, storage.MsgLenKey(guildID), float64(n), bucket)
	}

	for cid, days := range b.chanDaily {
		for day, n := range days {
			key := storage.ChannelDailyKey(guildID, cid, day)
			pipe.IncrBy(ctx, key, n)
			pipe.Expire(ctx, key, storage.TTLDailyStats)
		}
	}
	for cid, n := range b.chanTotal {
		pipe.ZIncrBy(ctx, storage.ChannelTotalKey(guildID), float64(n), cid)
	}
	for cid, hours := range b.chanHourly {
		key := storage.ChannelHourlyKey(guildID, cid)
		for hour, n := range hours {
			pipe.HIncrBy(ctx, key, strconv.Itoa(hour), n)
		}
		pipe.Expire(ctx, key, storage.TTLDailyStats)
	}

	for day, users := range b.userDaily {
		key := storage.UserDailyKey(guildID, day)
		for uid, n := range users {
			pipe.ZIncrBy(ctx, key, float64(n), uid)
		}
		pipe.Expire(ctx, key, storage.TTLDailyStats)
	}
	for uid, n := range b.userTotal {
		pipe.ZIncrBy(ctx, storage.MsgLeaderboardKey(guildID), float64(n), uid)
	}

	for uid, lengths := range b.lenSamples {
		key := storage.MsgLenSamplesKey(guildID, uid)
		values := make([]interface{}, 0, len(lengths))
		for _, l := range lengths {
			values = append(values, strconv.Itoa(l))
		}
		pipe.LPush(ctx, key, values...)
		pipe.LTrim(ctx, key, 0, storage.MsgLenSampleCap-1)
		pipe.Expire(ctx, key, storage.TTLMsgLenList)
	}

	for uid, events := range b.events {
		key := storage.EventsMsgKey(guildID, uid)
		zs := make([]goredis.Z, 0, len(events))
		for _, ev := range events {
			raw, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			zs = append(zs, goredis.Z{Score: float64(ev.ts), Member: string(raw)})
		}
		if len(zs) > 0 {
			pipe.ZAdd(ctx, key, zs...)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	*b = *newBuffers()
	return nil
}
