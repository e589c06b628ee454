package backfill

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

func TestBuffersSingleUserSingleDay(t *testing.T) {
	buf := newBuffers()
	base := time.Date(2026, 1, 20, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 1000; i++ {
		buf.add(Message{
			ID:        fmt.Sprintf("m%d", i),
			ChannelID: "c1",
			AuthorID:  "u1",
			Content:   "hello there",
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
	}

	day := "20260120"
	assert.Equal(t, int64(1000), buf.totalMsgs)
	assert.Equal(t, int64(1000), buf.userTotal["u1"])
	assert.Equal(t, int64(1000), buf.userDaily[day]["u1"])
	assert.Equal(t, int64(1000), buf.chanTotal["c1"])
	assert.Equal(t, int64(1000), buf.chanDaily["c1"][day])
	assert.Len(t, buf.dau[day], 1)
	assert.Len(t, buf.events["u1"], 1000)

	// 1000 seconds spanning 10:00..10:16 stay inside hour 10
	assert.Equal(t, int64(1000), buf.hourly[day][10])

	// length samples are capped
	assert.Len(t, buf.lenSamples["u1"], storage.MsgLenSampleCap)

	// "hello there" is 11 runes, bucket 11-50
	assert.Equal(t, int64(1000), buf.lenHist["30"])
}

func TestBuffersHeatmapCell(t *testing.T) {
	buf := newBuffers()
	// 2026-01-20 is a Tuesday, weekday 1
	ts := time.Date(2026, 1, 20, 14, 30, 0, 0, time.UTC)
	buf.add(Message{ID: "m", ChannelID: "c", AuthorID: "u", Timestamp: ts})

	assert.Equal(t, int64(1), buf.heatmap["1_14"])
}

func TestBuffersSeparateDays(t *testing.T) {
	buf := newBuffers()
	buf.add(Message{ID: "a", ChannelID: "c", AuthorID: "u",
		Timestamp: time.Date(2026, 1, 20, 23, 59, 0, 0, time.UTC)})
	buf.add(Message{ID: "b", ChannelID: "c", AuthorID: "u",
		Timestamp: time.Date(2026, 1, 21, 0, 1, 0, 0, time.UTC)})

	assert.Len(t, buf.dau, 2)
	assert.Equal(t, int64(1), buf.userDaily["20260120"]["u"])
	assert.Equal(t, int64(1), buf.userDaily["20260121"]["u"])
}

func TestReplayXPCooldown(t *testing.T) {
	roll := func() int { return 20 }

	// three messages inside one cooldown window, one outside
	timestamps := []int64{1000, 1010, 1050, 1070}
	assert.Equal(t, int64(40), replayXP(timestamps, 60, roll))

	// order independence
	shuffled := []int64{1070, 1000, 1050, 1010}
	assert.Equal(t, int64(40), replayXP(shuffled, 60, roll))
}

func TestReplayXPEverySingleMessageWhenSpread(t *testing.T) {
	roll := func() int { return 15 }
	timestamps := []int64{0, 60, 120, 180}
	assert.Equal(t, int64(60), replayXP(timestamps, 60, roll))
}

func TestReplayXPEmpty(t *testing.T) {
	assert.Zero(t, replayXP(nil, 60, func() int { return 15 }))
}

func TestMatchVerification(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"Verification approved for <@123456>", "123456"},
		{"verification passed: <@!789>", "789"},
		{"Manually verified member <@42>", "42"},
		{"Manually approved <@!77>", "77"},
		{"random chatter mentioning <@55>", ""},
		{"verification approved nobody", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchVerification(tt.content), tt.content)
	}
}

func TestReplayXPFirstMessageAlwaysGrants(t *testing.T) {
	roll := func() int { return 25 }
	require.Equal(t, int64(25), replayXP([]int64{0}, 60, roll))
	require.Equal(t, int64(25), replayXP([]int64{5, 10}, 60, roll))
}
