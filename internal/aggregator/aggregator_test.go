package aggregator

import (
	"testing"

	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
	"github.com/stretchr/testify/assert"
)

func TestDedup(t *testing.T) {
	batch := []storage.DAUEntry{
		{GuildID: "g1", UserID: "u1", Day: "20260120"},
		{GuildID: "g1", UserID: "u2", Day: "20260120"},
		{GuildID: "g1", UserID: "u1", Day: "20260120"},
		{GuildID: "g2", UserID: "u1", Day: "20260120"},
		{GuildID: "g1", UserID: "u1", Day: "20260121"},
		{GuildID: "g1", UserID: "u2", Day: "20260120"},
	}

	out := Dedup(batch)

	assert.Len(t, out, 4)
	assert.Equal(t, storage.DAUEntry{GuildID: "g1", UserID: "u1", Day: "20260120"}, out[0])
	assert.Equal(t, storage.DAUEntry{GuildID: "g1", UserID: "u2", Day: "20260120"}, out[1])
	assert.Equal(t, storage.DAUEntry{GuildID: "g2", UserID: "u1", Day: "20260120"}, out[2])
	assert.Equal(t, storage.DAUEntry{GuildID: "g1", UserID: "u1", Day: "20260121"}, out[3])
}

func TestDedupEmpty(t *testing.T) {
	assert.Empty(t, Dedup(nil))
}

func TestEnqueueOverflowDrops(t *testing.T) {
	w := New(nil, 2, 10, 0, 0)

	assert.True(t, w.Enqueue(storage.DAUEntry{UserID: "u1"}))
	assert.True(t, w.Enqueue(storage.DAUEntry{UserID: "u2"}))
	assert.False(t, w.Enqueue(storage.DAUEntry{UserID: "u3"}))

	assert.Equal(t, int64(1), w.Dropped())
	assert.Equal(t, 2, w.Depth())
}
