package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgInt(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		index    int
		fallback int
		want     int
	}{
		{"absent uses fallback", nil, 0, 30, 30},
		{"present", []string{"14"}, 0, 30, 14},
		{"malformed uses fallback", []string{"abc"}, 0, 5, 5},
		{"second arg", []string{"x", "7"}, 1, 0, 7},
		{"negative parses through", []string{"-3"}, 0, 0, -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, argInt(tt.args, tt.index, tt.fallback))
		})
	}
}

func TestStatusEmbedColor(t *testing.T) {
	healthy := statusEmbed(heartbeatDoc{TS: 1700000000, QueueDepth: 3})
	assert.Equal(t, 0x2ecc71, healthy.Color)

	degraded := statusEmbed(heartbeatDoc{TS: 1700000000, RecentFails: 2})
	assert.Equal(t, 0xe67e22, degraded.Color)

	dropping := statusEmbed(heartbeatDoc{TS: 1700000000, QueueDrops: 1})
	assert.Equal(t, 0xe67e22, dropping.Color)
}
