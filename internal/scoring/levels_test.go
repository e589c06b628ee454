package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

func TestLevelFromXP(t *testing.T) {
	f := storage.DefaultXPFormula // 5L^2 + 50L + 100

	tests := []struct {
		xp    int64
		level int
	}{
		{0, 0},
		{154, 0},   // level 1 needs 155
		{155, 1},   // 5+50+100
		{219, 1},   // level 2 needs 220
		{220, 2},   // 20+100+100
		{295, 3},   // 45+150+100
		{10000, 39}, // 5*39^2+50*39+100 = 9655; level 40 needs 10100
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, LevelFromXP(f, tt.xp), "xp=%d", tt.xp)
	}
}

func TestLevelFromXPDegenerateFormula(t *testing.T) {
	assert.Zero(t, LevelFromXP(storage.XPFormula{A: 0, B: 50, C: 100}, 9999))
}

func TestLevelProgress(t *testing.T) {
	f := storage.DefaultXPFormula
	// level 1 spans 155..219, so 187 sits about halfway
	p := LevelProgress(f, 187)
	assert.InDelta(t, 49.2, p, 1.0)

	assert.Zero(t, LevelProgress(f, 0))
}
