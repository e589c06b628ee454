package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

func TestParseHeatmapField(t *testing.T) {
	tests := []struct {
		field   string
		weekday int
		hour    int
		ok      bool
	}{
		{"0_0", 0, 0, true},
		{"6_23", 6, 23, true},
		{"3_14", 3, 14, true},
		{"7_0", 0, 0, false},
		{"0_24", 0, 0, false},
		{"bad", 0, 0, false},
		{"_", 0, 0, false},
	}
	for _, tt := range tests {
		w, h, ok := parseHeatmapField(tt.field)
		assert.Equal(t, tt.ok, ok, tt.field)
		if ok {
			assert.Equal(t, tt.weekday, w, tt.field)
			assert.Equal(t, tt.hour, h, tt.field)
		}
	}
}

func TestPeakCell(t *testing.T) {
	var grid [7][24]int64
	grid[2][14] = 50
	grid[5][20] = 120
	grid[0][0] = 3

	w, h, count := peakCell(&grid)
	assert.Equal(t, 5, w)
	assert.Equal(t, 20, h)
	assert.Equal(t, int64(120), count)
}

func TestBusiestWeekdayAndHour(t *testing.T) {
	var grid [7][24]int64
	// weekday 3 dominates spread across hours
	grid[3][9] = 40
	grid[3][10] = 40
	grid[1][9] = 70

	assert.Equal(t, 3, busiestWeekday(&grid))
	assert.Equal(t, 9, busiestHour(hourTotals(&grid))) // 70+40 beats 40
}

func TestQuietWindowMidday(t *testing.T) {
	var totals [24]int64
	for h := range totals {
		totals[h] = 100
	}
	totals[4] = 2
	totals[5] = 1

	start, count := quietWindow(totals)
	assert.Equal(t, 4, start)
	assert.Equal(t, int64(3), count)
}

func TestQuietWindowWrapsMidnight(t *testing.T) {
	var totals [24]int64
	for h := range totals {
		totals[h] = 100
	}
	totals[23] = 1
	totals[0] = 2

	start, count := quietWindow(totals)
	assert.Equal(t, 23, start)
	assert.Equal(t, int64(3), count)
}

func TestQuietWindowAllZeroPicksEarliest(t *testing.T) {
	var totals [24]int64
	start, count := quietWindow(totals)
	assert.Equal(t, 0, start)
	assert.Zero(t, count)
}

func TestFinishHeatmapDerivesMarkers(t *testing.T) {
	hm := &Heatmap{PeakMessages: 340}
	hm.Grid[1][14] = 50 // Tuesday 14:00, single maximum
	hm.Grid[1][9] = 10
	hm.Grid[4][9] = 20

	finishHeatmap(hm)

	assert.Equal(t, 1, hm.PeakWeekday)
	assert.Equal(t, 14, hm.PeakHour)
	assert.Equal(t, int64(50), hm.PeakCount)
	assert.Equal(t, 1, hm.BusiestDay)
	assert.Equal(t, 14, hm.BusiestHour)
	assert.Equal(t, int64(80), hm.Total)
	// the max daily total is computed while loading, not from the grid
	assert.Equal(t, int64(340), hm.PeakMessages)
}

func TestDayWeekdayKeying(t *testing.T) {
	// 2026-01-20 is a Tuesday; rows are keyed 0=Monday
	d, err := storage.ParseDay("20260120")
	require.NoError(t, err)
	assert.Equal(t, 1, storage.WeekdayUTC(d))

	d, err = storage.ParseDay("20260125") // Sunday
	require.NoError(t, err)
	assert.Equal(t, 6, storage.WeekdayUTC(d))
}
