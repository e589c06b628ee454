package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecastMembersSteadyGrowth(t *testing.T) {
	net := []int64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10}
	months := []string{"2026-09", "2026-10", "2026-11"}

	out := ForecastMembers(500, net, months)
	require.Len(t, out, 3)
	assert.Equal(t, MemberForecastPoint{Month: "2026-09", Members: 510}, out[0])
	assert.Equal(t, MemberForecastPoint{Month: "2026-10", Members: 520}, out[1])
	assert.Equal(t, MemberForecastPoint{Month: "2026-11", Members: 530}, out[2])
}

func TestForecastMembersShrinkingClampsAtZero(t *testing.T) {
	net := []int64{-100}
	months := []string{"m1", "m2", "m3"}

	out := ForecastMembers(150, net, months)
	require.Len(t, out, 3)
	assert.Equal(t, int64(50), out[0].Members)
	assert.Equal(t, int64(0), out[1].Members)
	assert.Equal(t, int64(0), out[2].Members)
}

func TestLinearTrendFlatSeries(t *testing.T) {
	slope, intercept := linearTrend([]int64{40, 40, 40, 40})
	assert.InDelta(t, 0, slope, 1e-9)
	assert.InDelta(t, 40, intercept, 1e-9)
}

func TestLinearTrendRisingSeries(t *testing.T) {
	slope, intercept := linearTrend([]int64{10, 12, 14, 16, 18})
	assert.InDelta(t, 2, slope, 1e-9)
	assert.InDelta(t, 10, intercept, 1e-9)
}

func TestForecastDailyFlatHistoryIsFlat(t *testing.T) {
	history := make([]int64, 28) // exactly four of each weekday
	for i := range history {
		history[i] = 50
	}

	out := ForecastDaily(history, 2)
	require.Len(t, out, 7)
	for i, p := range out {
		assert.Equal(t, (2+i)%7, p.Weekday)
		assert.InDelta(t, 50, p.Expected, 0.5)
	}
}

func TestForecastDailySeasonalWeekend(t *testing.T) {
	// 28 days starting on weekday 0; weekdays 5 and 6 are twice as busy
	history := make([]int64, 28)
	for i := range history {
		if i%7 >= 5 {
			history[i] = 200
		} else {
			history[i] = 100
		}
	}

	// history began 28 days before the forecast start, so both share weekday 0
	out := ForecastDaily(history, 0)
	require.Len(t, out, 7)
	assert.Greater(t, out[5].Expected, out[0].Expected)
	assert.Greater(t, out[6].Expected, out[0].Expected)
}

func TestForecastDailyEmptyHistory(t *testing.T) {
	assert.Nil(t, ForecastDaily(nil, 0))
}

func TestWeekdayIndexAlignment(t *testing.T) {
	// 7 days ending the day before startWeekday 0, so the history covers
	// weekdays 0..6 exactly once
	history := []int64{70, 10, 10, 10, 10, 10, 10}
	idx := weekdayIndex(history, 0)

	// first history day is weekday 0: (0-7)%7 = 0
	assert.InDelta(t, 70.0/(130.0/7), idx[0], 1e-9)
	assert.InDelta(t, 10.0/(130.0/7), idx[1], 1e-9)
}
