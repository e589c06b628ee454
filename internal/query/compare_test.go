package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPeriodComparison(t *testing.T) {
	// 14 days: first week flat 10s, second week flat 20s
	series := make([]int64, 0, 14)
	for i := 0; i < 7; i++ {
		series = append(series, 10)
	}
	for i := 0; i < 7; i++ {
		series = append(series, 20)
	}

	c := periodComparison(series, 7)
	assert.Equal(t, 20.0, c.Current)
	assert.Equal(t, 10.0, c.Previous)
	assert.Equal(t, 100.0, c.ChangePct)
}

func TestPeriodComparisonShortSeries(t *testing.T) {
	c := periodComparison([]int64{1, 2, 3}, 7)
	assert.Zero(t, c.Current)
	assert.Zero(t, c.Previous)
	assert.Zero(t, c.ChangePct)
}

func TestChangePctZeroBaseline(t *testing.T) {
	assert.Zero(t, changePct(50, 0))
	assert.Equal(t, -50.0, changePct(5, 10))
}

func TestCompareAnchor(t *testing.T) {
	now := mustParse(t, "2026-08-31T12:00:00Z")

	// a caller window pins the series to its end date, whatever now is
	p := Params{
		GuildID: "g",
		Start:   mustParse(t, "2026-03-01T00:00:00Z"),
		End:     mustParse(t, "2026-05-31T00:00:00Z"),
	}
	assert.Equal(t, p.End, compareAnchor(p, now))
	assert.Equal(t, p.End, compareAnchor(p, now.AddDate(0, 1, 0)))

	// no window: yesterday, so the partial current day stays out
	got := compareAnchor(Params{GuildID: "g"}, now)
	assert.Equal(t, now.AddDate(0, 0, -1), got)
}

func TestStickiness(t *testing.T) {
	assert.Equal(t, 25.0, stickiness(25, 100))
	assert.Zero(t, stickiness(10, 0))
}

func TestStickinessPoint(t *testing.T) {
	p := stickinessPoint("20260115", 10, 40, 100)
	assert.Equal(t, "20260115", p.Date)
	assert.Equal(t, int64(10), p.DAU)
	assert.Equal(t, int64(40), p.WAU)
	assert.Equal(t, int64(100), p.MAU)
	assert.Equal(t, 25.0, p.DAUWAUPct)
	assert.Equal(t, 10.0, p.DAUMAUPct)

	empty := stickinessPoint("20260116", 0, 0, 0)
	assert.Zero(t, empty.DAUWAUPct)
	assert.Zero(t, empty.DAUMAUPct)
}

func TestBuildTrafficCumulative(t *testing.T) {
	joins := map[string]string{"2026-06": "30", "2026-07": "10"}
	leaves := map[string]string{"2026-06": "5", "2026-08": "8"}
	months := []string{"2026-06", "2026-07", "2026-08"}

	out := buildTraffic(joins, leaves, months)
	assert.Len(t, out, 3)
	assert.Equal(t, TrafficPoint{Month: "2026-06", Joins: 30, Leaves: 5, Net: 25, Cumulative: 25}, out[0])
	assert.Equal(t, TrafficPoint{Month: "2026-07", Joins: 10, Net: 10, Cumulative: 35}, out[1])
	assert.Equal(t, TrafficPoint{Month: "2026-08", Leaves: 8, Net: -8, Cumulative: 27}, out[2])
}

func TestTrailingMonthsCrossesYear(t *testing.T) {
	// walk back from a January so the range crosses a year boundary
	now := mustParse(t, "2026-01-15T12:00:00Z")
	months := trailingMonths(now, 3)
	assert.Equal(t, []string{"2025-11", "2025-12", "2026-01"}, months)
}
