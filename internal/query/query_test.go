package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func TestParamsWindowed(t *testing.T) {
	assert.False(t, Params{GuildID: "g"}.windowed())

	p := Params{
		GuildID: "g",
		Start:   mustParse(t, "2026-08-01T00:00:00Z"),
		End:     mustParse(t, "2026-08-31T00:00:00Z"),
	}
	assert.True(t, p.windowed())
}

func TestParamsScannable(t *testing.T) {
	// no window: all-time structures only
	assert.False(t, Params{GuildID: "g"}.scannable())

	start := mustParse(t, "2026-01-01T00:00:00Z")

	within := Params{GuildID: "g", Start: start, End: start.AddDate(0, 0, maxWindowDays-1)}
	assert.True(t, within.scannable())

	tooWide := Params{GuildID: "g", Start: start, End: start.AddDate(0, 0, maxWindowDays)}
	assert.False(t, tooWide.scannable())
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, 0, parseHour("0"))
	assert.Equal(t, 23, parseHour("23"))
	assert.Equal(t, -1, parseHour("24"))
	assert.Equal(t, -1, parseHour("x"))

	assert.Equal(t, int64(42), parseCount("42"))
	assert.Zero(t, parseCount(""))
	assert.Zero(t, parseCount("nope"))
}
