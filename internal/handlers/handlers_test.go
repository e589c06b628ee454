package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildpulse/guildpulse-go/internal/query"
)

func paramsFor(t *testing.T, rawQuery string) (query.Params, bool, int) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/test?"+rawQuery, nil)
	p, ok := queryParams(c)
	return p, ok, w.Code
}

func TestQueryParamsRequiresGuild(t *testing.T) {
	_, ok, code := paramsFor(t, "start=2026-01-01")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestQueryParamsWindow(t *testing.T) {
	p, ok, _ := paramsFor(t, "guild_id=g1&start=2026-01-01&end=2026-01-31")
	require.True(t, ok)
	assert.Equal(t, "g1", p.GuildID)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), p.End)
}

func TestQueryParamsRejectsInvertedWindow(t *testing.T) {
	_, ok, code := paramsFor(t, "guild_id=g1&start=2026-01-31&end=2026-01-01")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestQueryParamsRejectsMalformedDate(t *testing.T) {
	_, ok, code := paramsFor(t, "guild_id=g1&start=yesterday")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestExportCSVSections(t *testing.T) {
	entries := []query.LeaderboardEntry{
		{Rank: 1, UserID: "u1", Name: "alfa", Messages: 120, AvgLen: 34.5},
		{Rank: 2, UserID: "u2", Name: "bravo", Messages: 80, AvgLen: 12.0},
	}
	series := []query.ActivityPoint{
		{Date: "20260101", Count: 14},
		{Date: "20260102", Count: 9},
	}

	body, err := exportCSV(entries, series)
	require.NoError(t, err)

	out := string(body)
	assert.Contains(t, out, "rank,user_id,name,messages,avg_length")
	assert.Contains(t, out, "1,u1,alfa,120,34.5")
	assert.Contains(t, out, "date,active_users")
	assert.Contains(t, out, "20260102,9")
	// Leaderboard section precedes the activity section.
	assert.Less(t, strings.Index(out, "rank,"), strings.Index(out, "date,"))
}
