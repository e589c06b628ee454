package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/guildpulse/guildpulse-go/pkg/types"
)

// ChannelStats returns the per-channel message distribution.
func (h *StatsHandler) ChannelStats(c *gin.Context) {
	p, ok := queryParams(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	stats, err := h.query.ChannelDistribution(ctx, p)
	if err != nil {
		serverError(c, "channel-stats", err)
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{"channels": stats}, ""))
}

// Leaderboard returns the message leaderboard, windowed when start/end are
// given. mode=activity switches to the weighted activity ranking.
func (h *StatsHandler) Leaderboard(c *gin.Context) {
	p, ok := queryParams(c)
	if !ok {
		return
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	ctx := c.Request.Context()
	if c.Query("mode") == "activity" {
		ranks, err := h.engine.ActivityLeaderboard(ctx, p.GuildID, p.Start, p.End, limit)
		if err != nil {
			serverError(c, "activity-leaderboard", err)
			return
		}
		c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{"leaderboard": ranks}, ""))
		return
	}

	entries, err := h.query.Leaderboard(ctx, p, limit)
	if err != nil {
		serverError(c, "leaderboard", err)
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{"leaderboard": entries}, ""))
}

// Comparisons returns week-over-week and month-over-month activity deltas.
func (h *StatsHandler) Comparisons(c *gin.Context) {
	p, ok := queryParams(c)
	if !ok {
		return
	}

	out, err := h.query.Compare(c.Request.Context(), p)
	if err != nil {
		serverError(c, "comparisons", err)
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(out, ""))
}

// VoiceStats returns voice session totals and the most active voice users.
func (h *StatsHandler) VoiceStats(c *gin.Context) {
	p, ok := queryParams(c)
	if !ok {
		return
	}

	out, err := h.query.Voice(c.Request.Context(), p)
	if err != nil {
		serverError(c, "voice-stats", err)
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(out, ""))
}

// CommandStats returns per-command invocation counts.
func (h *StatsHandler) CommandStats(c *gin.Context) {
	p, ok := queryParams(c)
	if !ok {
		return
	}

	counts, err := h.redis.CommandCounts(c.Request.Context(), p.GuildID)
	if err != nil {
		serverError(c, "command-stats", err)
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{"commands": counts}, ""))
}

// TrafficStats returns monthly join/leave/net series.
func (h *StatsHandler) TrafficStats(c *gin.Context) {
	p, ok := queryParams(c)
	if !ok {
		return
	}

	months := 12
	if raw := c.Query("months"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 36 {
			months = n
		}
	}

	points, err := h.query.Traffic(c.Request.Context(), p, months)
	if err != nil {
		serverError(c, "traffic-stats", err)
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{"traffic": points}, ""))
}

// PeakStats returns the weekday/hour heatmap with peak, busiest and quiet
// window markers.
func (h *StatsHandler) PeakStats(c *gin.Context) {
	p, ok := queryParams(c)
	if !ok {
		return
	}

	hm, err := h.query.HeatmapStats(c.Request.Context(), p)
	if err != nil {
		serverError(c, "peak-stats", err)
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(hm, ""))
}

// ExtendedStats bundles activity counts, the hourly distribution and the
// message-length histogram for the analytics page.
func (h *StatsHandler) ExtendedStats(c *gin.Context) {
	p, ok := queryParams(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	activity, err := h.query.Activity(ctx, p)
	if err != nil {
		serverError(c, "extended-stats", err)
		return
	}
	hourly, err := h.query.HourlyTotals(ctx, p)
	if err != nil {
		serverError(c, "extended-stats", err)
		return
	}
	lengths, err := h.query.MessageLengths(ctx, p)
	if err != nil {
		serverError(c, "extended-stats", err)
		return
	}
	sticky, err := h.query.StickinessSeries(ctx, p)
	if err != nil {
		serverError(c, "extended-stats", err)
		return
	}

	c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{
		"activity":          activity,
		"hourly":            hourly,
		"message_lengths":   lengths,
		"stickiness_series": sticky,
	}, ""))
}
