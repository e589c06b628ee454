package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guildpulse/guildpulse-go/internal/query"
	"github.com/guildpulse/guildpulse-go/pkg/types"
)

const exportLeaderboardSize = 100

// Export streams the leaderboard and daily activity series as a file
// download. The :type path segment selects csv or json.
func (h *StatsHandler) Export(c *gin.Context) {
	format := c.Param("type")
	if format != "csv" && format != "json" {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("unsupported export type", "use csv or json"))
		return
	}

	p, ok := queryParams(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	entries, err := h.query.Leaderboard(ctx, p, exportLeaderboardSize)
	if err != nil {
		serverError(c, "export", err)
		return
	}
	activity, err := h.query.Activity(ctx, p)
	if err != nil {
		serverError(c, "export", err)
		return
	}

	stamp := time.Now().UTC().Format("20060102")
	filename := fmt.Sprintf("guildpulse_%s_%s.%s", p.GuildID, stamp, format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if format == "json" {
		c.JSON(http.StatusOK, gin.H{
			"guild_id":    p.GuildID,
			"exported_at": time.Now().UTC().Format(time.RFC3339),
			"leaderboard": entries,
			"activity":    activity.Series,
		})
		return
	}

	body, err := exportCSV(entries, activity.Series)
	if err != nil {
		serverError(c, "export", err)
		return
	}
	c.Data(http.StatusOK, "text/csv; charset=utf-8", body)
}

// exportCSV renders two sections in one file, each with its own header
// row, separated by a blank line.
func exportCSV(entries []query.LeaderboardEntry, series []query.ActivityPoint) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"rank", "user_id", "name", "messages", "avg_length"}); err != nil {
		return nil, err
	}
	for _, e := range entries {
		rec := []string{
			fmt.Sprintf("%d", e.Rank),
			e.UserID,
			e.Name,
			fmt.Sprintf("%d", e.Messages),
			fmt.Sprintf("%.1f", e.AvgLen),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}

	if err := w.Write([]string{}); err != nil {
		return nil, err
	}
	if err := w.Write([]string{"date", "active_users"}); err != nil {
		return nil, err
	}
	for _, pt := range series {
		if err := w.Write([]string{pt.Date, fmt.Sprintf("%d", pt.Count)}); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}
