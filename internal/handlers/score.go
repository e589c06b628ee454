package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guildpulse/guildpulse-go/pkg/types"
)

// SecurityScore returns the four-component security score, its Czech
// rating bucket and the ordered insight list.
func (h *StatsHandler) SecurityScore(c *gin.Context) {
	p, ok := queryParams(c)
	if !ok {
		return
	}

	score, err := h.engine.SecurityReport(c.Request.Context(), p.GuildID)
	if err != nil {
		serverError(c, "security-score", err)
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(score, ""))
}

// PredictionsData returns the membership and daily-message forecasts plus
// the engagement score over the trailing 30 days.
func (h *StatsHandler) PredictionsData(c *gin.Context) {
	p, ok := queryParams(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	predictions, err := h.engine.Predict(ctx, p.GuildID)
	if err != nil {
		serverError(c, "predictions-data", err)
		return
	}

	now := time.Now().UTC()
	engagement, err := h.engine.EngagementReport(ctx, p.GuildID, now.AddDate(0, 0, -29), now)
	if err != nil {
		serverError(c, "predictions-data", err)
		return
	}

	c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{
		"predictions": predictions,
		"engagement":  engagement,
	}, ""))
}
