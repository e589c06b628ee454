package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	"github.com/guildpulse/guildpulse-go/internal/storage/redis"
	"github.com/guildpulse/guildpulse-go/pkg/types"
)

// Status serves the monitor snapshot and the bot heartbeat age for the
// status page.
func (h *StatsHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	var snapshot interface{}
	raw, err := h.redis.Get(ctx, redis.KeyMonitorStatus)
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal([]byte(raw), &snapshot); jsonErr != nil {
			snapshot = nil
		}
	case errors.Is(err, goredis.Nil):
		// No monitor has published yet.
	default:
		serverError(c, "status", err)
		return
	}

	age, alive, err := h.redis.HeartbeatAge(ctx)
	if err != nil {
		serverError(c, "status", err)
		return
	}

	payload := gin.H{"monitor": snapshot, "bot_alive": alive}
	if alive {
		payload["heartbeat_age_seconds"] = int64(age.Seconds())
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(payload, ""))
}
