// Package handlers is the dashboard HTTP surface. Handlers stay thin:
// parse params, call the query or scoring layer, wrap the result in the
// shared envelope. Missing analytics keys degrade to empty payloads, not
// server errors.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/guildpulse/guildpulse-go/internal/pkg/logger"
	"github.com/guildpulse/guildpulse-go/internal/query"
	"github.com/guildpulse/guildpulse-go/internal/scoring"
	"github.com/guildpulse/guildpulse-go/internal/storage/redis"
	"github.com/guildpulse/guildpulse-go/pkg/types"
)

const dateLayout = "2006-01-02"

// StatsHandler serves the read-only analytics endpoints.
type StatsHandler struct {
	redis  *redis.Client
	query  *query.Service
	engine *scoring.Engine
}

func NewStatsHandler(redisClient *redis.Client) *StatsHandler {
	return &StatsHandler{
		redis:  redisClient,
		query:  query.New(redisClient),
		engine: scoring.NewEngine(redisClient),
	}
}

// queryParams parses guild_id (required) and the optional start/end window
// and role filter shared by every stats endpoint.
func queryParams(c *gin.Context) (query.Params, bool) {
	p := query.Params{
		GuildID: c.Query("guild_id"),
		RoleID:  c.Query("role_id"),
	}
	if p.GuildID == "" {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("guild_id is required", ""))
		return p, false
	}
	if raw := c.Query("start"); raw != "" {
		t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, types.NewErrorResponse("invalid start date", "expected YYYY-MM-DD"))
			return p, false
		}
		p.Start = t
	}
	if raw := c.Query("end"); raw != "" {
		t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, types.NewErrorResponse("invalid end date", "expected YYYY-MM-DD"))
			return p, false
		}
		p.End = t
	}
	if !p.Start.IsZero() && !p.End.IsZero() && p.End.Before(p.Start) {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("end precedes start", ""))
		return p, false
	}
	return p, true
}

func serverError(c *gin.Context, op string, err error) {
	logger.Error("Stats query failed", zap.String("op", op), zap.Error(err))
	c.JSON(http.StatusInternalServerError, types.NewErrorResponse("internal error", ""))
}
