package handlers

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/guildpulse/guildpulse-go/internal/backfill"
	"github.com/guildpulse/guildpulse-go/internal/pkg/logger"
	"github.com/guildpulse/guildpulse-go/internal/storage/redis"
	"github.com/guildpulse/guildpulse-go/pkg/types"
)

// BackfillRunner starts a history rebuild for one guild. cmd/dashboard
// wires it to a backfill.Orchestrator; nil means no bot token was
// configured for this deployment.
type BackfillRunner func(ctx context.Context, guildID string) error

// BackfillHandler exposes the admin-only trigger and the progress poll.
type BackfillHandler struct {
	redis  *redis.Client
	runner BackfillRunner

	mu      sync.Mutex
	running map[string]bool
}

func NewBackfillHandler(redisClient *redis.Client, runner BackfillRunner) *BackfillHandler {
	return &BackfillHandler{
		redis:   redisClient,
		runner:  runner,
		running: make(map[string]bool),
	}
}

// Trigger launches a backfill in the background. One run per guild per
// process; a second trigger while one is active returns 409.
func (h *BackfillHandler) Trigger(c *gin.Context) {
	guildID := c.Query("guild_id")
	if guildID == "" {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("guild_id is required", ""))
		return
	}
	if h.runner == nil {
		c.JSON(http.StatusServiceUnavailable, types.NewErrorResponse("backfill unavailable", "no bot token configured"))
		return
	}

	h.mu.Lock()
	if h.running[guildID] {
		h.mu.Unlock()
		c.JSON(http.StatusConflict, types.NewErrorResponse("backfill already running", ""))
		return
	}
	h.running[guildID] = true
	h.mu.Unlock()

	// Detached from the request context so the run survives the response.
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.running, guildID)
			h.mu.Unlock()
		}()
		if err := h.runner(context.Background(), guildID); err != nil {
			logger.Error("Backfill run failed", zap.String("guild", guildID), zap.Error(err))
		}
	}()

	c.JSON(http.StatusAccepted, types.NewSuccessResponse(gin.H{"status": "started"}, ""))
}

// Status returns the progress document, or status=idle when no run has
// ever been recorded.
func (h *BackfillHandler) Status(c *gin.Context) {
	guildID := c.Query("guild_id")
	if guildID == "" {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("guild_id is required", ""))
		return
	}

	progress, err := backfill.Status(c.Request.Context(), h.redis, guildID)
	if err != nil {
		logger.Error("Failed to read backfill progress", zap.String("guild", guildID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("internal error", ""))
		return
	}
	if progress == nil {
		c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{"status": "idle"}, ""))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(progress, ""))
}
