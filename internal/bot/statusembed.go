package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/guildpulse/guildpulse-go/internal/pkg/logger"
	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

const statusInterval = time.Minute

// heartbeatDoc mirrors the liveness payload the ingestion side publishes.
type heartbeatDoc struct {
	TS          int64 `json:"ts"`
	QueueDepth  int   `json:"queue_depth"`
	QueueDrops  int64 `json:"queue_drops"`
	Flushed     int64 `json:"flushed"`
	Cooldowns   int   `json:"cooldowns"`
	RecentFails int   `json:"recent_fails"`
}

// StatusPoster renders the minute heartbeat as an embed in each guild's
// bound log channel.
type StatusPoster struct {
	store   *storage.Client
	session *discordgo.Session
}

func NewStatusPoster(store *storage.Client, session *discordgo.Session) *StatusPoster {
	return &StatusPoster{store: store, session: session}
}

func (p *StatusPoster) Run(ctx context.Context) {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.postAll(ctx)
		}
	}
}

func (p *StatusPoster) postAll(ctx context.Context) {
	guilds, err := p.store.RegisteredGuilds(ctx)
	if err != nil {
		logger.Warn("guild registry read failed", zap.Error(err))
		return
	}

	raw, err := p.store.Get(ctx, storage.KeyHeartbeat)
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			logger.Warn("heartbeat read failed", zap.Error(err))
		}
		return
	}
	var hb heartbeatDoc
	if err := json.Unmarshal([]byte(raw), &hb); err != nil {
		logger.Warn("heartbeat decode failed", zap.Error(err))
		return
	}

	for _, gid := range guilds {
		channelID := AnlogChannel(ctx, p.store, gid)
		if channelID == "" {
			continue
		}
		if _, err := p.session.ChannelMessageSendEmbed(channelID, statusEmbed(hb)); err != nil {
			logger.Warn("status embed send failed", zap.String("guild", gid), zap.Error(err))
		}
	}
}

func statusEmbed(hb heartbeatDoc) *discordgo.MessageEmbed {
	color := 0x2ecc71
	if hb.RecentFails > 0 || hb.QueueDrops > 0 {
		color = 0xe67e22
	}
	return &discordgo.MessageEmbed{
		Title: "Ingestion heartbeat",
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Queue depth", Value: fmt.Sprintf("%d", hb.QueueDepth), Inline: true},
			{Name: "Dropped", Value: fmt.Sprintf("%d", hb.QueueDrops), Inline: true},
			{Name: "Flushed", Value: fmt.Sprintf("%d", hb.Flushed), Inline: true},
			{Name: "Cooldown entries", Value: fmt.Sprintf("%d", hb.Cooldowns), Inline: true},
			{Name: "Recent failures", Value: fmt.Sprintf("%d", hb.RecentFails), Inline: true},
		},
		Timestamp: time.Unix(hb.TS, 0).UTC().Format(time.RFC3339),
	}
}
