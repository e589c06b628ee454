// Package presence periodically snapshots online counts and security
// settings for every guild the bot can see.
package presence

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/guildpulse/guildpulse-go/internal/pkg/logger"
	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

const tickInterval = 10 * time.Second

// Sampler walks the gateway state cache on a fixed tick. The written keys
// carry a short TTL, so a stalled sampler degrades to "unknown" rather than
// serving stale counts.
type Sampler struct {
	store   *storage.Client
	session *discordgo.Session
}

func New(store *storage.Client, session *discordgo.Session) *Sampler {
	return &Sampler{store: store, session: session}
}

// Run samples every 10 seconds until ctx is done. The first sample fires
// immediately so dashboards are live right after startup.
func (p *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	p.sampleAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sampleAll(ctx)
		}
	}
}

func (p *Sampler) sampleAll(ctx context.Context) {
	if p.session == nil || p.session.State == nil {
		return
	}

	p.session.State.RLock()
	guilds := make([]*discordgo.Guild, len(p.session.State.Guilds))
	copy(guilds, p.session.State.Guilds)
	p.session.State.RUnlock()

	for _, g := range guilds {
		if g == nil || g.Unavailable {
			continue
		}
		snap := snapshot(g)

		wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := p.store.WritePresence(wctx, snap)
		cancel()
		if err != nil {
			logger.Warn("presence write failed",
				zap.String("guild", g.ID), zap.Error(err))
		}
	}
}

// snapshot counts online members from the state cache. Presences without an
// offline status count as online; MemberCount comes from the gateway and
// covers members outside the cache.
func snapshot(g *discordgo.Guild) storage.GuildSnapshot {
	online := 0
	for _, pr := range g.Presences {
		if pr == nil {
			continue
		}
		if pr.Status != discordgo.StatusOffline && pr.Status != discordgo.StatusInvisible {
			online++
		}
	}

	return storage.GuildSnapshot{
		GuildID:           g.ID,
		Online:            online,
		Total:             g.MemberCount,
		VerificationLevel: int(g.VerificationLevel),
		MFALevel:          int(g.MfaLevel),
		ExplicitFilter:    int(g.ExplicitContentFilter),
	}
}
