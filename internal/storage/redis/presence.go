package redis

import (
	"context"
)

// GuildSnapshot is what the presence sampler writes every tick.
type GuildSnapshot struct {
	GuildID           string
	Online            int
	Total             int
	VerificationLevel int
	MFALevel          int
	ExplicitFilter    int
}

// WritePresence stores one sampler tick: online/total with a short TTL so a
// dead bot shows as unknown, plus the durable security settings, plus the
// guild-registry membership. Racing replicas write identical values.
func (c *Client) WritePresence(ctx context.Context, s GuildSnapshot) error {
	pipe, err := c.Pipeline()
	if err != nil {
		return err
	}

	pipe.Set(ctx, PresenceOnlineKey(s.GuildID), s.Online, TTLPresence)
	pipe.Set(ctx, PresenceTotalKey(s.GuildID), s.Total, TTLPresence)
	pipe.Set(ctx, VerificationLevelKey(s.GuildID), s.VerificationLevel, 0)
	pipe.Set(ctx, MFALevelKey(s.GuildID), s.MFALevel, 0)
	pipe.Set(ctx, ExplicitFilterKey(s.GuildID), s.ExplicitFilter, 0)
	pipe.SAdd(ctx, KeyGuildRegistry, s.GuildID)

	_, err = pipe.Exec(ctx)
	return err
}

// ReadPresence returns the last snapshot; zero values when expired.
func (c *Client) ReadPresence(ctx context.Context, guildID string) (GuildSnapshot, error) {
	s := GuildSnapshot{GuildID: guildID}

	online, err := c.GetInt(ctx, PresenceOnlineKey(guildID))
	if err != nil {
		return s, err
	}
	total, err := c.GetInt(ctx, PresenceTotalKey(guildID))
	if err != nil {
		return s, err
	}
	verification, err := c.GetInt(ctx, VerificationLevelKey(guildID))
	if err != nil {
		return s, err
	}
	mfa, err := c.GetInt(ctx, MFALevelKey(guildID))
	if err != nil {
		return s, err
	}
	filter, err := c.GetInt(ctx, ExplicitFilterKey(guildID))
	if err != nil {
		return s, err
	}

	s.Online = int(online)
	s.Total = int(total)
	s.VerificationLevel = int(verification)
	s.MFALevel = int(mfa)
	s.ExplicitFilter = int(filter)
	return s, nil
}

// RegisteredGuilds lists every guild the bot has seen.
func (c *Client) RegisteredGuilds(ctx context.Context) ([]string, error) {
	return c.SMembers(ctx, KeyGuildRegistry)
}
