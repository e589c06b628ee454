package backfill

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

// DiscordSource adapts a live gateway session to the HistorySource the
// orchestrator walks.
type DiscordSource struct {
	session *discordgo.Session
}

func NewDiscordSource(session *discordgo.Session) *DiscordSource {
	return &DiscordSource{session: session}
}

func (d *DiscordSource) Channels(ctx context.Context, guildID string) ([]Channel, error) {
	channels, err := d.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapRESTError(err)
	}

	out := make([]Channel, 0, len(channels))
	for _, ch := range channels {
		if ch.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		out = append(out, Channel{ID: ch.ID, Name: ch.Name})
	}
	return out, nil
}

func (d *DiscordSource) Messages(ctx context.Context, channelID, beforeID string, limit int) ([]Message, error) {
	msgs, err := d.session.ChannelMessages(channelID, limit, beforeID, "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapRESTError(err)
	}

	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Author == nil {
			continue
		}
		out = append(out, Message{
			ID:        m.ID,
			ChannelID: channelID,
			AuthorID:  m.Author.ID,
			AuthorBot: m.Author.Bot,
			Content:   m.Content,
			Reply:     m.MessageReference != nil,
			Timestamp: m.Timestamp,
		})
	}
	return out, nil
}

func (d *DiscordSource) AuditLog(ctx context.Context, guildID string) ([]AuditEntry, error) {
	var out []AuditEntry
	beforeID := ""
	for {
		log, err := d.session.GuildAuditLog(guildID, "", beforeID, 0, pageLimit, discordgo.WithContext(ctx))
		if err != nil {
			return nil, mapRESTError(err)
		}
		if len(log.AuditLogEntries) == 0 {
			return out, nil
		}

		for _, e := range log.AuditLogEntries {
			beforeID = e.ID
			if e.ActionType == nil || e.UserID == "" {
				continue
			}
			action := auditLogAction(*e.ActionType)
			if action == "" {
				continue
			}
			out = append(out, AuditEntry{
				ActorID:   e.UserID,
				TargetID:  e.TargetID,
				Action:    action,
				Timestamp: snowflakeTime(e.ID),
			})
		}
	}
}

func (d *DiscordSource) Members(ctx context.Context, guildID string) ([]Member, error) {
	var out []Member
	afterID := ""
	for {
		page, err := d.session.GuildMembers(guildID, afterID, 1000, discordgo.WithContext(ctx))
		if err != nil {
			return nil, mapRESTError(err)
		}
		if len(page) == 0 {
			return out, nil
		}

		for _, m := range page {
			if m.User == nil {
				continue
			}
			afterID = m.User.ID
			out = append(out, Member{
				UserID:   m.User.ID,
				Bot:      m.User.Bot,
				JoinedAt: m.JoinedAt,
			})
		}
	}
}

// auditLogAction maps the audit entry kinds the backfill replays. Timeouts
// are not recovered: the change payload that distinguishes them from other
// member updates is not retained in the paged log.
func auditLogAction(a discordgo.AuditLogAction) string {
	switch a {
	case discordgo.AuditLogActionMemberBanAdd:
		return storage.ActionBan
	case discordgo.AuditLogActionMemberBanRemove:
		return storage.ActionUnban
	case discordgo.AuditLogActionMemberKick:
		return storage.ActionKick
	case discordgo.AuditLogActionMemberRoleUpdate:
		return storage.ActionRoleUpdate
	case discordgo.AuditLogActionMessageDelete, discordgo.AuditLogActionMessageBulkDelete:
		return storage.ActionMsgDelete
	}
	return ""
}

func mapRESTError(err error) error {
	if restErr, ok := err.(*discordgo.RESTError); ok && restErr.Response != nil {
		if restErr.Response.StatusCode == 403 {
			return ErrPermission
		}
	}
	return err
}

// snowflakeTime recovers the creation timestamp embedded in a Discord id.
func snowflakeTime(id string) time.Time {
	ts, err := discordgo.SnowflakeTimestamp(id)
	if err != nil {
		return time.Time{}
	}
	return ts
}
