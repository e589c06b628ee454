package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/guildpulse/guildpulse-go/internal/pkg/logger"
	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

// slashDefs mirrors the prefix commands as application commands.
var slashDefs = []*discordgo.ApplicationCommand{
	{
		Name:        "dau",
		Description: "Daily active users",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "days_ago", Description: "How many days back (default today)"},
		},
	},
	{Name: "wau", Description: "Weekly active users"},
	{
		Name:        "mau",
		Description: "Monthly active users",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "days", Description: "Window in days (default 30)"},
		},
	},
	{
		Name:        "topusers",
		Description: "Most active users today",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "count", Description: "How many to list (default 5)"},
		},
	},
	{
		Name:        "topchannels",
		Description: "Busiest channels today",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "count", Description: "How many to list (default 5)"},
		},
	},
	{Name: "anloghere", Description: "Post heartbeat embeds in this channel"},
}

// RegisterSlash overwrites the global application command set.
func (h *Commands) RegisterSlash(s *discordgo.Session) error {
	if s.State == nil || s.State.User == nil {
		return fmt.Errorf("session not ready")
	}
	_, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, "", slashDefs)
	return err
}

// HandleInteraction answers the slash variants with the same logic as the
// prefix commands.
func (h *Commands) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand || i.GuildID == "" {
		return
	}

	data := i.ApplicationCommandData()
	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()

	var reply string
	switch data.Name {
	case "dau":
		reply = h.cmdDAU(ctx, i.GuildID, optArgs(data.Options, "days_ago"))
	case "wau":
		reply = h.cmdUnique(ctx, i.GuildID, 7, "WAU (7 days)")
	case "mau":
		days := argInt(optArgs(data.Options, "days"), 0, 30)
		if days < 1 || days > h.stats.RetentionDays {
			reply = fmt.Sprintf("Window must be 1-%d days.", h.stats.RetentionDays)
		} else {
			reply = h.cmdUnique(ctx, i.GuildID, days, fmt.Sprintf("MAU (%d days)", days))
		}
	case "topusers":
		reply = h.cmdTop(i.GuildID, argInt(optArgs(data.Options, "count"), 0, 5), true)
	case "topchannels":
		reply = h.cmdTop(i.GuildID, argInt(optArgs(data.Options, "count"), 0, 5), false)
	case "anloghere":
		reply = h.slashAnlogHere(ctx, i)
	default:
		return
	}

	if err := h.store.RecordCommand(ctx, i.GuildID, data.Name); err != nil {
		logger.Warn("command counter write failed", zap.String("command", data.Name), zap.Error(err))
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: reply},
	})
	if err != nil {
		logger.Warn("interaction reply failed", zap.String("command", data.Name), zap.Error(err))
	}
}

// slashAnlogHere uses the interaction's precomputed member permissions.
func (h *Commands) slashAnlogHere(ctx context.Context, i *discordgo.InteractionCreate) string {
	if i.Member == nil || i.Member.Permissions&discordgo.PermissionAdministrator == 0 {
		return "Administrator permission required."
	}
	if err := h.store.Set(ctx, storage.AnlogChannelKey(i.GuildID), i.ChannelID, 0); err != nil {
		logger.Error("anlog channel bind failed", zap.Error(err))
		return "Binding failed, try again."
	}
	return "Heartbeat embeds will be posted in this channel."
}

// optArgs flattens integer options into the positional-arg form the prefix
// parser takes.
func optArgs(options []*discordgo.ApplicationCommandInteractionDataOption, name string) []string {
	for _, opt := range options {
		if opt != nil && opt.Name == name {
			return []string{fmt.Sprintf("%d", opt.IntValue())}
		}
	}
	return nil
}
