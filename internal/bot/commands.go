// Package bot implements the prefix command surface: quick analytics
// readouts answered straight from Redis and the in-memory sketches.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/guildpulse/guildpulse-go/internal/config"
	"github.com/guildpulse/guildpulse-go/internal/pkg/logger"
	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
	"github.com/guildpulse/guildpulse-go/internal/tap"
)

const cmdTimeout = 5 * time.Second

// Commands dispatches prefix commands from message-create events.
type Commands struct {
	store  *storage.Client
	tap    *tap.Tap
	prefix string
	stats  config.StatsConfig
}

func New(store *storage.Client, t *tap.Tap, prefix string, stats config.StatsConfig) *Commands {
	if prefix == "" {
		prefix = "!"
	}
	return &Commands{store: store, tap: t, prefix: prefix, stats: stats}
}

// Handle runs before analytics ingestion on every message-create. Non-command
// messages are ignored.
func (h *Commands) Handle(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	if !strings.HasPrefix(m.Content, h.prefix) {
		return
	}

	fields := strings.Fields(strings.TrimPrefix(m.Content, h.prefix))
	if len(fields) == 0 {
		return
	}
	name := strings.ToLower(fields[0])
	args := fields[1:]

	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()

	var reply string
	switch name {
	case "dau":
		reply = h.cmdDAU(ctx, m.GuildID, args)
	case "wau":
		reply = h.cmdUnique(ctx, m.GuildID, 7, "WAU (7 days)")
	case "mau":
		days := argInt(args, 0, 30)
		if days < 1 || days > h.stats.RetentionDays {
			reply = fmt.Sprintf("Window must be 1-%d days.", h.stats.RetentionDays)
		} else {
			reply = h.cmdUnique(ctx, m.GuildID, days, fmt.Sprintf("MAU (%d days)", days))
		}
	case "topusers":
		reply = h.cmdTop(m.GuildID, argInt(args, 0, 5), true)
	case "topchannels":
		reply = h.cmdTop(m.GuildID, argInt(args, 0, 5), false)
	case "anloghere":
		reply = h.cmdAnlogHere(ctx, s, m)
	default:
		return
	}

	if err := h.store.RecordCommand(ctx, m.GuildID, name); err != nil {
		logger.Warn("command counter write failed", zap.String("command", name), zap.Error(err))
	}
	if reply == "" {
		return
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
		logger.Warn("command reply failed", zap.String("command", name), zap.Error(err))
	}
}

func (h *Commands) cmdDAU(ctx context.Context, guildID string, args []string) string {
	daysAgo := argInt(args, 0, 0)
	if daysAgo < 0 || daysAgo >= h.stats.RetentionDays {
		return fmt.Sprintf("Offset must be 0-%d days.", h.stats.RetentionDays-1)
	}
	day := time.Now().UTC().AddDate(0, 0, -daysAgo)
	count, err := h.store.DAUCount(ctx, guildID, storage.DayKey(day))
	if err != nil {
		logger.Error("dau lookup failed", zap.Error(err))
		return "Lookup failed, try again."
	}
	if daysAgo == 0 {
		return fmt.Sprintf("DAU today: **%d**", count)
	}
	return fmt.Sprintf("DAU on %s: **%d**", storage.DateKey(day), count)
}

func (h *Commands) cmdUnique(ctx context.Context, guildID string, days int, label string) string {
	now := time.Now().UTC()
	count, err := h.store.UniqueCount(ctx, guildID, storage.DaysInRange(now.AddDate(0, 0, -(days-1)), now))
	if err != nil {
		logger.Error("unique count lookup failed", zap.Error(err))
		return "Lookup failed, try again."
	}
	return fmt.Sprintf("%s: **%d**", label, count)
}

func (h *Commands) cmdTop(guildID string, k int, users bool) string {
	if k < 1 || k > h.stats.TopK {
		k = 5
	}

	var entries []tap.TopEntry
	var header string
	if users {
		entries = h.tap.TopUsers(guildID, k)
		header = fmt.Sprintf("Top %d users today (UTC):", k)
	} else {
		entries = h.tap.TopChannels(guildID, k)
		header = fmt.Sprintf("Top %d channels today (UTC):", k)
	}
	if len(entries) == 0 {
		return "No activity recorded today yet."
	}

	var b strings.Builder
	b.WriteString(header)
	for i, e := range entries {
		ref := fmt.Sprintf("<@%s>", e.Key)
		if !users {
			ref = fmt.Sprintf("<#%s>", e.Key)
		}
		fmt.Fprintf(&b, "\n%d. %s: ~%d messages", i+1, ref, e.Count)
	}
	return b.String()
}

func (h *Commands) cmdAnlogHere(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) string {
	perms, err := s.State.MessagePermissions(m.Message)
	if err != nil || perms&discordgo.PermissionAdministrator == 0 {
		return "Administrator permission required."
	}
	if err := h.store.Set(ctx, storage.AnlogChannelKey(m.GuildID), m.ChannelID, 0); err != nil {
		logger.Error("anlog channel bind failed", zap.Error(err))
		return "Binding failed, try again."
	}
	return "Heartbeat embeds will be posted in this channel."
}

// AnlogChannel returns the bound heartbeat channel, empty when unset.
func AnlogChannel(ctx context.Context, store *storage.Client, guildID string) string {
	id, err := store.Get(ctx, storage.AnlogChannelKey(guildID))
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			logger.Warn("anlog channel read failed", zap.Error(err))
		}
		return ""
	}
	return id
}

// argInt parses args[i], falling back when absent or malformed.
func argInt(args []string, i, fallback int) int {
	if i >= len(args) {
		return fallback
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return fallback
	}
	return n
}
