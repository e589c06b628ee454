package backfill

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"regexp"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/guildpulse/guildpulse-go/internal/config"
	"github.com/guildpulse/guildpulse-go/internal/pkg/logger"
	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

const pageLimit = 100

// Progress is the JSON document polled by the dashboard while a backfill
// runs.
type Progress struct {
	Status         string   `json:"status"`
	Progress       float64  `json:"progress"`
	Messages       int64    `json:"messages"`
	CurrentChannel string   `json:"current_channel,omitempty"`
	Skipped        []string `json:"skipped,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// Verification log messages the bot once posted, parsed back into events.
var (
	reVerifyApproved = regexp.MustCompile(`(?i)verification\s+(?:approved|passed)\D*<@!?(\d+)>`)
	reVerifyManual   = regexp.MustCompile(`(?i)manually\s+(?:verified|approved)\D*<@!?(\d+)>`)
)

// Orchestrator rebuilds one guild's schema from a HistorySource.
type Orchestrator struct {
	store  *storage.Client
	source HistorySource
	cfg    config.StatsConfig

	// verifyChannel is the log channel the verification phase parses;
	// empty skips the phase.
	verifyChannel string

	rand func(n int) int

	current Progress
}

func New(store *storage.Client, source HistorySource, cfg config.StatsConfig, verifyChannel string) *Orchestrator {
	return &Orchestrator{
		store:         store,
		source:        source,
		cfg:           cfg,
		verifyChannel: verifyChannel,
		rand:          rand.Intn,
	}
}

// Run executes the full backfill. Any error other than a per-channel
// permission failure aborts and leaves the progress key in an error state.
func (o *Orchestrator) Run(ctx context.Context, guildID string) error {
	o.current = Progress{Status: "starting"}
	o.publish(ctx, guildID)

	if err := o.preflight(ctx, guildID); err != nil {
		return o.abort(ctx, guildID, err)
	}
	if err := o.messagePhase(ctx, guildID); err != nil {
		return o.abort(ctx, guildID, err)
	}
	if err := o.auditPhase(ctx, guildID); err != nil {
		return o.abort(ctx, guildID, err)
	}
	if err := o.verificationPhase(ctx, guildID); err != nil {
		return o.abort(ctx, guildID, err)
	}
	if err := o.memberPhase(ctx, guildID); err != nil {
		return o.abort(ctx, guildID, err)
	}
	if err := o.xpPhase(ctx, guildID); err != nil {
		return o.abort(ctx, guildID, err)
	}

	o.setProgress(ctx, guildID, "completed", 100, "")
	return nil
}

// preflight deletes every guild-scoped stat key so the rebuild starts from
// a clean slate.
func (o *Orchestrator) preflight(ctx context.Context, guildID string) error {
	deleted, err := o.store.DeleteByPatterns(ctx, storage.GuildStatPrefixes(guildID))
	if err != nil {
		return err
	}
	logger.Info("backfill preflight cleared keys",
		zap.String("guild", guildID), zap.Int64("deleted", deleted))
	o.setProgress(ctx, guildID, "messages", 1, "")
	return nil
}

func (o *Orchestrator) messagePhase(ctx context.Context, guildID string) error {
	channels, err := o.source.Channels(ctx, guildID)
	if err != nil {
		return err
	}

	buf := newBuffers()
	retention := time.Duration(o.cfg.RetentionDays) * 24 * time.Hour
	pending := 0

	for i, ch := range channels {
		if err := o.store.CacheChannelName(ctx, ch.ID, ch.Name); err != nil {
			logger.Warn("channel name cache failed", zap.String("channel", ch.ID), zap.Error(err))
		}
		o.setProgress(ctx, guildID, "messages", 1+float64(i)/float64(len(channels))*89, ch.Name)

		beforeID := ""
		for {
			page, err := o.source.Messages(ctx, ch.ID, beforeID, pageLimit)
			if errors.Is(err, ErrPermission) {
				o.current.Skipped = append(o.current.Skipped, ch.Name)
				logger.Warn("backfill channel skipped",
					zap.String("guild", guildID), zap.String("channel", ch.Name))
				break
			}
			if err != nil {
				return err
			}
			if len(page) == 0 {
				break
			}
			beforeID = page[len(page)-1].ID

			for _, m := range page {
				if m.AuthorBot {
					continue
				}
				buf.add(m)
				o.current.Messages++
				pending++
				if pending >= o.cfg.BackfillBatch {
					if err := buf.flush(ctx, o.store, guildID, retention); err != nil {
						return err
					}
					pending = 0
					o.publish(ctx, guildID)
				}
			}
		}
	}

	if err := buf.flush(ctx, o.store, guildID, retention); err != nil {
		return err
	}
	o.setProgress(ctx, guildID, "audit", 90, "")
	return nil
}

// auditPhase replays moderation history into the action streams. A denied
// audit log skips the phase; the rest of the backfill still completes.
func (o *Orchestrator) auditPhase(ctx context.Context, guildID string) error {
	entries, err := o.source.AuditLog(ctx, guildID)
	if errors.Is(err, ErrPermission) {
		o.current.Skipped = append(o.current.Skipped, "audit log")
		o.setProgress(ctx, guildID, "verification", 92, "")
		return nil
	}
	if err != nil {
		return err
	}

	for _, e := range entries {
		ev := storage.ActionEvent{Type: e.Action, ID: e.TargetID}
		if err := o.store.AppendActionEvent(ctx, guildID, e.ActorID, ev, e.Timestamp); err != nil {
			return err
		}
	}
	o.setProgress(ctx, guildID, "verification", 92, "")
	return nil
}

// verificationPhase recovers verification events from the configured log
// channel by parsing the bot's own confirmation messages.
func (o *Orchestrator) verificationPhase(ctx context.Context, guildID string) error {
	if o.verifyChannel == "" {
		o.setProgress(ctx, guildID, "members", 94, "")
		return nil
	}

	beforeID := ""
	for {
		page, err := o.source.Messages(ctx, o.verifyChannel, beforeID, pageLimit)
		if errors.Is(err, ErrPermission) {
			o.current.Skipped = append(o.current.Skipped, "verification log")
			break
		}
		if err != nil {
			return err
		}
		if len(page) == 0 {
			break
		}
		beforeID = page[len(page)-1].ID

		for _, m := range page {
			if !m.AuthorBot {
				continue
			}
			userID := matchVerification(m.Content)
			if userID == "" {
				continue
			}
			ev := storage.ActionEvent{Type: storage.ActionVerification, ID: userID}
			if err := o.store.AppendActionEvent(ctx, guildID, m.AuthorID, ev, m.Timestamp); err != nil {
				return err
			}
		}
	}

	o.setProgress(ctx, guildID, "members", 94, "")
	return nil
}

// matchVerification extracts the verified user id from a log line, trying
// the approval pattern first.
func matchVerification(content string) string {
	if m := reVerifyApproved.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	if m := reVerifyManual.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	return ""
}

// memberPhase rebuilds the monthly join counters from cached join dates.
func (o *Orchestrator) memberPhase(ctx context.Context, guildID string) error {
	members, err := o.source.Members(ctx, guildID)
	if err != nil {
		return err
	}

	for _, m := range members {
		if m.Bot || m.JoinedAt.IsZero() {
			continue
		}
		if err := o.store.RecordJoin(ctx, guildID, m.JoinedAt); err != nil {
			return err
		}
	}
	o.setProgress(ctx, guildID, "xp", 96, "")
	return nil
}

// xpPhase replays every user's message timestamps through the XP cooldown
// and overwrites their ledger total.
func (o *Orchestrator) xpPhase(ctx context.Context, guildID string) error {
	users, err := o.store.EventStreamUserIDs(ctx, storage.PrefixEventsMsg, guildID)
	if err != nil {
		return err
	}

	cooldown := int64(storage.TTLXPCooldown.Seconds())
	for _, userID := range users {
		timestamps, err := o.store.MsgEventTimestamps(ctx, guildID, userID)
		if err != nil {
			return err
		}
		total := replayXP(timestamps, cooldown, o.rollXP)
		if total == 0 {
			continue
		}
		if err := o.store.SetXP(ctx, guildID, userID, total); err != nil {
			return err
		}
	}

	o.setProgress(ctx, guildID, "finishing", 98, "")
	return nil
}

func (o *Orchestrator) rollXP() int {
	span := o.cfg.XPMax - o.cfg.XPMin + 1
	if span <= 1 {
		return o.cfg.XPMin
	}
	return o.cfg.XPMin + o.rand(span)
}

// replayXP walks message timestamps in order, granting XP for each message
// that falls outside the cooldown window of the previous grant.
func replayXP(timestamps []int64, cooldownSec int64, roll func() int) int64 {
	if len(timestamps) == 0 {
		return 0
	}
	sorted := make([]int64, len(timestamps))
	copy(sorted, timestamps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total int64
	granted := false
	var lastGrant int64
	for _, ts := range sorted {
		if granted && ts-lastGrant < cooldownSec {
			continue
		}
		total += int64(roll())
		lastGrant = ts
		granted = true
	}
	return total
}

func (o *Orchestrator) setProgress(ctx context.Context, guildID, status string, progress float64, channel string) {
	o.current.Status = status
	if progress > o.current.Progress {
		o.current.Progress = progress
	}
	o.current.CurrentChannel = channel
	o.publish(ctx, guildID)
}

func (o *Orchestrator) publish(ctx context.Context, guildID string) {
	raw, err := json.Marshal(o.current)
	if err != nil {
		return
	}
	if err := o.store.Set(ctx, storage.BackfillProgressKey(guildID), string(raw), 0); err != nil {
		logger.Warn("backfill progress write failed", zap.String("guild", guildID), zap.Error(err))
	}
}

func (o *Orchestrator) abort(ctx context.Context, guildID string, err error) error {
	o.current.Status = "error"
	o.current.Error = err.Error()
	o.publish(ctx, guildID)
	logger.Error("backfill aborted", zap.String("guild", guildID), zap.Error(err))
	return err
}

// Status reads the current progress document for a guild, nil when no
// backfill has run.
func Status(ctx context.Context, store *storage.Client, guildID string) (*Progress, error) {
	raw, err := store.Get(ctx, storage.BackfillProgressKey(guildID))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	var p Progress
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, err
	}
	return &p, nil
}
