// Package tap turns raw gateway events into analytics writes. Every handler
// is idempotent across bot replicas: messages and voice sessions are claimed
// through short Redis locks before anything is counted.
package tap

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/guildpulse/guildpulse-go/internal/aggregator"
	"github.com/guildpulse/guildpulse-go/internal/config"
	"github.com/guildpulse/guildpulse-go/internal/pkg/logger"
	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

const opTimeout = 5 * time.Second

// Tap owns the per-process ingestion state: DAU cooldowns, open voice
// sessions, heavy-hitter sketches and the recent-error ring.
type Tap struct {
	store  *storage.Client
	writer *aggregator.Writer
	cfg    config.StatsConfig

	cooldowns *cooldownMap
	voice     *voiceTracker
	errs      *errRing

	mu          sync.Mutex
	sketchDay   string
	topUsers    map[string]*spaceSaving
	topChannels map[string]*spaceSaving

	rand func(n int) int
}

func New(store *storage.Client, writer *aggregator.Writer, cfg config.StatsConfig) *Tap {
	return &Tap{
		store:       store,
		writer:      writer,
		cfg:         cfg,
		cooldowns:   newCooldownMap(cfg.UserCooldown),
		voice:       newVoiceTracker(),
		errs:        newErrRing(),
		sketchDay:   storage.DayKey(time.Now()),
		topUsers:    make(map[string]*spaceSaving),
		topChannels: make(map[string]*spaceSaving),
		rand:        rand.Intn,
	}
}

// HandleMessage processes one MessageCreate. The Redis claim runs first so
// only one replica counts the message; everything after the claim is
// best-effort and logged rather than retried.
func (t *Tap) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	owned, err := t.store.ClaimMessage(ctx, m.ID)
	if err != nil {
		t.fail(m.GuildID, "claim message", err)
		return
	}
	if !owned {
		return
	}

	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	contentLen := len([]rune(m.Content))

	write := storage.MessageWrite{
		GuildID:    m.GuildID,
		ChannelID:  m.ChannelID,
		ChannelNm:  t.channelName(s, m.ChannelID),
		UserID:     m.Author.ID,
		ContentLen: contentLen,
		IsReply:    m.MessageReference != nil,
		Timestamp:  ts,
	}
	if err := t.store.RecordMessage(ctx, write); err != nil {
		t.fail(m.GuildID, "record message", err)
	}

	ev := storage.MsgEvent{Len: contentLen, Reply: write.IsReply}
	if err := t.store.AppendMsgEvent(ctx, m.GuildID, m.Author.ID, ev, ts); err != nil {
		t.fail(m.GuildID, "append msg event", err)
	}

	t.grantXP(ctx, m.GuildID, m.Author.ID)

	t.sketchFor(m.GuildID).user.Incr(m.Author.ID)
	t.sketchFor(m.GuildID).channel.Incr(m.ChannelID)

	t.enqueueDAU(m.GuildID, m.Author.ID, ts)
}

// HandleVoiceState tracks joins locally and converts leaves into voice
// events. Sessions shorter than VoiceMinMinutes are dropped without a claim.
func (t *Tap) HandleVoiceState(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if v.GuildID == "" || v.UserID == "" {
		return
	}

	if v.ChannelID != "" {
		t.voice.Join(v.GuildID, v.UserID)
		return
	}

	start, dur, ok := t.voice.Leave(v.GuildID, v.UserID)
	if !ok {
		return
	}
	if dur < time.Duration(t.cfg.VoiceMinMinutes)*time.Minute {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	owned, err := t.store.ClaimVoiceSession(ctx, v.UserID, start.Unix())
	if err != nil {
		t.fail(v.GuildID, "claim voice session", err)
		return
	}
	if !owned {
		return
	}

	ev := storage.VoiceEvent{Duration: int64(dur.Seconds()), TS: start.Unix()}
	if err := t.store.AppendVoiceEvent(ctx, v.GuildID, v.UserID, ev); err != nil {
		t.fail(v.GuildID, "append voice event", err)
	}
	t.enqueueDAU(v.GuildID, v.UserID, start)
}

// HandleAuditLog maps moderation audit entries into the action stream keyed
// by the acting moderator.
func (t *Tap) HandleAuditLog(s *discordgo.Session, e *discordgo.GuildAuditLogEntryCreate) {
	if e.GuildID == "" || e.UserID == "" || e.ActionType == nil {
		return
	}

	action := auditAction(*e.ActionType, e.Changes)
	if action == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	ev := storage.ActionEvent{Type: action, ID: e.TargetID}
	if err := t.store.AppendActionEvent(ctx, e.GuildID, e.UserID, ev, time.Now()); err != nil {
		t.fail(e.GuildID, "append action event", err)
	}
}

// HandleMemberAdd bumps the monthly join counter and caches the profile.
func (t *Tap) HandleMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.GuildID == "" || m.User == nil || m.User.Bot {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := t.store.RecordJoin(ctx, m.GuildID, time.Now()); err != nil {
		t.fail(m.GuildID, "record join", err)
	}
	p := storage.UserProfile{Name: m.User.Username, Avatar: m.User.Avatar}
	if err := t.store.CacheUserProfile(ctx, m.User.ID, p); err != nil {
		t.fail(m.GuildID, "cache profile", err)
	}
}

// HandleMemberRemove bumps the monthly leave counter.
func (t *Tap) HandleMemberRemove(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	if m.GuildID == "" || m.User == nil || m.User.Bot {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := t.store.RecordLeave(ctx, m.GuildID, time.Now()); err != nil {
		t.fail(m.GuildID, "record leave", err)
	}
}

// TopUsers returns the in-memory heavy hitters for today, heaviest first.
func (t *Tap) TopUsers(guildID string, n int) []TopEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	sk, ok := t.topUsers[guildID]
	if !ok {
		return nil
	}
	return sk.Top(n)
}

// TopChannels returns today's busiest channels, heaviest first.
func (t *Tap) TopChannels(guildID string, n int) []TopEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	sk, ok := t.topChannels[guildID]
	if !ok {
		return nil
	}
	return sk.Top(n)
}

// RecentErrors returns the last ingestion errors, oldest first.
func (t *Tap) RecentErrors() []errEntry {
	return t.errs.Recent()
}

// RunMaintenance sweeps the cooldown map, rolls sketches at UTC midnight and
// publishes the liveness heartbeat once a minute until ctx is done.
func (t *Tap) RunMaintenance(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed := t.cooldowns.Sweep()
			if removed > 0 {
				logger.Debug("cooldown sweep", zap.Int("removed", removed))
			}
			t.rollSketches(now)
			t.heartbeat(ctx)
		}
	}
}

type heartbeatPayload struct {
	TS          int64 `json:"ts"`
	QueueDepth  int   `json:"queue_depth"`
	QueueDrops  int64 `json:"queue_drops"`
	Flushed     int64 `json:"flushed"`
	Cooldowns   int   `json:"cooldowns"`
	RecentFails int   `json:"recent_fails"`
}

func (t *Tap) heartbeat(ctx context.Context) {
	hctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	p := heartbeatPayload{
		TS:          time.Now().Unix(),
		QueueDepth:  t.writer.Depth(),
		QueueDrops:  t.writer.Dropped(),
		Flushed:     t.writer.Flushed(),
		Cooldowns:   t.cooldowns.Len(),
		RecentFails: len(t.errs.Recent()),
	}
	if err := t.store.WriteHeartbeat(hctx, p); err != nil {
		logger.Warn("heartbeat write failed", zap.Error(err))
	}
}

// rollSketches resets the heavy-hitter sketches when the UTC day changes.
func (t *Tap) rollSketches(now time.Time) {
	day := storage.DayKey(now)

	t.mu.Lock()
	defer t.mu.Unlock()
	if day == t.sketchDay {
		return
	}
	t.sketchDay = day
	for _, sk := range t.topUsers {
		sk.Reset()
	}
	for _, sk := range t.topChannels {
		sk.Reset()
	}
}

type guildSketches struct {
	user    *spaceSaving
	channel *spaceSaving
}

func (t *Tap) sketchFor(guildID string) guildSketches {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.topUsers[guildID]
	if !ok {
		u = newSpaceSaving(t.cfg.TopK)
		t.topUsers[guildID] = u
	}
	c, ok := t.topChannels[guildID]
	if !ok {
		c = newSpaceSaving(t.cfg.TopK)
		t.topChannels[guildID] = c
	}
	return guildSketches{user: u, channel: c}
}

// enqueueDAU pushes one DAU contribution through the local cooldown into the
// aggregation writer. Queue overflow is counted by the writer itself.
func (t *Tap) enqueueDAU(guildID, userID string, at time.Time) {
	day := storage.DayKey(at)
	if !t.cooldowns.Allow(guildID + ":" + userID + ":" + day) {
		return
	}
	if !t.writer.Enqueue(storage.DAUEntry{GuildID: guildID, UserID: userID, Day: day}) {
		t.errs.Add(guildID, "dau queue full")
	}
}

// grantXP awards a uniform random amount in [XPMin, XPMax]; the per-user
// cooldown check runs atomically inside Redis.
func (t *Tap) grantXP(ctx context.Context, guildID, userID string) {
	span := t.cfg.XPMax - t.cfg.XPMin + 1
	amount := t.cfg.XPMin
	if span > 1 {
		amount += t.rand(span)
	}
	if _, err := t.store.TryGrantXP(ctx, guildID, userID, amount); err != nil {
		t.fail(guildID, "grant xp", err)
	}
}

func (t *Tap) channelName(s *discordgo.Session, channelID string) string {
	if s != nil && s.State != nil {
		if ch, err := s.State.Channel(channelID); err == nil && ch.Name != "" {
			return ch.Name
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return t.store.GetChannelName(ctx, channelID)
}

func (t *Tap) fail(guildID, op string, err error) {
	t.errs.Add(guildID, op+": "+err.Error())
	logger.Error("tap "+op, zap.String("guild", guildID), zap.Error(err))
}

// auditAction maps a Discord audit log entry onto the internal action type.
// Member updates only count when they carry a timeout change.
func auditAction(action discordgo.AuditLogAction, changes []*discordgo.AuditLogChange) string {
	switch action {
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
	case discordgo.AuditLogActionMemberUpdate:
		for _, ch := range changes {
			if ch != nil && ch.Key != nil && strings.Contains(string(*ch.Key), "communication_disabled") {
				return storage.ActionTimeout
			}
		}
	}
	return ""
}
