package tap

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

func TestVoiceTrackerJoinLeave(t *testing.T) {
	now := time.Unix(5000, 0)
	vt := newVoiceTracker()
	vt.now = func() time.Time { return now }

	vt.Join("g", "u")
	now = now.Add(7 * time.Minute)

	start, dur, ok := vt.Leave("g", "u")
	assert.True(t, ok)
	assert.Equal(t, time.Unix(5000, 0), start)
	assert.Equal(t, 7*time.Minute, dur)

	_, _, ok = vt.Leave("g", "u")
	assert.False(t, ok)
}

func TestVoiceTrackerChannelMoveKeepsStart(t *testing.T) {
	now := time.Unix(5000, 0)
	vt := newVoiceTracker()
	vt.now = func() time.Time { return now }

	vt.Join("g", "u")
	now = now.Add(3 * time.Minute)
	vt.Join("g", "u") // moved rooms
	now = now.Add(3 * time.Minute)

	_, dur, ok := vt.Leave("g", "u")
	assert.True(t, ok)
	assert.Equal(t, 6*time.Minute, dur)
}

func TestVoiceTrackerLeaveWithoutJoin(t *testing.T) {
	vt := newVoiceTracker()
	_, _, ok := vt.Leave("g", "u")
	assert.False(t, ok)
}

func TestAuditEventCarriesGuildAndActor(t *testing.T) {
	// HandleAuditLog keys the action stream by guild and acting moderator,
	// both read straight off the gateway event.
	action := discordgo.AuditLogActionMemberBanAdd
	e := &discordgo.GuildAuditLogEntryCreate{
		AuditLogEntry: &discordgo.AuditLogEntry{
			UserID:     "mod1",
			TargetID:   "victim1",
			ActionType: &action,
		},
		GuildID: "g1",
	}

	assert.Equal(t, "g1", e.GuildID)
	assert.Equal(t, "mod1", e.UserID)
	require.NotNil(t, e.ActionType)
	assert.Equal(t, storage.ActionBan, auditAction(*e.ActionType, e.Changes))
}

func TestAuditActionMapping(t *testing.T) {
	timeoutKey := discordgo.AuditLogChangeKeyCommunicationDisabledUntil
	otherKey := discordgo.AuditLogChangeKeyNick

	tests := []struct {
		name    string
		action  discordgo.AuditLogAction
		changes []*discordgo.AuditLogChange
		want    string
	}{
		{"ban", discordgo.AuditLogActionMemberBanAdd, nil, storage.ActionBan},
		{"unban", discordgo.AuditLogActionMemberBanRemove, nil, storage.ActionUnban},
		{"kick", discordgo.AuditLogActionMemberKick, nil, storage.ActionKick},
		{"role update", discordgo.AuditLogActionMemberRoleUpdate, nil, storage.ActionRoleUpdate},
		{"message delete", discordgo.AuditLogActionMessageDelete, nil, storage.ActionMsgDelete},
		{"bulk delete", discordgo.AuditLogActionMessageBulkDelete, nil, storage.ActionMsgDelete},
		{
			"timeout",
			discordgo.AuditLogActionMemberUpdate,
			[]*discordgo.AuditLogChange{{Key: &timeoutKey}},
			storage.ActionTimeout,
		},
		{
			"plain member update ignored",
			discordgo.AuditLogActionMemberUpdate,
			[]*discordgo.AuditLogChange{{Key: &otherKey}},
			"",
		},
		{"channel create ignored", discordgo.AuditLogActionChannelCreate, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auditAction(tt.action, tt.changes))
		})
	}
}
