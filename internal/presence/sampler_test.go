package presence

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestSnapshotCountsOnline(t *testing.T) {
	g := &discordgo.Guild{
		ID:          "g1",
		MemberCount: 120,
		Presences: []*discordgo.Presence{
			{Status: discordgo.StatusOnline},
			{Status: discordgo.StatusIdle},
			{Status: discordgo.StatusDoNotDisturb},
			{Status: discordgo.StatusOffline},
			{Status: discordgo.StatusInvisible},
			nil,
		},
		VerificationLevel:     discordgo.VerificationLevelHigh,
		MfaLevel:              discordgo.MfaLevelElevated,
		ExplicitContentFilter: discordgo.ExplicitContentFilterAllMembers,
	}

	snap := snapshot(g)

	assert.Equal(t, "g1", snap.GuildID)
	assert.Equal(t, 3, snap.Online)
	assert.Equal(t, 120, snap.Total)
	assert.Equal(t, 3, snap.VerificationLevel)
	assert.Equal(t, 1, snap.MFALevel)
	assert.Equal(t, 2, snap.ExplicitFilter)
}

func TestSnapshotEmptyGuild(t *testing.T) {
	snap := snapshot(&discordgo.Guild{ID: "g2"})
	assert.Zero(t, snap.Online)
	assert.Zero(t, snap.Total)
}
