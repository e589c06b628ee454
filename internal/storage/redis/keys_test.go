package redis

import (
	"testing"
	"time"
)

func TestKeyBuilders(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"DAU", DAUKey("g1", "20260120"), "hll:dau:g1:20260120"},
		{"hourly", HourlyKey("g1", "20260120"), "stats:hourly:g1:20260120"},
		{"heatmap", HeatmapKey("g1"), "stats:heatmap:g1"},
		{"msglen", MsgLenKey("g1"), "stats:msglen:g1"},
		{"total msgs", TotalMsgsKey("g1"), "stats:total_msgs:g1"},
		{"channel daily", ChannelDailyKey("g1", "c2", "20260120"), "stats:channel:g1:c2:20260120"},
		{"channel total", ChannelTotalKey("g1"), "stats:channel_total:g1"},
		{"channel hourly", ChannelHourlyKey("g1", "c2"), "stats:channel_hourly:g1:c2"},
		{"user daily", UserDailyKey("g1", "20260120"), "stats:user_daily:g1:20260120"},
		{"leaderboard", MsgLeaderboardKey("g1"), "leaderboard:messages:g1"},
		{"length samples", MsgLenSamplesKey("g1", "u3"), "leaderboard:msg_lengths:g1:u3"},
		{"joins", JoinsKey("g1"), "stats:joins:g1"},
		{"leaves", LeavesKey("g1"), "stats:leaves:g1"},
		{"msg events", EventsMsgKey("g1", "u3"), "events:msg:g1:u3"},
		{"voice events", EventsVoiceKey("g1", "u3"), "events:voice:g1:u3"},
		{"action events", EventsActionKey("g1", "u3"), "events:action:g1:u3"},
		{"day score", DayScoreKey("g1", "u3", "2026-01-20"), "stats:day:2026-01-20:g1:u3"},
		{"user info", UserInfoKey("u3"), "user:info:u3"},
		{"xp", XPKey("g1"), "levels:xp:g1"},
		{"xp cooldown", XPCooldownKey("g1", "u3"), "levels:cooldown:g1:u3"},
		{"msg lock", MsgLockKey("m9"), "lock:msg:m9"},
		{"voice lock", VoiceLockKey("u3", 1700000000), "lock:voice:u3:1700000000"},
		{"backfill progress", BackfillProgressKey("g1"), "backfill:progress:g1"},
		{"monitor state", MonitorStateKey("web"), "monitor:state:web"},
		{"monitor alert", MonitorAlertKey("web"), "monitor:last_alert:web"},
		{"monitor history", MonitorHistoryKey("web"), "monitoring:history:web"},
		{"team", DashTeamKey("g1"), "dashboard:team:g1"},
		{"perms", DashPermsKey("g1", "u3"), "dashboard:perms:g1:u3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}

func TestTTLConstants(t *testing.T) {
	tests := []struct {
		name     string
		constant time.Duration
		expected time.Duration
	}{
		{"DAU retention", TTLDAURetention, 40 * 24 * time.Hour},
		{"daily stats", TTLDailyStats, 60 * 24 * time.Hour},
		{"length samples", TTLMsgLenList, 30 * 24 * time.Hour},
		{"user info", TTLUserInfo, 7 * 24 * time.Hour},
		{"presence", TTLPresence, 60 * time.Second},
		{"XP cooldown", TTLXPCooldown, 60 * time.Second},
		{"message lock", TTLMsgLock, 10 * time.Second},
		{"voice lock", TTLVoiceLock, 60 * time.Second},
		{"alert gate", TTLAlertGate, 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.constant != tt.expected {
				t.Errorf("%s = %v, want %v", tt.name, tt.constant, tt.expected)
			}
		})
	}
}

func TestGuildStatPrefixesCoverEventStreams(t *testing.T) {
	prefixes := GuildStatPrefixes("g1")

	want := []string{
		"events:msg:g1:*",
		"events:voice:g1:*",
		"events:action:g1:*",
		"levels:xp:g1",
	}
	for _, w := range want {
		found := false
		for _, p := range prefixes {
			if p == w {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("GuildStatPrefixes missing %q", w)
		}
	}
}
