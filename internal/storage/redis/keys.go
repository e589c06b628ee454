package redis

import (
	"fmt"
	"time"
)

// Key prefix constants. Every structure the platform stores lives under one
// of these; the builder functions below are the only place key strings are
// assembled.
const (
	// Daily unique users (HyperLogLog)
	PrefixDAU = "hll:dau:"

	// Message aggregates
	PrefixHourly        = "stats:hourly:"
	PrefixHeatmap       = "stats:heatmap:"
	PrefixMsgLen        = "stats:msglen:"
	PrefixTotalMsgs     = "stats:total_msgs:"
	PrefixChannelDaily  = "stats:channel:"
	PrefixChannelTotal  = "stats:channel_total:"
	PrefixChannelHourly = "stats:channel_hourly:"
	PrefixUserDaily     = "stats:user_daily:"
	PrefixCommands      = "stats:commands:"
	PrefixJoins         = "stats:joins:"
	PrefixLeaves        = "stats:leaves:"
	PrefixDayScore      = "stats:day:"

	// Leaderboards
	PrefixMsgLeaderboard = "leaderboard:messages:"
	PrefixMsgLenSamples  = "leaderboard:msg_lengths:"

	// Moderator-activity event streams
	PrefixEventsMsg    = "events:msg:"
	PrefixEventsVoice  = "events:voice:"
	PrefixEventsAction = "events:action:"

	// Caches
	PrefixUserInfo    = "user:info:"
	PrefixGuildRoles  = "guild:roles:"
	PrefixChannelInfo = "channel:info:"
	PrefixQueryCache  = "cache:query:"

	// Presence and guild settings
	PrefixPresenceOnline    = "presence:online:"
	PrefixPresenceTotal     = "presence:total:"
	PrefixVerificationLevel = "guild:verification_level:"
	PrefixMFALevel          = "guild:mfa_level:"
	PrefixExplicitFilter    = "guild:explicit_filter:"

	// XP ledger
	PrefixXP         = "levels:xp:"
	PrefixXPCooldown = "levels:cooldown:"

	// Cross-replica locks
	PrefixMsgLock   = "lock:msg:"
	PrefixVoiceLock = "lock:voice:"

	// Versioned configuration
	KeyActionWeights   = "config:action_weights"
	KeySecurityWeights = "config:security_weights"
	KeySecurityIdeals  = "config:security_ideals"
	KeyXPFormula       = "config:xp_formula"
	KeyWeightsVersion  = "config:weights_version"

	// Registry, heartbeat, backfill
	KeyGuildRegistry   = "bot:guilds"
	KeyHeartbeat       = "bot:heartbeat"
	PrefixAnlogChannel = "bot:anlog:"
	PrefixBackfill     = "backfill:progress:"
	PrefixTempUnion    = "tmp:zunion:"
	PrefixDashTeam     = "dashboard:team:"
	PrefixDashPerms    = "dashboard:perms:"
	PrefixSession      = "session:"
	PrefixOTPCode      = "otp:code:"
	PrefixOTPSends     = "otp:sends:"
	PrefixOTPTries     = "otp:tries:"

	// Monitor
	PrefixMonitorState = "monitor:state:"
	PrefixMonitorAlert = "monitor:last_alert:"
	KeyMonitorStatus   = "monitoring:status"
	PrefixMonitorHist  = "monitoring:history:"
)

// TTL constants.
const (
	TTLDAURetention = 40 * 24 * time.Hour // overridden by config at write time
	TTLDailyStats   = 60 * 24 * time.Hour
	TTLHeatmap      = 60 * 24 * time.Hour
	TTLMsgLenList   = 30 * 24 * time.Hour
	TTLUserInfo     = 7 * 24 * time.Hour
	TTLPresence     = 60 * time.Second
	TTLXPCooldown   = 60 * time.Second
	TTLMsgLock      = 10 * time.Second
	TTLVoiceLock    = 60 * time.Second
	TTLTempUnion    = 60 * time.Second
	TTLAlertGate    = 24 * time.Hour
	TTLDayScore     = 60 * 24 * time.Hour
)

// Capacity constants.
const (
	// MsgLenSampleCap bounds the per-user recent length list.
	MsgLenSampleCap = 100
	// MonitorHistoryCap bounds per-service probe history (~24h at 1/min).
	MonitorHistoryCap = 1440
)

// DAUKey returns the HyperLogLog for one guild day (day in YYYYMMDD, UTC).
func DAUKey(guildID, day string) string {
	return fmt.Sprintf("%s%s:%s", PrefixDAU, guildID, day)
}

// HourlyKey returns the per-day hour→count hash.
func HourlyKey(guildID, day string) string {
	return fmt.Sprintf("%s%s:%s", PrefixHourly, guildID, day)
}

// HeatmapKey returns the long-lived weekday_hour→count hash.
func HeatmapKey(guildID string) string {
	return PrefixHeatmap + guildID
}

// MsgLenKey returns the message-length histogram ZSET.
func MsgLenKey(guildID string) string {
	return PrefixMsgLen + guildID
}

// TotalMsgsKey returns the cumulative message counter.
func TotalMsgsKey(guildID string) string {
	return PrefixTotalMsgs + guildID
}

// ChannelDailyKey returns the per-channel daily counter.
func ChannelDailyKey(guildID, channelID, day string) string {
	return fmt.Sprintf("%s%s:%s:%s", PrefixChannelDaily, guildID, channelID, day)
}

// ChannelTotalKey returns the channel→total ZSET.
func ChannelTotalKey(guildID string) string {
	return PrefixChannelTotal + guildID
}

// ChannelHourlyKey returns the per-channel hour→count hash.
func ChannelHourlyKey(guildID, channelID string) string {
	return fmt.Sprintf("%s%s:%s", PrefixChannelHourly, guildID, channelID)
}

// UserDailyKey returns the per-day user→count ZSET.
func UserDailyKey(guildID, day string) string {
	return fmt.Sprintf("%s%s:%s", PrefixUserDaily, guildID, day)
}

// MsgLeaderboardKey returns the all-time user message ZSET.
func MsgLeaderboardKey(guildID string) string {
	return PrefixMsgLeaderboard + guildID
}

// MsgLenSamplesKey returns the capped per-user length sample list.
func MsgLenSamplesKey(guildID, userID string) string {
	return fmt.Sprintf("%s%s:%s", PrefixMsgLenSamples, guildID, userID)
}

// JoinsKey / LeavesKey return the monthly join/leave hashes.
func JoinsKey(guildID string) string  { return PrefixJoins + guildID }
func LeavesKey(guildID string) string { return PrefixLeaves + guildID }

// CommandStatsKey returns the command→invocation-count hash.
func CommandStatsKey(guildID string) string { return PrefixCommands + guildID }

// AnlogChannelKey returns the per-guild heartbeat-embed channel binding.
func AnlogChannelKey(guildID string) string { return PrefixAnlogChannel + guildID }

// EventsMsgKey returns the per-user message event stream ZSET.
func EventsMsgKey(guildID, userID string) string {
	return fmt.Sprintf("%s%s:%s", PrefixEventsMsg, guildID, userID)
}

// EventsVoiceKey returns the per-user voice event stream ZSET.
func EventsVoiceKey(guildID, userID string) string {
	return fmt.Sprintf("%s%s:%s", PrefixEventsVoice, guildID, userID)
}

// EventsActionKey returns the per-user moderation action stream ZSET.
func EventsActionKey(guildID, userID string) string {
	return fmt.Sprintf("%s%s:%s", PrefixEventsAction, guildID, userID)
}

// DayScoreKey returns the versioned per-day weighted-score cache hash
// (day in YYYY-MM-DD).
func DayScoreKey(guildID, userID, day string) string {
	return fmt.Sprintf("%s%s:%s:%s", PrefixDayScore, day, guildID, userID)
}

// UserInfoKey returns the cached profile hash.
func UserInfoKey(userID string) string { return PrefixUserInfo + userID }

// GuildRolesKey returns the cached role-name hash.
func GuildRolesKey(guildID string) string { return PrefixGuildRoles + guildID }

// ChannelInfoKey returns the cached channel-name key.
func ChannelInfoKey(channelID string) string { return PrefixChannelInfo + channelID }

// Presence keys.
func PresenceOnlineKey(guildID string) string    { return PrefixPresenceOnline + guildID }
func PresenceTotalKey(guildID string) string     { return PrefixPresenceTotal + guildID }
func VerificationLevelKey(guildID string) string { return PrefixVerificationLevel + guildID }
func MFALevelKey(guildID string) string          { return PrefixMFALevel + guildID }
func ExplicitFilterKey(guildID string) string    { return PrefixExplicitFilter + guildID }

// XPKey returns the XP ledger ZSET.
func XPKey(guildID string) string { return PrefixXP + guildID }

// XPCooldownKey returns the per-user XP grant gate.
func XPCooldownKey(guildID, userID string) string {
	return fmt.Sprintf("%s%s:%s", PrefixXPCooldown, guildID, userID)
}

// MsgLockKey returns the cross-replica message dedup lock.
func MsgLockKey(messageID string) string { return PrefixMsgLock + messageID }

// VoiceLockKey returns the voice-session dedup lock.
func VoiceLockKey(userID string, sessionStart int64) string {
	return fmt.Sprintf("%s%s:%d", PrefixVoiceLock, userID, sessionStart)
}

// BackfillProgressKey returns the per-guild backfill progress key.
func BackfillProgressKey(guildID string) string { return PrefixBackfill + guildID }

// MonitorStateKey / MonitorAlertKey / MonitorHistoryKey per service.
func MonitorStateKey(name string) string   { return PrefixMonitorState + name }
func MonitorAlertKey(name string) string   { return PrefixMonitorAlert + name }
func MonitorHistoryKey(name string) string { return PrefixMonitorHist + name }

// DashTeamKey / DashPermsKey return the dashboard authorization sets.
func DashTeamKey(guildID string) string { return PrefixDashTeam + guildID }
func DashPermsKey(guildID, userID string) string {
	return fmt.Sprintf("%s%s:%s", PrefixDashPerms, guildID, userID)
}

// SessionKey returns the server-side session record key.
func SessionKey(ref string) string { return PrefixSession + ref }

// OTP keys, all scoped by email.
func OTPCodeKey(email string) string  { return PrefixOTPCode + email }
func OTPSendsKey(email string) string { return PrefixOTPSends + email }
func OTPTriesKey(email string) string { return PrefixOTPTries + email }

// GuildStatPrefixes lists the key patterns the backfill preflight clears for
// one guild. Event streams and leaderboards are included: backfill rebuilds
// them wholesale.
func GuildStatPrefixes(guildID string) []string {
	return []string{
		PrefixDAU + guildID + ":*",
		PrefixHourly + guildID + ":*",
		PrefixHeatmap + guildID,
		PrefixMsgLen + guildID,
		PrefixTotalMsgs + guildID,
		PrefixChannelDaily + guildID + ":*",
		PrefixChannelTotal + guildID,
		PrefixChannelHourly + guildID + ":*",
		PrefixUserDaily + guildID + ":*",
		PrefixMsgLeaderboard + guildID,
		PrefixMsgLenSamples + guildID + ":*",
		PrefixEventsMsg + guildID + ":*",
		PrefixEventsVoice + guildID + ":*",
		PrefixEventsAction + guildID + ":*",
		PrefixXP + guildID,
		PrefixJoins + guildID,
	}
}
