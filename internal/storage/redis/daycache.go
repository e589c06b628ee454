package redis

import (
	"context"
	"strconv"
)

// DayScore is one user's cached per-day weighted-activity sums. The version
// field ties the entry to config:weights_version; a mismatch means the
// weights changed after this entry was computed and it must be ignored.
type DayScore struct {
	ChatTime   int64 `json:"chat_time"`
	VoiceTime  int64 `json:"voice_time"`
	ActionTime int64 `json:"action_time"`
	Version    int64 `json:"_version"`
}

// Total is the weighted-seconds sum for the day.
func (d DayScore) Total() int64 {
	return d.ChatTime + d.VoiceTime + d.ActionTime
}

// GetDayScore reads a cache entry. ok is false when the entry is missing or
// tagged with a version other than wantVersion.
func (c *Client) GetDayScore(ctx context.Context, guildID, userID, date string, wantVersion int64) (DayScore, bool, error) {
	data, err := c.HGetAll(ctx, DayScoreKey(guildID, userID, date))
	if err != nil {
		return DayScore{}, false, err
	}
	if len(data) == 0 {
		return DayScore{}, false, nil
	}

	ds := DayScore{
		ChatTime:   parseInt64(data["chat_time"]),
		VoiceTime:  parseInt64(data["voice_time"]),
		ActionTime: parseInt64(data["action_time"]),
		Version:    parseInt64(data["_version"]),
	}
	if ds.Version != wantVersion {
		return DayScore{}, false, nil
	}
	return ds, true, nil
}

// PutDayScore stores a cache entry tagged with its version.
func (c *Client) PutDayScore(ctx context.Context, guildID, userID, date string, ds DayScore) error {
	client, err := c.GetClientSafe()
	if err != nil {
		return err
	}
	key := DayScoreKey(guildID, userID, date)
	pipe := client.Pipeline()
	pipe.HSet(ctx, key,
		"chat_time", strconv.FormatInt(ds.ChatTime, 10),
		"voice_time", strconv.FormatInt(ds.VoiceTime, 10),
		"action_time", strconv.FormatInt(ds.ActionTime, 10),
		"_version", strconv.FormatInt(ds.Version, 10))
	pipe.Expire(ctx, key, TTLDayScore)
	_, err = pipe.Exec(ctx)
	return err
}
