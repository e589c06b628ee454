package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Moderator-activity event records. Score is the UNIX timestamp, member is
// the JSON payload; message content itself is never stored.

// MsgEvent is one message observation: length and whether it was a reply.
type MsgEvent struct {
	Len   int  `json:"len"`
	Reply bool `json:"reply"`
}

// VoiceEvent is one completed voice session.
type VoiceEvent struct {
	Duration int64 `json:"duration"` // seconds
	TS       int64 `json:"ts"`       // session start
}

// ActionEvent is one moderation action.
type ActionEvent struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

// Moderation action types.
const (
	ActionBan          = "ban"
	ActionKick         = "kick"
	ActionUnban        = "unban"
	ActionTimeout      = "timeout"
	ActionRoleUpdate   = "role_update"
	ActionMsgDelete    = "msg_delete"
	ActionVerification = "verification"
)

// AppendMsgEvent records a message event at ts.
func (c *Client) AppendMsgEvent(ctx context.Context, guildID, userID string, ev MsgEvent, ts time.Time) error {
	return c.appendEvent(ctx, EventsMsgKey(guildID, userID), ev, ts.Unix())
}

// AppendVoiceEvent records a completed voice session, scored by its start.
func (c *Client) AppendVoiceEvent(ctx context.Context, guildID, userID string, ev VoiceEvent) error {
	return c.appendEvent(ctx, EventsVoiceKey(guildID, userID), ev, ev.TS)
}

// AppendActionEvent records a moderation action at ts.
func (c *Client) AppendActionEvent(ctx context.Context, guildID, userID string, ev ActionEvent, ts time.Time) error {
	return c.appendEvent(ctx, EventsActionKey(guildID, userID), ev, ts.Unix())
}

func (c *Client) appendEvent(ctx context.Context, key string, ev interface{}, score int64) error {
	client, err := c.GetClientSafe()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return client.ZAdd(ctx, key, goredis.Z{Score: float64(score), Member: string(payload)}).Err()
}

// rangeByTime fetches raw members of a stream within [start, end].
func (c *Client) rangeByTime(ctx context.Context, key string, start, end time.Time) ([]string, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return nil, err
	}
	return client.ZRangeByScore(ctx, key, &goredis.ZRangeBy{
		Min: strconv.FormatInt(start.Unix(), 10),
		Max: strconv.FormatInt(end.Unix(), 10),
	}).Result()
}

// MsgEventsInWindow decodes the message events of one user in a window.
func (c *Client) MsgEventsInWindow(ctx context.Context, guildID, userID string, start, end time.Time) ([]MsgEvent, error) {
	raw, err := c.rangeByTime(ctx, EventsMsgKey(guildID, userID), start, end)
	if err != nil {
		return nil, err
	}
	events := make([]MsgEvent, 0, len(raw))
	for _, r := range raw {
		var ev MsgEvent
		if err := json.Unmarshal([]byte(r), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// VoiceEventsInWindow decodes the voice events of one user in a window.
func (c *Client) VoiceEventsInWindow(ctx context.Context, guildID, userID string, start, end time.Time) ([]VoiceEvent, error) {
	raw, err := c.rangeByTime(ctx, EventsVoiceKey(guildID, userID), start, end)
	if err != nil {
		return nil, err
	}
	events := make([]VoiceEvent, 0, len(raw))
	for _, r := range raw {
		var ev VoiceEvent
		if err := json.Unmarshal([]byte(r), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// ActionEventsInWindow decodes the moderation actions of one user in a window.
func (c *Client) ActionEventsInWindow(ctx context.Context, guildID, userID string, start, end time.Time) ([]ActionEvent, error) {
	raw, err := c.rangeByTime(ctx, EventsActionKey(guildID, userID), start, end)
	if err != nil {
		return nil, err
	}
	events := make([]ActionEvent, 0, len(raw))
	for _, r := range raw {
		var ev ActionEvent
		if err := json.Unmarshal([]byte(r), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// MsgEventTimestamps returns the raw scores of one user's message stream in
// ascending order; the XP backfill replays these against the cooldown.
func (c *Client) MsgEventTimestamps(ctx context.Context, guildID, userID string) ([]int64, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return nil, err
	}
	zs, err := client.ZRangeWithScores(ctx, EventsMsgKey(guildID, userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	ts := make([]int64, len(zs))
	for i, z := range zs {
		ts[i] = int64(z.Score)
	}
	return ts, nil
}

// EventStreamUserIDs scans one guild's event streams of the given prefix and
// returns the distinct user ids found.
func (c *Client) EventStreamUserIDs(ctx context.Context, prefix, guildID string) ([]string, error) {
	pattern := fmt.Sprintf("%s%s:*", prefix, guildID)
	keys, err := c.ScanKeys(ctx, pattern, 1000)
	if err != nil {
		return nil, err
	}
	users := make([]string, 0, len(keys))
	base := fmt.Sprintf("%s%s:", prefix, guildID)
	for _, key := range keys {
		if len(key) > len(base) {
			users = append(users, key[len(base):])
		}
	}
	return users, nil
}
