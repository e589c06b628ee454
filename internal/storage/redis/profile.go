package redis

import (
	"context"
	"strconv"
)

// UserProfile is the cached identity the dashboard renders next to stats.
type UserProfile struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Roles  string `json:"roles,omitempty"`
}

// CacheUserProfile stores a profile for 7 days.
func (c *Client) CacheUserProfile(ctx context.Context, userID string, p UserProfile) error {
	client, err := c.GetClientSafe()
	if err != nil {
		return err
	}
	key := UserInfoKey(userID)
	pipe := client.Pipeline()
	pipe.HSet(ctx, key, "name", p.Name, "avatar", p.Avatar, "roles", p.Roles)
	pipe.Expire(ctx, key, TTLUserInfo)
	_, err = pipe.Exec(ctx)
	return err
}

// GetUserProfile returns the cached profile; zero value when absent.
func (c *Client) GetUserProfile(ctx context.Context, userID string) (UserProfile, error) {
	data, err := c.HGetAll(ctx, UserInfoKey(userID))
	if err != nil {
		return UserProfile{}, err
	}
	return UserProfile{
		Name:   data["name"],
		Avatar: data["avatar"],
		Roles:  data["roles"],
	}, nil
}

// CacheGuildRoles stores the role id→name map for a guild.
func (c *Client) CacheGuildRoles(ctx context.Context, guildID string, roles map[string]string) error {
	if len(roles) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(roles)*2)
	for id, name := range roles {
		values = append(values, id, name)
	}
	return c.HSet(ctx, GuildRolesKey(guildID), values...)
}

// GetChannelName returns the cached channel name, "" when unknown.
func (c *Client) GetChannelName(ctx context.Context, channelID string) string {
	name, err := c.Get(ctx, ChannelInfoKey(channelID))
	if err != nil {
		return ""
	}
	return name
}

// CacheChannelName stores a channel name without a TTL.
func (c *Client) CacheChannelName(ctx context.Context, channelID, name string) error {
	return c.Set(ctx, ChannelInfoKey(channelID), name, 0)
}

// AvgMsgLength computes the mean of one user's recent length samples.
func (c *Client) AvgMsgLength(ctx context.Context, guildID, userID string) (float64, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return 0, err
	}
	samples, err := client.LRange(ctx, MsgLenSamplesKey(guildID, userID), 0, -1).Result()
	if err != nil || len(samples) == 0 {
		return 0, err
	}
	var sum int64
	var n int64
	for _, s := range samples {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}
