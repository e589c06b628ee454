package redis

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Dashboard roles, most privileged first.
const (
	RoleAdmin = "admin"
	RoleMod   = "mod"
	RoleGuest = "guest"
)

// PermWildcard in a permission set grants everything.
const PermWildcard = "*"

// Session is the server-side session record; the browser cookie holds only
// the signed reference.
type Session struct {
	Ref       string    `json:"ref"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateSession stores a new session and returns its reference.
func (c *Client) CreateSession(ctx context.Context, s Session, ttl time.Duration) (string, error) {
	s.Ref = uuid.New().String()
	s.CreatedAt = time.Now().UTC()

	payload, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}
	if err := c.Set(ctx, SessionKey(s.Ref), payload, ttl); err != nil {
		return "", err
	}
	return s.Ref, nil
}

// GetSession resolves a session reference; nil when absent or expired.
func (c *Client) GetSession(ctx context.Context, ref string) (*Session, error) {
	raw, err := c.Get(ctx, SessionKey(ref))
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}

// DeleteSession logs a session out.
func (c *Client) DeleteSession(ctx context.Context, ref string) error {
	_, err := c.Del(ctx, SessionKey(ref))
	return err
}

// ========== email OTP ==========

// IssueOTP generates a 6-digit code for the email, enforcing the send rate
// limit (maxSends per window). Returns the code, or "" when rate limited.
func (c *Client) IssueOTP(ctx context.Context, email string, ttl, window time.Duration, maxSends int) (string, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return "", err
	}

	sendsKey := OTPSendsKey(email)
	sends, err := client.Incr(ctx, sendsKey).Result()
	if err != nil {
		return "", err
	}
	if sends == 1 {
		client.Expire(ctx, sendsKey, window)
	}
	if sends > int64(maxSends) {
		return "", nil
	}

	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	pipe := client.Pipeline()
	pipe.Set(ctx, OTPCodeKey(email), code, ttl)
	pipe.Del(ctx, OTPTriesKey(email))
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}
	return code, nil
}

// VerifyOTP checks a submitted code, counting attempts. A correct code is
// consumed; after maxTries failures the code is invalidated.
func (c *Client) VerifyOTP(ctx context.Context, email, code string, maxTries int) (bool, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return false, err
	}

	stored, err := client.Get(ctx, OTPCodeKey(email)).Result()
	if err == goredis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if stored == code {
		client.Del(ctx, OTPCodeKey(email), OTPTriesKey(email))
		return true, nil
	}

	tries, err := client.Incr(ctx, OTPTriesKey(email)).Result()
	if err != nil {
		return false, err
	}
	if tries >= int64(maxTries) {
		client.Del(ctx, OTPCodeKey(email), OTPTriesKey(email))
	}
	return false, nil
}

// ========== authorization ==========

// ResolveRole maps a user to a dashboard role for one guild: members of the
// explicit team set are mods, a wildcard or "admin" entry in the permission
// set makes them admin, everyone else is a guest.
func (c *Client) ResolveRole(ctx context.Context, guildID, userID string) (string, error) {
	perms, err := c.SMembers(ctx, DashPermsKey(guildID, userID))
	if err != nil {
		return RoleGuest, err
	}
	for _, p := range perms {
		if p == PermWildcard || p == RoleAdmin {
			return RoleAdmin, nil
		}
	}

	onTeam, err := c.SIsMember(ctx, DashTeamKey(guildID), userID)
	if err != nil {
		return RoleGuest, err
	}
	if onTeam {
		return RoleMod, nil
	}
	return RoleGuest, nil
}

// TeamMembers lists the explicit dashboard team of a guild, used by the
// security score's moderator-ratio component.
func (c *Client) TeamMembers(ctx context.Context, guildID string) ([]string, error) {
	return c.SMembers(ctx, DashTeamKey(guildID))
}
