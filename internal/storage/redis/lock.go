package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/guildpulse/guildpulse-go/internal/pkg/logger"
	"go.uber.org/zap"
)

const (
	// DefaultLockTTL is used when callers pass a non-positive TTL.
	DefaultLockTTL = 30 * time.Second
)

// luaLockRelease deletes a lock only when the caller still owns it.
const luaLockRelease = `
local key = KEYS[1]
local token = ARGV[1]

if redis.call('GET', key) == token then
    return redis.call('DEL', key)
else
    return 0
end
`

// LockResult carries the token needed to release an acquired lock.
type LockResult struct {
	Token   string
	Success bool
}

// AcquireLock takes a distributed lock via SET NX.
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (*LockResult, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return nil, err
	}

	if ttl <= 0 {
		ttl = DefaultLockTTL
	}

	token := uuid.New().String()

	success, err := client.SetNX(ctx, lockKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}

	return &LockResult{Token: token, Success: success}, nil
}

// ReleaseLock releases a lock if the token matches.
func (c *Client) ReleaseLock(ctx context.Context, lockKey, token string) (bool, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return false, err
	}

	result, err := client.Eval(ctx, luaLockRelease, []string{lockKey}, token).Result()
	if err != nil {
		return false, fmt.Errorf("failed to release lock: %w", err)
	}

	resultInt, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected result type from lock release: %T", result)
	}
	released := resultInt == 1
	if !released {
		logger.Warn("Failed to release lock: token mismatch", zap.String("key", lockKey))
	}

	return released, nil
}

// ClaimMessage takes ownership of a message across bot replicas. The lock is
// never released explicitly: its TTL outliving the write burst is what makes
// reprocessing within the window idempotent.
func (c *Client) ClaimMessage(ctx context.Context, messageID string) (bool, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return false, err
	}
	return client.SetNX(ctx, MsgLockKey(messageID), "1", TTLMsgLock).Result()
}

// ClaimVoiceSession guards against two taps recording the same voice leave.
func (c *Client) ClaimVoiceSession(ctx context.Context, userID string, sessionStart int64) (bool, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return false, err
	}
	return client.SetNX(ctx, VoiceLockKey(userID, sessionStart), "1", TTLVoiceLock).Result()
}

// WithLock runs fn while holding lockKey, releasing it afterwards.
func (c *Client) WithLock(ctx context.Context, lockKey string, ttl time.Duration, fn func() error) error {
	result, err := c.AcquireLock(ctx, lockKey, ttl)
	if err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("failed to acquire lock: %s", lockKey)
	}

	defer func() {
		if _, err := c.ReleaseLock(ctx, lockKey, result.Token); err != nil {
			logger.Warn("Lock release failed", zap.String("key", lockKey), zap.Error(err))
		}
	}()

	return fn()
}
