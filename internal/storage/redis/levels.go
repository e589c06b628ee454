package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
)

// XPFormula is the quadratic level curve a*L^2 + b*L + c = XP. The live
// values are read from config:xp_formula so they can be tuned without a
// deploy; absent fields fall back to the defaults.
type XPFormula struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
}

// DefaultXPFormula matches the levels the community has always used.
var DefaultXPFormula = XPFormula{A: 5, B: 50, C: 100}

// TryGrantXP atomically checks the per-user cooldown and, if absent, adds
// amount XP and arms the cooldown. Returns whether XP was granted.
const luaGrantXP = `
local cooldownKey = KEYS[1]
local xpKey = KEYS[2]
local userId = ARGV[1]
local amount = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

if redis.call('EXISTS', cooldownKey) == 1 then
    return 0
end

redis.call('ZINCRBY', xpKey, amount, userId)
redis.call('SET', cooldownKey, '1', 'EX', ttl)
return 1
`

func (c *Client) TryGrantXP(ctx context.Context, guildID, userID string, amount int) (bool, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return false, err
	}

	result, err := client.Eval(ctx, luaGrantXP,
		[]string{XPCooldownKey(guildID, userID), XPKey(guildID)},
		userID, amount, int(TTLXPCooldown.Seconds())).Result()
	if err != nil {
		return false, err
	}

	granted, _ := result.(int64)
	return granted == 1, nil
}

// SetXP overwrites one user's total; used by the XP backfill replay.
func (c *Client) SetXP(ctx context.Context, guildID, userID string, total int64) error {
	client, err := c.GetClientSafe()
	if err != nil {
		return err
	}
	return client.ZAdd(ctx, XPKey(guildID), goredis.Z{
		Score:  float64(total),
		Member: userID,
	}).Err()
}

// GetXP returns one user's total XP (0 when unranked).
func (c *Client) GetXP(ctx context.Context, guildID, userID string) (int64, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return 0, err
	}
	score, err := client.ZScore(ctx, XPKey(guildID), userID).Result()
	if err == goredis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return int64(score), nil
}

// XPTop returns the top-n XP holders.
func (c *Client) XPTop(ctx context.Context, guildID string, n int64) ([]goredis.Z, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return nil, err
	}
	return client.ZRevRangeWithScores(ctx, XPKey(guildID), 0, n-1).Result()
}

// GetXPFormula reads the live level curve, falling back to defaults.
func (c *Client) GetXPFormula(ctx context.Context) (XPFormula, error) {
	data, err := c.HGetAll(ctx, KeyXPFormula)
	if err != nil {
		return DefaultXPFormula, err
	}
	if len(data) == 0 {
		return DefaultXPFormula, nil
	}
	formula := DefaultXPFormula
	if v := parseFloat64(data["a"]); v != 0 {
		formula.A = v
	}
	if v := parseFloat64(data["b"]); v != 0 {
		formula.B = v
	}
	if v := parseFloat64(data["c"]); v != 0 {
		formula.C = v
	}
	return formula, nil
}
