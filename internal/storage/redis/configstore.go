package redis

import (
	"context"
	"strconv"
)

// Default action weights in weighted seconds (spec of the moderator
// activity score). A change through SetActionWeight bumps the weights
// version, invalidating every derived cache tagged with the old one.
var DefaultActionWeights = map[string]int64{
	ActionBan:          300,
	ActionKick:         180,
	ActionTimeout:      180,
	ActionUnban:        120,
	ActionVerification: 120,
	ActionMsgDelete:    60,
	ActionRoleUpdate:   30,
	"chat_time":        1,
	"voice_time":       1,
}

// DefaultSecurityWeights split the security score between its four
// components; they always sum to 100.
var DefaultSecurityWeights = map[string]int64{
	"moderators": 25,
	"settings":   25,
	"engagement": 25,
	"moderation": 25,
}

// DefaultSecurityIdeals are the targets the components normalize against.
var DefaultSecurityIdeals = map[string]float64{
	"users_per_mod_min":   10,
	"users_per_mod_max":   50,
	"verification_level":  2,
	"participation_ratio": 0.25,
	"reply_ratio":         0.3,
	"voice_ratio":         0.5,
	"actions_per_100_min": 1,
	"actions_per_100_max": 10,
}

// GetActionWeights returns the live action weights merged over the defaults.
func (c *Client) GetActionWeights(ctx context.Context) (map[string]int64, error) {
	data, err := c.HGetAll(ctx, KeyActionWeights)
	if err != nil {
		return nil, err
	}
	weights := make(map[string]int64, len(DefaultActionWeights))
	for k, v := range DefaultActionWeights {
		weights[k] = v
	}
	for k, v := range data {
		weights[k] = parseInt64(v)
	}
	return weights, nil
}

// SetActionWeight updates one weight and bumps the weights version in a
// transaction so no reader can observe the new weight under the old version.
func (c *Client) SetActionWeight(ctx context.Context, action string, weight int64) (int64, error) {
	pipe, err := c.TxPipeline()
	if err != nil {
		return 0, err
	}
	pipe.HSet(ctx, KeyActionWeights, action, weight)
	verCmd := pipe.Incr(ctx, KeyWeightsVersion)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return verCmd.Val(), nil
}

// GetSecurityWeights returns the component split merged over the defaults.
func (c *Client) GetSecurityWeights(ctx context.Context) (map[string]int64, error) {
	data, err := c.HGetAll(ctx, KeySecurityWeights)
	if err != nil {
		return nil, err
	}
	weights := make(map[string]int64, len(DefaultSecurityWeights))
	for k, v := range DefaultSecurityWeights {
		weights[k] = v
	}
	for k, v := range data {
		weights[k] = parseInt64(v)
	}
	return weights, nil
}

// SetSecurityWeight updates one component weight and bumps the version.
func (c *Client) SetSecurityWeight(ctx context.Context, component string, weight int64) (int64, error) {
	pipe, err := c.TxPipeline()
	if err != nil {
		return 0, err
	}
	pipe.HSet(ctx, KeySecurityWeights, component, weight)
	verCmd := pipe.Incr(ctx, KeyWeightsVersion)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return verCmd.Val(), nil
}

// GetSecurityIdeals returns the normalization targets merged over defaults.
func (c *Client) GetSecurityIdeals(ctx context.Context) (map[string]float64, error) {
	data, err := c.HGetAll(ctx, KeySecurityIdeals)
	if err != nil {
		return nil, err
	}
	ideals := make(map[string]float64, len(DefaultSecurityIdeals))
	for k, v := range DefaultSecurityIdeals {
		ideals[k] = v
	}
	for k, v := range data {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			ideals[k] = f
		}
	}
	return ideals, nil
}

// WeightsVersion returns the monotone version derived caches key on.
func (c *Client) WeightsVersion(ctx context.Context) (int64, error) {
	return c.GetInt(ctx, KeyWeightsVersion)
}
