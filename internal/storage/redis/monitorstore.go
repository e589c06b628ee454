package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ServiceState is the persisted per-service monitor record.
type ServiceState struct {
	Name            string  `json:"name"`
	Status          string  `json:"status"` // "UP" or "DOWN"
	Strikes         int     `json:"strikes"`
	RecoveryStrikes int     `json:"recovery_strikes"`
	TotalChecks     int64   `json:"total_checks"`
	UpChecks        int64   `json:"up_checks"`
	LastLatencyMs   int64   `json:"last_latency"`
	SSLDaysLeft     int     `json:"ssl_days,omitempty"`
	LastCheck       int64   `json:"last_check"`
}

// ProbeSample is one history entry per check.
type ProbeSample struct {
	TS        int64 `json:"ts"`
	OK        bool  `json:"ok"`
	LatencyMs int64 `json:"latency_ms"`
}

// LoadServiceState reads a persisted state; nil when the service is new.
func (c *Client) LoadServiceState(ctx context.Context, name string) (*ServiceState, error) {
	raw, err := c.Get(ctx, MonitorStateKey(name))
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var s ServiceState
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("failed to decode monitor state for %s: %w", name, err)
	}
	return &s, nil
}

// SaveServiceState persists one service state and appends its history
// sample, trimming the history to the cap.
func (c *Client) SaveServiceState(ctx context.Context, s ServiceState, sample ProbeSample, historyCap int) error {
	client, err := c.GetClientSafe()
	if err != nil {
		return err
	}

	statePayload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode monitor state: %w", err)
	}
	samplePayload, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to encode probe sample: %w", err)
	}

	histKey := MonitorHistoryKey(s.Name)
	pipe := client.Pipeline()
	pipe.Set(ctx, MonitorStateKey(s.Name), statePayload, 0)
	pipe.LPush(ctx, histKey, samplePayload)
	pipe.LTrim(ctx, histKey, 0, int64(historyCap-1))
	_, err = pipe.Exec(ctx)
	return err
}

// PublishMonitorSnapshot writes the composite status the dashboard renders.
func (c *Client) PublishMonitorSnapshot(ctx context.Context, states []ServiceState) error {
	snapshot := map[string]interface{}{
		"updated":  time.Now().Unix(),
		"services": states,
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode monitor snapshot: %w", err)
	}
	return c.Set(ctx, KeyMonitorStatus, payload, 0)
}

// TryArmAlert writes the alert-cooldown timestamp if none is active. The
// timestamp goes in before the alert is posted so a crash between the two
// suppresses a duplicate rather than producing one.
func (c *Client) TryArmAlert(ctx context.Context, name string, cooldown time.Duration) (bool, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return false, err
	}

	key := MonitorAlertKey(name)
	last, err := client.Get(ctx, key).Result()
	if err != nil && err != goredis.Nil {
		return false, err
	}
	if err == nil {
		if time.Since(time.Unix(parseInt64(last), 0)) < cooldown {
			return false, nil
		}
	}

	return true, client.Set(ctx, key, time.Now().Unix(), TTLAlertGate).Err()
}

// ServiceHistory returns the newest-first probe samples of one service.
func (c *Client) ServiceHistory(ctx context.Context, name string, limit int64) ([]ProbeSample, error) {
	client, err := c.GetClientSafe()
	if err != nil {
		return nil, err
	}
	raw, err := client.LRange(ctx, MonitorHistoryKey(name), 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	samples := make([]ProbeSample, 0, len(raw))
	for _, r := range raw {
		var s ProbeSample
		if err := json.Unmarshal([]byte(r), &s); err != nil {
			continue
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// WriteHeartbeat publishes the bot heartbeat the monitor's heartbeat probe
// and the status page read.
func (c *Client) WriteHeartbeat(ctx context.Context, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode heartbeat: %w", err)
	}
	return c.Set(ctx, KeyHeartbeat, data, 0)
}

// HeartbeatAge returns how stale the bot heartbeat is; ok is false when no
// heartbeat was ever written.
func (c *Client) HeartbeatAge(ctx context.Context) (time.Duration, bool, error) {
	raw, err := c.Get(ctx, KeyHeartbeat)
	if err != nil {
		if err == goredis.Nil {
			return 0, false, nil
		}
		return 0, false, err
	}
	var hb struct {
		TS int64 `json:"ts"`
	}
	if err := json.Unmarshal([]byte(raw), &hb); err != nil || hb.TS == 0 {
		return 0, false, nil
	}
	return time.Since(time.Unix(hb.TS, 0)), true, nil
}
