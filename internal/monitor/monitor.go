package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/guildpulse/guildpulse-go/internal/config"
	"github.com/guildpulse/guildpulse-go/internal/pkg/logger"
	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

// Service check types.
const (
	ServiceHTTP      = "http"
	ServiceTCP       = "tcp"
	ServiceHeartbeat = "heartbeat"
)

// Service is one monitored endpoint from the services config file.
type Service struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	URL     string `json:"url,omitempty"`
	Host    string `json:"host,omitempty"`
	Port    int    `json:"port,omitempty"`
	Keyword string `json:"keyword,omitempty"`
}

// Address is the TCP dial target.
func (s Service) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadServices reads the static service list.
func LoadServices(path string) ([]Service, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read services config: %w", err)
	}
	var services []Service
	if err := json.Unmarshal(raw, &services); err != nil {
		return nil, fmt.Errorf("failed to parse services config: %w", err)
	}
	for i, svc := range services {
		if svc.Name == "" || svc.Type == "" {
			return nil, fmt.Errorf("services config entry %d missing name or type", i)
		}
	}
	return services, nil
}

// Monitor runs the probe loop against a fixed service list.
type Monitor struct {
	store    *storage.Client
	cfg      config.MonitorConfig
	services []Service
	prober   *prober
	alerter  Alerter
}

func New(store *storage.Client, cfg config.MonitorConfig, services []Service, alerter Alerter) *Monitor {
	return &Monitor{
		store:    store,
		cfg:      cfg,
		services: services,
		prober:   newProber(store, cfg.HTTPTimeout, cfg.TCPTimeout, cfg.HeartbeatStale),
		alerter:  alerter,
	}
}

// Run probes every service each interval until ctx is done. The first round
// fires immediately.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.CheckInterval)
	defer ticker.Stop()

	m.checkAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkAll(ctx)
		}
	}
}

func (m *Monitor) checkAll(ctx context.Context) {
	states := make([]storage.ServiceState, 0, len(m.services))
	for _, svc := range m.services {
		state, err := m.checkOne(ctx, svc)
		if err != nil {
			logger.Error("service check failed",
				zap.String("service", svc.Name), zap.Error(err))
			continue
		}
		states = append(states, state)
	}

	if err := m.store.PublishMonitorSnapshot(ctx, states); err != nil {
		logger.Error("monitor snapshot publish failed", zap.Error(err))
	}
}

func (m *Monitor) checkOne(ctx context.Context, svc Service) (storage.ServiceState, error) {
	prev, err := m.store.LoadServiceState(ctx, svc.Name)
	if err != nil {
		return storage.ServiceState{}, err
	}
	state := newState(svc.Name)
	if prev != nil {
		state = *prev
	}

	result := m.prober.probe(ctx, svc)
	if !result.OK {
		logger.Debug("probe failed",
			zap.String("service", svc.Name), zap.String("detail", result.Detail))
	}

	state, alert := applyResult(state, result.OK, m.cfg.StrikeLimit, m.cfg.RecoveryLimit)
	state.LastLatencyMs = result.LatencyMs
	state.LastCheck = time.Now().Unix()
	if result.SSLDaysLeft > 0 {
		state.SSLDaysLeft = result.SSLDaysLeft
	}

	sample := storage.ProbeSample{
		TS:        state.LastCheck,
		OK:        result.OK,
		LatencyMs: result.LatencyMs,
	}
	if err := m.store.SaveServiceState(ctx, state, sample, m.cfg.HistoryMaxSamples); err != nil {
		return state, err
	}

	if alert != "" {
		m.sendAlert(ctx, svc, alert, result)
	}
	return state, nil
}

// sendAlert posts a transition alert behind the persistent cooldown. The
// cooldown timestamp is written before the post, so a failed send is not
// retried until the cooldown lapses.
func (m *Monitor) sendAlert(ctx context.Context, svc Service, transition string, result probeResult) {
	armed, err := m.store.TryArmAlert(ctx, svc.Name, m.cfg.AlertCooldown)
	if err != nil {
		logger.Error("alert gate check failed",
			zap.String("service", svc.Name), zap.Error(err))
		return
	}
	if !armed {
		logger.Info("alert suppressed by cooldown",
			zap.String("service", svc.Name), zap.String("transition", transition))
		return
	}

	if m.alerter == nil {
		return
	}
	if err := m.alerter.Alert(ctx, svc.Name, transition, result.Detail); err != nil {
		logger.Error("alert post failed",
			zap.String("service", svc.Name), zap.Error(err))
	}
}
