package monitor

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

// probeResult is one check outcome.
type probeResult struct {
	OK          bool
	LatencyMs   int64
	SSLDaysLeft int
	Detail      string
}

// prober runs the three check protocols with their timeouts.
type prober struct {
	httpClient *http.Client
	tcpTimeout time.Duration

	store          *storage.Client
	heartbeatStale time.Duration
}

func newProber(store *storage.Client, httpTimeout, tcpTimeout, heartbeatStale time.Duration) *prober {
	return &prober{
		httpClient:     &http.Client{Timeout: httpTimeout},
		tcpTimeout:     tcpTimeout,
		store:          store,
		heartbeatStale: heartbeatStale,
	}
}

func (p *prober) probe(ctx context.Context, svc Service) probeResult {
	switch svc.Type {
	case ServiceHTTP:
		return p.probeHTTP(ctx, svc)
	case ServiceTCP:
		return p.probeTCP(ctx, svc)
	case ServiceHeartbeat:
		return p.probeHeartbeat(ctx)
	default:
		return probeResult{Detail: fmt.Sprintf("unknown service type %q", svc.Type)}
	}
}

// probeHTTP counts 2xx and 3xx as healthy, optionally requiring a keyword in
// the body. HTTPS targets also report certificate days-left.
func (p *prober) probeHTTP(ctx context.Context, svc Service) probeResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.URL, nil)
	if err != nil {
		return probeResult{Detail: err.Error()}
	}

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return probeResult{LatencyMs: latency, Detail: err.Error()}
	}
	defer resp.Body.Close()

	result := probeResult{LatencyMs: latency}
	if resp.TLS != nil && len(resp.TLS.PeerCertificates) > 0 {
		result.SSLDaysLeft = certDaysLeft(resp.TLS, time.Now())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		result.Detail = fmt.Sprintf("status %d", resp.StatusCode)
		return result
	}

	if svc.Keyword != "" {
		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			result.Detail = err.Error()
			return result
		}
		if !strings.Contains(string(body), svc.Keyword) {
			result.Detail = "keyword not found"
			return result
		}
	}

	result.OK = true
	return result
}

func certDaysLeft(state *tls.ConnectionState, now time.Time) int {
	leaf := state.PeerCertificates[0]
	return int(leaf.NotAfter.Sub(now).Hours() / 24)
}

func (p *prober) probeTCP(ctx context.Context, svc Service) probeResult {
	dialer := net.Dialer{Timeout: p.tcpTimeout}
	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", svc.Address())
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return probeResult{LatencyMs: latency, Detail: err.Error()}
	}
	conn.Close()
	return probeResult{OK: true, LatencyMs: latency}
}

// probeHeartbeat checks the bot's liveness key against the staleness
// threshold. A missing heartbeat counts as down.
func (p *prober) probeHeartbeat(ctx context.Context) probeResult {
	age, ok, err := p.store.HeartbeatAge(ctx)
	if err != nil {
		return probeResult{Detail: err.Error()}
	}
	if !ok {
		return probeResult{Detail: "no heartbeat recorded"}
	}
	if age > p.heartbeatStale {
		return probeResult{Detail: fmt.Sprintf("heartbeat stale for %s", age.Round(time.Second))}
	}
	return probeResult{OK: true, LatencyMs: age.Milliseconds()}
}
