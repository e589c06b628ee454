// Package query is the read side of the analytics store. Every public
// method aggregates raw Redis structures into dashboard-shaped results and
// caches them briefly under a key that includes the weights version, so a
// weight change invalidates derived numbers without any explicit flush.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/guildpulse/guildpulse-go/internal/pkg/logger"
	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

// Cache TTLs. Cheap live numbers refresh fast; heavy window scans hold
// longer.
const (
	cacheTTLShort = 60 * time.Second
	cacheTTLLong  = 10 * time.Minute
)

// Params scopes a query to one guild and an inclusive date window. A zero
// Start and End means all-time. RoleID is carried into cache keys for
// role-scoped dashboard views.
type Params struct {
	GuildID string
	Start   time.Time
	End     time.Time
	RoleID  string
}

func (p Params) windowed() bool {
	return !p.Start.IsZero() && !p.End.IsZero()
}

// scannable reports whether the window is set and small enough for a
// per-day key scan. Wider windows fall back to the all-time structures.
func (p Params) scannable() bool {
	return p.windowed() && len(storage.DaysInRange(p.Start, p.End)) <= maxWindowDays
}

// Service answers dashboard queries from the analytics store.
type Service struct {
	store *storage.Client
}

func New(store *storage.Client) *Service {
	return &Service{store: store}
}

// cacheKey builds the query-cache key. The weights version is baked in so
// score-derived results go stale the moment an admin changes a weight.
func (s *Service) cacheKey(ctx context.Context, op string, p Params) string {
	version, err := s.store.WeightsVersion(ctx)
	if err != nil {
		version = -1 // unknown version bypasses older cached entries
	}
	window := "all"
	if p.windowed() {
		window = storage.DayKey(p.Start) + "-" + storage.DayKey(p.End)
	}
	role := p.RoleID
	if role == "" {
		role = "any"
	}
	return fmt.Sprintf("%s%s:%s:%s:%s:v%d",
		storage.PrefixQueryCache, op, p.GuildID, window, role, version)
}

func (s *Service) cacheGet(ctx context.Context, key string, out interface{}) bool {
	raw, err := s.store.Get(ctx, key)
	if err != nil || raw == "" {
		return false
	}
	return json.Unmarshal([]byte(raw), out) == nil
}

func (s *Service) cachePut(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, key, string(raw), ttl); err != nil {
		logger.Debug("query cache write failed", zap.String("key", key), zap.Error(err))
	}
}
