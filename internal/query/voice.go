package query

import (
	"context"
	"math"
	"sort"
	"time"

	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

const voiceTopLimit = 10

// VoiceUser is one user's voice totals over the window.
type VoiceUser struct {
	UserID   string  `json:"user_id"`
	Name     string  `json:"name"`
	Hours    float64 `json:"hours"`
	Sessions int     `json:"sessions"`
}

// VoiceStats is the voice-activity summary for one guild.
type VoiceStats struct {
	TotalHours    float64     `json:"total_hours"`
	TotalSessions int         `json:"total_sessions"`
	ActiveUsers   int         `json:"active_users"`
	AvgSessionMin float64     `json:"avg_session_minutes"`
	TopUsers      []VoiceUser `json:"top_users"`
}

// Voice aggregates completed voice sessions from the per-user event
// streams. Default window is the last 30 days.
func (s *Service) Voice(ctx context.Context, p Params) (*VoiceStats, error) {
	cached := s.cacheKey(ctx, "voice", p)
	var hit VoiceStats
	if s.cacheGet(ctx, cached, &hit) {
		return &hit, nil
	}

	start, end := p.Start, p.End
	if !p.windowed() {
		now := time.Now().UTC()
		start, end = now.AddDate(0, 0, -29), now
	}

	userIDs, err := s.store.EventStreamUserIDs(ctx, storage.PrefixEventsVoice, p.GuildID)
	if err != nil {
		return nil, err
	}

	out := &VoiceStats{TopUsers: []VoiceUser{}}
	var totalSeconds int64
	for _, uid := range userIDs {
		events, err := s.store.VoiceEventsInWindow(ctx, p.GuildID, uid, start, end)
		if err != nil {
			return nil, err
		}
		if len(events) == 0 {
			continue
		}
		var userSeconds int64
		for _, ev := range events {
			userSeconds += ev.Duration
		}
		totalSeconds += userSeconds
		out.TotalSessions += len(events)
		out.TopUsers = append(out.TopUsers, VoiceUser{
			UserID:   uid,
			Hours:    round1(float64(userSeconds) / 3600),
			Sessions: len(events),
		})
	}

	out.ActiveUsers = len(out.TopUsers)
	out.TotalHours = round1(float64(totalSeconds) / 3600)
	if out.TotalSessions > 0 {
		out.AvgSessionMin = round1(float64(totalSeconds) / 60 / float64(out.TotalSessions))
	}

	sort.Slice(out.TopUsers, func(i, j int) bool {
		if out.TopUsers[i].Hours != out.TopUsers[j].Hours {
			return out.TopUsers[i].Hours > out.TopUsers[j].Hours
		}
		return out.TopUsers[i].UserID < out.TopUsers[j].UserID
	})
	if len(out.TopUsers) > voiceTopLimit {
		out.TopUsers = out.TopUsers[:voiceTopLimit]
	}
	for i := range out.TopUsers {
		if prof, err := s.store.GetUserProfile(ctx, out.TopUsers[i].UserID); err == nil && prof.Name != "" {
			out.TopUsers[i].Name = prof.Name
		}
	}

	s.cachePut(ctx, cached, out, cacheTTLShort)
	return out, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
