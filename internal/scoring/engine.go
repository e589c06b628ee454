package scoring

import (
	"context"
	"sort"
	"time"

	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

// chatSecondsPerMessage is the flat chat-time estimate one message event
// contributes to the weighted score.
const chatSecondsPerMessage = 30

// Engine computes score reports against the live store.
type Engine struct {
	store *storage.Client
}

func NewEngine(store *storage.Client) *Engine {
	return &Engine{store: store}
}

// UserWeightedScore sums a user's weighted activity seconds over an
// inclusive date window. Per-day sums are cached under the current weights
// version; a version mismatch recomputes the day from the event streams.
func (e *Engine) UserWeightedScore(ctx context.Context, guildID, userID string, start, end time.Time) (int64, error) {
	version, err := e.store.WeightsVersion(ctx)
	if err != nil {
		return 0, err
	}
	weights, err := e.store.GetActionWeights(ctx)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, date := range storage.DatesInRange(start, end) {
		cached, ok, err := e.store.GetDayScore(ctx, guildID, userID, date, version)
		if err != nil {
			return 0, err
		}
		if ok {
			total += cached.Total()
			continue
		}

		ds, err := e.computeDay(ctx, guildID, userID, date, version, weights)
		if err != nil {
			return 0, err
		}
		if err := e.store.PutDayScore(ctx, guildID, userID, date, ds); err != nil {
			return 0, err
		}
		total += ds.Total()
	}
	return total, nil
}

func (e *Engine) computeDay(ctx context.Context, guildID, userID, date string, version int64, weights map[string]int64) (storage.DayScore, error) {
	dayStart, err := storage.ParseDate(date)
	if err != nil {
		return storage.DayScore{}, err
	}
	dayEnd := dayStart.Add(24*time.Hour - time.Second)

	msgs, err := e.store.MsgEventsInWindow(ctx, guildID, userID, dayStart, dayEnd)
	if err != nil {
		return storage.DayScore{}, err
	}
	voice, err := e.store.VoiceEventsInWindow(ctx, guildID, userID, dayStart, dayEnd)
	if err != nil {
		return storage.DayScore{}, err
	}
	actions, err := e.store.ActionEventsInWindow(ctx, guildID, userID, dayStart, dayEnd)
	if err != nil {
		return storage.DayScore{}, err
	}

	ds := storage.DayScore{Version: version}
	ds.ChatTime = int64(len(msgs)) * chatSecondsPerMessage * weights["chat_time"]
	for _, v := range voice {
		ds.VoiceTime += v.Duration * weights["voice_time"]
	}
	for _, a := range actions {
		ds.ActionTime += weights[a.Type]
	}
	return ds, nil
}

// ActivityRank is one row of the weighted-activity leaderboard.
type ActivityRank struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Score  int64  `json:"score"`
}

// ActivityLeaderboard ranks every user with an event stream by weighted
// score over the window.
func (e *Engine) ActivityLeaderboard(ctx context.Context, guildID string, start, end time.Time, limit int) ([]ActivityRank, error) {
	if limit <= 0 {
		limit = 10
	}

	users, err := e.streamUsers(ctx, guildID)
	if err != nil {
		return nil, err
	}

	ranks := make([]ActivityRank, 0, len(users))
	for _, userID := range users {
		score, err := e.UserWeightedScore(ctx, guildID, userID, start, end)
		if err != nil {
			return nil, err
		}
		if score == 0 {
			continue
		}
		ranks = append(ranks, ActivityRank{UserID: userID, Score: score})
	}

	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Score != ranks[j].Score {
			return ranks[i].Score > ranks[j].Score
		}
		return ranks[i].UserID < ranks[j].UserID
	})
	if len(ranks) > limit {
		ranks = ranks[:limit]
	}

	for i := range ranks {
		ranks[i].Rank = i + 1
		if p, err := e.store.GetUserProfile(ctx, ranks[i].UserID); err == nil {
			ranks[i].Name = p.Name
		}
	}
	return ranks, nil
}

// streamUsers unions the user ids present in any of the three event
// streams.
func (e *Engine) streamUsers(ctx context.Context, guildID string) ([]string, error) {
	seen := make(map[string]struct{})
	for _, prefix := range []string{storage.PrefixEventsMsg, storage.PrefixEventsVoice, storage.PrefixEventsAction} {
		ids, err := e.store.EventStreamUserIDs(ctx, prefix, guildID)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}

	users := make([]string, 0, len(seen))
	for id := range seen {
		users = append(users, id)
	}
	sort.Strings(users)
	return users, nil
}
