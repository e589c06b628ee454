package scoring

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

// EngagementReport gathers the window aggregates and folds them into the
// engagement composite.
func (e *Engine) EngagementReport(ctx context.Context, guildID string, start, end time.Time) (Engagement, error) {
	in, err := e.engagementInputs(ctx, guildID, start, end)
	if err != nil {
		return Engagement{}, err
	}
	return ComputeEngagement(in), nil
}

func (e *Engine) engagementInputs(ctx context.Context, guildID string, start, end time.Time) (EngagementInputs, error) {
	var in EngagementInputs

	days := storage.DaysInRange(start, end)
	series, err := e.store.DAUSeries(ctx, guildID, days)
	if err != nil {
		return in, err
	}

	var sum int64
	for _, v := range series {
		sum += v
		if v > 0 {
			in.ActiveDays++
		}
	}
	if len(series) > 0 {
		in.AvgDAU = float64(sum) / float64(len(series))
	}

	in.PeriodUnique, err = e.store.UniqueCount(ctx, guildID, days)
	if err != nil {
		return in, err
	}

	snap, err := e.store.ReadPresence(ctx, guildID)
	if err != nil {
		return in, err
	}
	in.TotalMembers = snap.Total

	voiceSeconds, err := e.voiceSeconds(ctx, guildID, start, end)
	if err != nil {
		return in, err
	}
	in.VoiceHours = float64(voiceSeconds) / 3600
	return in, nil
}

func (e *Engine) voiceSeconds(ctx context.Context, guildID string, start, end time.Time) (int64, error) {
	users, err := e.store.EventStreamUserIDs(ctx, storage.PrefixEventsVoice, guildID)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, userID := range users {
		events, err := e.store.VoiceEventsInWindow(ctx, guildID, userID, start, end)
		if err != nil {
			return 0, err
		}
		for _, ev := range events {
			total += ev.Duration
		}
	}
	return total, nil
}

// SecurityReport evaluates the last 30 days against the live weights and
// ideals.
func (e *Engine) SecurityReport(ctx context.Context, guildID string) (SecurityScore, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -29)

	weights, err := e.store.GetSecurityWeights(ctx)
	if err != nil {
		return SecurityScore{}, err
	}
	ideals, err := e.store.GetSecurityIdeals(ctx)
	if err != nil {
		return SecurityScore{}, err
	}

	snap, err := e.store.ReadPresence(ctx, guildID)
	if err != nil {
		return SecurityScore{}, err
	}
	team, err := e.store.TeamMembers(ctx, guildID)
	if err != nil {
		return SecurityScore{}, err
	}

	eng, err := e.engagementInputs(ctx, guildID, start, end)
	if err != nil {
		return SecurityScore{}, err
	}

	msgTotal, replies, err := e.messageReplyCounts(ctx, guildID, start, end)
	if err != nil {
		return SecurityScore{}, err
	}
	actions, err := e.actionCount(ctx, guildID, start, end)
	if err != nil {
		return SecurityScore{}, err
	}

	joins, err := e.store.HGetAll(ctx, storage.JoinsKey(guildID))
	if err != nil {
		return SecurityScore{}, err
	}
	leaves, err := e.store.HGetAll(ctx, storage.LeavesKey(guildID))
	if err != nil {
		return SecurityScore{}, err
	}
	monthStart := storage.MonthStartPrague(time.Now())
	thisMonth := storage.MonthKeyPrague(monthStart)
	prevMonth := storage.MonthKeyPrague(monthStart.AddDate(0, -1, 0))

	in := SecurityInputs{
		TotalMembers:      snap.Total,
		Moderators:        len(team),
		VerificationLevel: snap.VerificationLevel,
		MFALevel:          snap.MFALevel,
		ExplicitFilter:    snap.ExplicitFilter,
		ModActions:        actions,
		MonthJoins:        atoi64(joins[thisMonth]),
		MonthLeaves:       atoi64(leaves[thisMonth]),
		PrevMonthJoins:    atoi64(joins[prevMonth]),
		PrevMonthLeaves:   atoi64(leaves[prevMonth]),
	}
	if in.TotalMembers > 0 {
		in.Participation = eng.AvgDAU / float64(in.TotalMembers)
	}
	if msgTotal > 0 {
		in.ReplyRatio = float64(replies) / float64(msgTotal)
	}
	if eng.ActiveDays > 0 && eng.AvgDAU > 0 {
		in.VoiceRatio = eng.VoiceHours / float64(eng.ActiveDays) / eng.AvgDAU
	}

	return ComputeSecurity(in, weights, ideals), nil
}

func (e *Engine) messageReplyCounts(ctx context.Context, guildID string, start, end time.Time) (total, replies int, err error) {
	users, err := e.store.EventStreamUserIDs(ctx, storage.PrefixEventsMsg, guildID)
	if err != nil {
		return 0, 0, err
	}
	for _, userID := range users {
		events, err := e.store.MsgEventsInWindow(ctx, guildID, userID, start, end)
		if err != nil {
			return 0, 0, err
		}
		total += len(events)
		for _, ev := range events {
			if ev.Reply {
				replies++
			}
		}
	}
	return total, replies, nil
}

func (e *Engine) actionCount(ctx context.Context, guildID string, start, end time.Time) (int, error) {
	users, err := e.store.EventStreamUserIDs(ctx, storage.PrefixEventsAction, guildID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, userID := range users {
		events, err := e.store.ActionEventsInWindow(ctx, guildID, userID, start, end)
		if err != nil {
			return 0, err
		}
		count += len(events)
	}
	return count, nil
}

// Predictions bundles the member forecast and the next-week activity
// forecast.
type Predictions struct {
	Members []MemberForecastPoint `json:"members"`
	Daily   []DailyForecastPoint  `json:"daily"`
}

// Predict builds both forecasts: six months of membership from the last
// twelve months of churn, and seven days of messages from the last thirty.
func (e *Engine) Predict(ctx context.Context, guildID string) (*Predictions, error) {
	joins, err := e.store.HGetAll(ctx, storage.JoinsKey(guildID))
	if err != nil {
		return nil, err
	}
	leaves, err := e.store.HGetAll(ctx, storage.LeavesKey(guildID))
	if err != nil {
		return nil, err
	}
	snap, err := e.store.ReadPresence(ctx, guildID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	monthStart := storage.MonthStartPrague(now)

	net := make([]int64, 0, 12)
	for i := 11; i >= 0; i-- {
		m := storage.MonthKeyPrague(monthStart.AddDate(0, -i, 0))
		net = append(net, atoi64(joins[m])-atoi64(leaves[m]))
	}
	future := make([]string, 0, 6)
	for i := 1; i <= 6; i++ {
		future = append(future, storage.MonthKeyPrague(monthStart.AddDate(0, i, 0)))
	}

	history, err := e.dailyMessageTotals(ctx, guildID, 30)
	if err != nil {
		return nil, err
	}
	tomorrow := now.UTC().AddDate(0, 0, 1)

	return &Predictions{
		Members: ForecastMembers(int64(snap.Total), net, future),
		Daily:   ForecastDaily(history, storage.WeekdayUTC(tomorrow)),
	}, nil
}

// dailyMessageTotals sums the hourly hash of each of the trailing n days,
// ending today, oldest first.
func (e *Engine) dailyMessageTotals(ctx context.Context, guildID string, n int) ([]int64, error) {
	client, err := e.store.GetClientSafe()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	days := storage.DaysInRange(now.AddDate(0, 0, -(n-1)), now)

	pipe := client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(days))
	for i, day := range days {
		cmds[i] = pipe.HGetAll(ctx, storage.HourlyKey(guildID, day))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	totals := make([]int64, len(days))
	for i, cmd := range cmds {
		for _, raw := range cmd.Val() {
			totals[i] += atoi64(raw)
		}
	}
	return totals, nil
}

func atoi64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
