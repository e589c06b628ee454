package query

import (
	"context"
	"time"

	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

// Comparison pairs a current-period mean with the preceding one.
type Comparison struct {
	Current   float64 `json:"current"`
	Previous  float64 `json:"previous"`
	ChangePct float64 `json:"change_pct"`
}

// Comparisons holds the week-over-week and month-over-month activity trend.
type Comparisons struct {
	WeekOverWeek   Comparison `json:"week_over_week"`
	MonthOverMonth Comparison `json:"month_over_month"`
}

// Compare fetches 60 full days of DAU ending at the window's end date, or
// at yesterday when no window is given (the partial current day never
// skews a mean), and derives both trends.
func (s *Service) Compare(ctx context.Context, p Params) (*Comparisons, error) {
	key := s.cacheKey(ctx, "compare", p)
	var cached Comparisons
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	end := compareAnchor(p, time.Now().UTC())
	days := storage.DaysInRange(end.AddDate(0, 0, -59), end)
	series, err := s.store.DAUSeries(ctx, p.GuildID, days)
	if err != nil {
		return nil, err
	}

	out := &Comparisons{
		WeekOverWeek:   periodComparison(series, 7),
		MonthOverMonth: periodComparison(series, 30),
	}
	s.cachePut(ctx, key, out, cacheTTLLong)
	return out, nil
}

// compareAnchor picks the last day of the comparison series. A caller
// window pins it to the window's end, so the result depends only on the
// request parameters; without a window it is yesterday relative to now.
func compareAnchor(p Params, now time.Time) time.Time {
	if p.windowed() {
		return p.End
	}
	return now.AddDate(0, 0, -1)
}

// periodComparison compares the mean of the trailing n days against the n
// days before them. The series is ordered oldest first.
func periodComparison(series []int64, n int) Comparison {
	if len(series) < 2*n {
		return Comparison{}
	}
	cur := mean(series[len(series)-n:])
	prev := mean(series[len(series)-2*n : len(series)-n])
	return Comparison{Current: cur, Previous: prev, ChangePct: changePct(cur, prev)}
}

func mean(vals []int64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum int64
	for _, v := range vals {
		sum += v
	}
	return float64(sum) / float64(len(vals))
}

// changePct is the relative change in percent; zero when there is no
// baseline to compare against.
func changePct(cur, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}
