package scoring

import "math"

// MemberForecastPoint is one projected month of member count.
type MemberForecastPoint struct {
	Month   string `json:"month"`
	Members int64  `json:"members"`
}

// ForecastMembers projects the member count six steps ahead using the mean
// net growth of the supplied monthly history (joins minus leaves per month).
// months and net must be parallel, oldest first.
func ForecastMembers(current int64, net []int64, futureMonths []string) []MemberForecastPoint {
	growth := meanInt64(net)

	out := make([]MemberForecastPoint, 0, len(futureMonths))
	projected := float64(current)
	for _, m := range futureMonths {
		projected += growth
		if projected < 0 {
			projected = 0
		}
		out = append(out, MemberForecastPoint{Month: m, Members: int64(math.Round(projected))})
	}
	return out
}

// DailyForecastPoint is one projected day of message activity.
type DailyForecastPoint struct {
	Weekday  int     `json:"weekday"`
	Expected float64 `json:"expected"`
}

// ForecastDaily predicts the next seven days from a linear trend multiplied
// by a per-weekday seasonal index. history is the last 30 daily totals,
// oldest first; startWeekday is the weekday (0=Monday) of the first
// forecast day.
func ForecastDaily(history []int64, startWeekday int) []DailyForecastPoint {
	if len(history) == 0 {
		return nil
	}

	slope, intercept := linearTrend(history)
	index := weekdayIndex(history, startWeekday)

	out := make([]DailyForecastPoint, 0, 7)
	for i := 0; i < 7; i++ {
		x := float64(len(history) + i)
		level := intercept + slope*x
		if level < 0 {
			level = 0
		}
		wd := (startWeekday + i) % 7
		out = append(out, DailyForecastPoint{
			Weekday:  wd,
			Expected: round1(level * index[wd]),
		})
	}
	return out
}

// linearTrend is an ordinary least-squares fit over the series indexed
// 0..n-1.
func linearTrend(series []int64) (slope, intercept float64) {
	n := float64(len(series))
	if n == 0 {
		return 0, 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, v := range series {
		x, y := float64(i), float64(v)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// weekdayIndex computes each weekday's mean relative to the overall mean.
// Weekdays with no samples, or an all-zero series, index at 1.
func weekdayIndex(history []int64, startWeekday int) [7]float64 {
	// the last history element is the day before the first forecast day
	firstWeekday := ((startWeekday-len(history))%7 + 7) % 7

	var sums, counts [7]float64
	for i, v := range history {
		wd := (firstWeekday + i) % 7
		sums[wd] += float64(v)
		counts[wd]++
	}

	var total, n float64
	for _, v := range history {
		total += float64(v)
	}
	n = float64(len(history))
	overall := total / n

	var index [7]float64
	for wd := 0; wd < 7; wd++ {
		if counts[wd] == 0 || overall == 0 {
			index[wd] = 1
			continue
		}
		index[wd] = (sums[wd] / counts[wd]) / overall
	}
	return index
}

func meanInt64(vals []int64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum int64
	for _, v := range vals {
		sum += v
	}
	return float64(sum) / float64(len(vals))
}
