package scoring

import "math"

// EngagementInputs are the window aggregates the engagement composite is
// computed from.
type EngagementInputs struct {
	AvgDAU       float64 // mean daily unique users over the window
	TotalMembers int     // current member count
	VoiceHours   float64 // summed voice hours over the window
	ActiveDays   int     // days in the window with any activity
	PeriodUnique int64   // distinct users over the whole window
}

// Engagement is the 0-100 composite with its sub-scores.
type Engagement struct {
	Score     float64 `json:"score"`
	Messages  float64 `json:"messages"`
	Voice     float64 `json:"voice"`
	Retention float64 `json:"retention"`
}

// Normalization targets: an average community is expected to reach these
// ratios for a full sub-score.
const (
	idealParticipation = 0.25 // DAU as a share of members
	idealVoicePerUser  = 0.5  // voice hours per active day per daily user
	idealRetention     = 0.30 // DAU as a share of window uniques
)

// ComputeEngagement folds the inputs into the weighted composite
// 0.4*messages + 0.3*voice + 0.3*retention, each sub-score capped at 100.
func ComputeEngagement(in EngagementInputs) Engagement {
	var e Engagement

	if in.TotalMembers > 0 {
		e.Messages = capped(in.AvgDAU / float64(in.TotalMembers) / idealParticipation * 100)
	}
	if in.ActiveDays > 0 && in.AvgDAU > 0 {
		perUser := in.VoiceHours / float64(in.ActiveDays) / in.AvgDAU
		e.Voice = capped(perUser / idealVoicePerUser * 100)
	}
	if in.PeriodUnique > 0 {
		e.Retention = capped(in.AvgDAU / float64(in.PeriodUnique) / idealRetention * 100)
	}

	e.Score = round1(0.4*e.Messages + 0.3*e.Voice + 0.3*e.Retention)
	return e
}

func capped(v float64) float64 {
	return round1(math.Min(100, math.Max(0, v)))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
