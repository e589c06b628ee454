package scoring

import "math"

// SecurityInputs are the raw guild facts the security score is built from.
type SecurityInputs struct {
	TotalMembers      int
	Moderators        int
	VerificationLevel int
	MFALevel          int
	ExplicitFilter    int // 0 disabled, 1 members without roles, 2 all
	ModActions        int // moderation actions over the report window
	Participation     float64
	ReplyRatio        float64
	VoiceRatio        float64

	// Monthly churn counters, current and previous calendar month.
	MonthJoins      int64
	MonthLeaves     int64
	PrevMonthJoins  int64
	PrevMonthLeaves int64
}

// SecurityScore is the weighted composite with its per-component breakdown
// and the rating bucket the dashboard renders.
type SecurityScore struct {
	Score      float64            `json:"score"`
	Rating     string             `json:"rating"`
	Components map[string]float64 `json:"components"`
	Insights   []Insight          `json:"insights"`
}

// Rating buckets, in the community's reporting language.
const (
	RatingExcellent = "Vynikající"
	RatingGood      = "Dobrý"
	RatingAverage   = "Průměrný"
	RatingLow       = "Nízký"
)

// ComputeSecurity folds the inputs into the four-component score. weights
// is the component split (summing to 100); ideals carries the
// normalization targets.
func ComputeSecurity(in SecurityInputs, weights map[string]int64, ideals map[string]float64) SecurityScore {
	components := map[string]float64{
		"moderators": moderatorScore(in, ideals),
		"settings":   settingsScore(in, ideals),
		"engagement": engagementComponent(in, ideals),
		"moderation": moderationHealth(in, ideals),
	}

	var score, weightSum float64
	for name, w := range weights {
		score += components[name] * float64(w)
		weightSum += float64(w)
	}
	if weightSum > 0 {
		score = round1(score / weightSum)
	}

	return SecurityScore{
		Score:      score,
		Rating:     Rating(score),
		Components: components,
		Insights:   buildInsights(in, components),
	}
}

// Rating maps a score to its bucket.
func Rating(score float64) string {
	switch {
	case score >= 80:
		return RatingExcellent
	case score >= 60:
		return RatingGood
	case score >= 40:
		return RatingAverage
	default:
		return RatingLow
	}
}

// moderatorScore is 100 inside the ideal users-per-moderator band and
// falls off linearly toward the band edges.
func moderatorScore(in SecurityInputs, ideals map[string]float64) float64 {
	if in.Moderators <= 0 {
		return 0
	}
	perMod := float64(in.TotalMembers) / float64(in.Moderators)
	min := ideals["users_per_mod_min"]
	max := ideals["users_per_mod_max"]

	switch {
	case perMod >= min && perMod <= max:
		return 100
	case perMod < min:
		// overstaffed: scale down toward zero moderatorless load
		if min <= 0 {
			return 100
		}
		return capped(perMod / min * 100)
	default:
		// understaffed: halve the score for each doubling past the band
		excess := perMod / max
		return capped(100 / excess)
	}
}

// settingsScore rewards the three guild-level protections:
// verification level 60%, explicit content filter 20%, mfa requirement 20%.
func settingsScore(in SecurityInputs, ideals map[string]float64) float64 {
	idealVerification := ideals["verification_level"]
	if idealVerification <= 0 {
		idealVerification = 1
	}

	score := 60 * math.Min(1, float64(in.VerificationLevel)/idealVerification)
	score += 20 * (float64(in.ExplicitFilter) / 2)
	if in.MFALevel > 0 {
		score += 20
	}
	return capped(score)
}

// engagementComponent normalizes participation, reply ratio and voice
// against their ideals, equally weighted.
func engagementComponent(in SecurityInputs, ideals map[string]float64) float64 {
	var sum float64
	sum += ratioScore(in.Participation, ideals["participation_ratio"])
	sum += ratioScore(in.ReplyRatio, ideals["reply_ratio"])
	sum += ratioScore(in.VoiceRatio, ideals["voice_ratio"])
	return capped(sum / 3)
}

func ratioScore(value, ideal float64) float64 {
	if ideal <= 0 {
		return 0
	}
	return math.Min(100, value/ideal*100)
}

// moderationHealth scores the actions-per-100-users rate: 100 inside the
// ideal band, 50 when far below, decaying from 80 toward 20 when far above.
func moderationHealth(in SecurityInputs, ideals map[string]float64) float64 {
	if in.TotalMembers <= 0 {
		return 50
	}
	rate := float64(in.ModActions) / float64(in.TotalMembers) * 100
	min := ideals["actions_per_100_min"]
	max := ideals["actions_per_100_max"]

	switch {
	case rate >= min && rate <= max:
		return 100
	case rate < min:
		return 50
	default:
		// runaway moderation: decay from 80 down to a floor of 20
		over := rate - max
		return math.Max(20, 80-over*5)
	}
}
