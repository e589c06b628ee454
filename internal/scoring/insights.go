package scoring

import "fmt"

// Insight severities, ordered from most to least urgent.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
	SeverityTip      = "tip"
	SeveritySuccess  = "success"
)

// Insight is one short, deterministic finding about the guild.
type Insight struct {
	Severity string `json:"severity"`
	Category string `json:"category"`
	Text     string `json:"text"`
}

var severityOrder = map[string]int{
	SeverityCritical: 0,
	SeverityWarning:  1,
	SeverityInfo:     2,
	SeverityTip:      3,
	SeveritySuccess:  4,
}

// buildInsights derives the ordered finding list from the same inputs that
// produced the component scores. The rules are thresholds, so the output is
// stable for identical inputs.
func buildInsights(in SecurityInputs, components map[string]float64) []Insight {
	var out []Insight
	add := func(severity, category, format string, args ...interface{}) {
		out = append(out, Insight{
			Severity: severity,
			Category: category,
			Text:     fmt.Sprintf(format, args...),
		})
	}

	// team sizing
	switch {
	case in.Moderators == 0:
		add(SeverityCritical, "team", "No moderators found; assign at least one moderator role.")
	case in.TotalMembers > 0 && float64(in.TotalMembers)/float64(in.Moderators) > 100:
		add(SeverityWarning, "team", "Each moderator covers %d members; consider growing the team.",
			in.TotalMembers/in.Moderators)
	case components["moderators"] >= 100:
		add(SeveritySuccess, "team", "Moderator coverage is within the healthy range.")
	}

	// safety settings
	if in.VerificationLevel == 0 {
		add(SeverityCritical, "settings", "Verification is disabled; new accounts can post immediately.")
	} else if in.VerificationLevel == 1 {
		add(SeverityTip, "settings", "Verification is set to low; medium blocks most throwaway accounts.")
	}
	if in.MFALevel == 0 {
		add(SeverityWarning, "settings", "Moderators are not required to use two-factor authentication.")
	}
	if in.ExplicitFilter < 2 {
		add(SeverityTip, "settings", "Explicit content filter does not cover all members.")
	}

	// activity and community
	if in.Participation < 0.05 {
		add(SeverityWarning, "activity", "Fewer than 5%% of members are active on an average day.")
	} else if in.Participation >= 0.25 {
		add(SeveritySuccess, "activity", "Daily participation is strong.")
	}
	if in.ReplyRatio < 0.1 {
		add(SeverityInfo, "community", "Conversations rarely get replies; threads may help discussion.")
	}
	if in.VoiceRatio >= 0.5 {
		add(SeveritySuccess, "community", "Voice channels see regular use.")
	}

	// churn and retention, from the monthly join/leave counters
	switch {
	case in.MonthJoins > 0 && in.MonthLeaves > 2*in.MonthJoins:
		add(SeverityCritical, "churn", "Departures are running at more than twice the join rate this month.")
	case in.TotalMembers > 0 && float64(in.MonthLeaves)/float64(in.TotalMembers) > 0.10:
		add(SeverityWarning, "churn", "More than 10%% of the member base left this month.")
	}
	if in.MonthJoins > 0 {
		if in.MonthLeaves >= in.MonthJoins {
			add(SeverityWarning, "retention", "This month lost at least as many members as it gained.")
		} else if float64(in.MonthLeaves)/float64(in.MonthJoins) <= 0.25 {
			add(SeveritySuccess, "retention", "Most members who joined this month have stayed.")
		}
	}

	// growth trend across the two months
	monthNet := in.MonthJoins - in.MonthLeaves
	prevNet := in.PrevMonthJoins - in.PrevMonthLeaves
	switch {
	case monthNet < 0 && prevNet < 0:
		add(SeverityWarning, "growth", "Membership has shrunk for two consecutive months.")
	case monthNet > 0 && monthNet > prevNet:
		add(SeveritySuccess, "growth", "Net membership growth is up on last month.")
	case in.MonthJoins == 0 && in.TotalMembers > 0:
		add(SeverityInfo, "growth", "No new members joined this month.")
	}

	// moderation load
	if components["moderation"] <= 20 {
		add(SeverityWarning, "moderation", "Moderation action rate is far above the expected band.")
	} else if in.ModActions == 0 && in.TotalMembers > 50 {
		add(SeverityInfo, "moderation", "No moderation actions recorded in this window.")
	}

	sortInsights(out)
	return out
}

// sortInsights orders by severity, keeping insertion order within one
// severity. Insertion sort; the list is small.
func sortInsights(list []Insight) {
	for i := 1; i < len(list); i++ {
		for j := i; j > 0 && severityOrder[list[j].Severity] < severityOrder[list[j-1].Severity]; j-- {
			list[j], list[j-1] = list[j-1], list[j]
		}
	}
}
