package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

func defaults() (map[string]int64, map[string]float64) {
	return storage.DefaultSecurityWeights, storage.DefaultSecurityIdeals
}

func TestRatingBuckets(t *testing.T) {
	assert.Equal(t, RatingExcellent, Rating(80))
	assert.Equal(t, RatingExcellent, Rating(95))
	assert.Equal(t, RatingGood, Rating(79.9))
	assert.Equal(t, RatingGood, Rating(60))
	assert.Equal(t, RatingAverage, Rating(59.9))
	assert.Equal(t, RatingAverage, Rating(40))
	assert.Equal(t, RatingLow, Rating(39.9))
	assert.Equal(t, RatingLow, Rating(0))
}

func TestComputeSecurityWellRunGuild(t *testing.T) {
	weights, ideals := defaults()
	in := SecurityInputs{
		TotalMembers:      200,
		Moderators:        8, // 25 users per mod, inside [10, 50]
		VerificationLevel: 2,
		MFALevel:          1,
		ExplicitFilter:    2,
		ModActions:        10, // 5 per 100 members, inside [1, 10]
		Participation:     0.25,
		ReplyRatio:        0.3,
		VoiceRatio:        0.5,
	}

	s := ComputeSecurity(in, weights, ideals)
	assert.Equal(t, 100.0, s.Components["moderators"])
	assert.Equal(t, 100.0, s.Components["settings"])
	assert.Equal(t, 100.0, s.Components["engagement"])
	assert.Equal(t, 100.0, s.Components["moderation"])
	assert.Equal(t, 100.0, s.Score)
	assert.Equal(t, RatingExcellent, s.Rating)
}

func TestComputeSecurityNoModerators(t *testing.T) {
	weights, ideals := defaults()
	s := ComputeSecurity(SecurityInputs{TotalMembers: 100}, weights, ideals)

	assert.Zero(t, s.Components["moderators"])
	assert.Equal(t, RatingLow, s.Rating)

	// the missing team must surface as the leading critical insight
	assert.NotEmpty(t, s.Insights)
	assert.Equal(t, SeverityCritical, s.Insights[0].Severity)
	assert.Equal(t, "team", s.Insights[0].Category)
}

func TestSettingsScoreComponents(t *testing.T) {
	_, ideals := defaults()

	// everything off
	assert.Zero(t, settingsScore(SecurityInputs{}, ideals))

	// verification at half the ideal: 60*0.5 = 30
	assert.Equal(t, 30.0, settingsScore(SecurityInputs{VerificationLevel: 1}, ideals))

	// filter on members-without-roles only: 20*0.5 = 10
	assert.Equal(t, 10.0, settingsScore(SecurityInputs{ExplicitFilter: 1}, ideals))

	// mfa alone
	assert.Equal(t, 20.0, settingsScore(SecurityInputs{MFALevel: 1}, ideals))

	// verification above the ideal is capped, not rewarded extra
	assert.Equal(t, 60.0, settingsScore(SecurityInputs{VerificationLevel: 4}, ideals))
}

func TestModerationHealthBands(t *testing.T) {
	_, ideals := defaults()

	inBand := SecurityInputs{TotalMembers: 100, ModActions: 5}
	assert.Equal(t, 100.0, moderationHealth(inBand, ideals))

	below := SecurityInputs{TotalMembers: 1000, ModActions: 1} // 0.1 per 100
	assert.Equal(t, 50.0, moderationHealth(below, ideals))

	above := SecurityInputs{TotalMembers: 100, ModActions: 14} // 4 over the band
	assert.Equal(t, 60.0, moderationHealth(above, ideals))

	wayAbove := SecurityInputs{TotalMembers: 100, ModActions: 100}
	assert.Equal(t, 20.0, moderationHealth(wayAbove, ideals))
}

func findInsight(list []Insight, category string) (Insight, bool) {
	for _, ins := range list {
		if ins.Category == category {
			return ins, true
		}
	}
	return Insight{}, false
}

func TestChurnRetentionGrowthInsights(t *testing.T) {
	weights, ideals := defaults()

	// churning guild: departures at more than twice the join rate, and
	// shrinking for the second month running
	churning := ComputeSecurity(SecurityInputs{
		TotalMembers:    100,
		Moderators:      3,
		MonthJoins:      5,
		MonthLeaves:     12,
		PrevMonthJoins:  4,
		PrevMonthLeaves: 7,
	}, weights, ideals)

	churn, ok := findInsight(churning.Insights, "churn")
	assert.True(t, ok)
	assert.Equal(t, SeverityCritical, churn.Severity)

	retention, ok := findInsight(churning.Insights, "retention")
	assert.True(t, ok)
	assert.Equal(t, SeverityWarning, retention.Severity)

	growth, ok := findInsight(churning.Insights, "growth")
	assert.True(t, ok)
	assert.Equal(t, SeverityWarning, growth.Severity)

	// healthy guild: most joiners stay and net growth beat last month
	healthy := ComputeSecurity(SecurityInputs{
		TotalMembers:    200,
		Moderators:      8,
		MonthJoins:      40,
		MonthLeaves:     5,
		PrevMonthJoins:  20,
		PrevMonthLeaves: 10,
	}, weights, ideals)

	_, ok = findInsight(healthy.Insights, "churn")
	assert.False(t, ok)

	retention, ok = findInsight(healthy.Insights, "retention")
	assert.True(t, ok)
	assert.Equal(t, SeveritySuccess, retention.Severity)

	growth, ok = findInsight(healthy.Insights, "growth")
	assert.True(t, ok)
	assert.Equal(t, SeveritySuccess, growth.Severity)

	// stagnant guild: no joins at all this month
	stagnant := ComputeSecurity(SecurityInputs{
		TotalMembers: 50,
		Moderators:   2,
	}, weights, ideals)

	growth, ok = findInsight(stagnant.Insights, "growth")
	assert.True(t, ok)
	assert.Equal(t, SeverityInfo, growth.Severity)
	_, ok = findInsight(stagnant.Insights, "retention")
	assert.False(t, ok)
}

func TestInsightsOrderedBySeverity(t *testing.T) {
	weights, ideals := defaults()
	in := SecurityInputs{
		TotalMembers:      500,
		Moderators:        2, // 250 per mod: warning
		VerificationLevel: 0, // critical
		MFALevel:          0, // warning
		ExplicitFilter:    0, // tip
		Participation:     0.3,
		VoiceRatio:        0.6,
	}

	s := ComputeSecurity(in, weights, ideals)
	last := -1
	for _, ins := range s.Insights {
		order := severityOrder[ins.Severity]
		assert.GreaterOrEqual(t, order, last, "insights out of order: %+v", s.Insights)
		last = order
	}
	assert.Equal(t, SeverityCritical, s.Insights[0].Severity)
}
