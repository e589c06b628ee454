package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeEngagementIdealCommunity(t *testing.T) {
	// exactly at every normalization target
	in := EngagementInputs{
		AvgDAU:       25,
		TotalMembers: 100, // participation 0.25
		VoiceHours:   375, // 375/30/25 = 0.5 per user-day
		ActiveDays:   30,
		PeriodUnique: 84, // 25/84 ≈ 0.2976, just under the 0.30 target
	}

	e := ComputeEngagement(in)
	assert.Equal(t, 100.0, e.Messages)
	assert.Equal(t, 100.0, e.Voice)
	assert.InDelta(t, 99.2, e.Retention, 0.2)
	assert.InDelta(t, 99.8, e.Score, 0.3)
}

func TestComputeEngagementQuietCommunity(t *testing.T) {
	in := EngagementInputs{
		AvgDAU:       5,
		TotalMembers: 1000, // participation 0.005
		VoiceHours:   0,
		ActiveDays:   30,
		PeriodUnique: 100,
	}

	e := ComputeEngagement(in)
	assert.Equal(t, 2.0, e.Messages) // 0.005/0.25*100
	assert.Zero(t, e.Voice)
	assert.InDelta(t, 16.7, e.Retention, 0.1)
	assert.Less(t, e.Score, 10.0)
}

func TestComputeEngagementZeroInputs(t *testing.T) {
	e := ComputeEngagement(EngagementInputs{})
	assert.Zero(t, e.Score)
	assert.Zero(t, e.Messages)
	assert.Zero(t, e.Voice)
	assert.Zero(t, e.Retention)
}

func TestSubScoresNeverExceed100(t *testing.T) {
	in := EngagementInputs{
		AvgDAU:       900,
		TotalMembers: 1000,
		VoiceHours:   100000,
		ActiveDays:   30,
		PeriodUnique: 901,
	}
	e := ComputeEngagement(in)
	assert.Equal(t, 100.0, e.Messages)
	assert.Equal(t, 100.0, e.Voice)
	assert.Equal(t, 100.0, e.Retention)
	assert.Equal(t, 100.0, e.Score)
}
