package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

const (
	strikeLimit   = 5
	recoveryLimit = 3
)

func TestExactlyStrikeLimitFailuresGoesDown(t *testing.T) {
	s := newState("api")

	var alert string
	for i := 0; i < strikeLimit; i++ {
		assert.Equal(t, StatusUp, s.Status, "still up before strike %d", i+1)
		s, alert = applyResult(s, false, strikeLimit, recoveryLimit)
	}

	assert.Equal(t, StatusDown, s.Status)
	assert.Equal(t, StatusDown, alert)
	assert.Zero(t, s.Strikes)

	// further failures while down produce no additional alert
	s, alert = applyResult(s, false, strikeLimit, recoveryLimit)
	assert.Equal(t, StatusDown, s.Status)
	assert.Empty(t, alert)
}

func TestExactlyRecoveryLimitSuccessesGoesUp(t *testing.T) {
	s := newState("api")
	s.Status = StatusDown

	var alert string
	for i := 0; i < recoveryLimit; i++ {
		assert.Equal(t, StatusDown, s.Status, "still down before success %d", i+1)
		s, alert = applyResult(s, true, strikeLimit, recoveryLimit)
	}

	assert.Equal(t, StatusUp, s.Status)
	assert.Equal(t, StatusUp, alert)
	assert.Zero(t, s.RecoveryStrikes)
}

func TestFourFailuresThenSuccessStaysUp(t *testing.T) {
	s := newState("api")

	for i := 0; i < 4; i++ {
		var alert string
		s, alert = applyResult(s, false, strikeLimit, recoveryLimit)
		assert.Empty(t, alert)
	}
	assert.Equal(t, 4, s.Strikes)

	s, alert := applyResult(s, true, strikeLimit, recoveryLimit)
	assert.Equal(t, StatusUp, s.Status)
	assert.Empty(t, alert)
	assert.Zero(t, s.Strikes, "success resets strikes")
}

func TestFailureResetsRecoveryStrikes(t *testing.T) {
	s := newState("api")
	s.Status = StatusDown

	s, _ = applyResult(s, true, strikeLimit, recoveryLimit)
	s, _ = applyResult(s, true, strikeLimit, recoveryLimit)
	assert.Equal(t, 2, s.RecoveryStrikes)

	s, alert := applyResult(s, false, strikeLimit, recoveryLimit)
	assert.Empty(t, alert)
	assert.Zero(t, s.RecoveryStrikes)
	assert.Equal(t, StatusDown, s.Status)
}

func TestCheckCountersAccumulate(t *testing.T) {
	s := newState("api")
	outcomes := []bool{true, true, false, true, false}

	for _, ok := range outcomes {
		s, _ = applyResult(s, ok, strikeLimit, recoveryLimit)
	}
	assert.Equal(t, int64(5), s.TotalChecks)
	assert.Equal(t, int64(3), s.UpChecks)
}

func TestApplyResultDoesNotMutateInput(t *testing.T) {
	orig := storage.ServiceState{Name: "api", Status: StatusUp, Strikes: 2}
	_, _ = applyResult(orig, false, strikeLimit, recoveryLimit)
	assert.Equal(t, 2, orig.Strikes)
}
