// Package monitor probes a small fleet of external services, maintains a
// per-service strike/recovery state machine in Redis, and posts alerts on
// transitions behind a persistent cooldown.
package monitor

import (
	storage "github.com/guildpulse/guildpulse-go/internal/storage/redis"
)

const (
	StatusUp   = "UP"
	StatusDown = "DOWN"
)

// applyResult folds one probe outcome into the state machine. It returns the
// alert to attempt ("UP", "DOWN" or "") alongside the updated state.
//
// A failure while UP increments strikes; hitting strikeLimit flips to DOWN.
// A success while DOWN increments recovery strikes; hitting recoveryLimit
// flips to UP. Either outcome resets the opposite counter.
func applyResult(s storage.ServiceState, ok bool, strikeLimit, recoveryLimit int) (storage.ServiceState, string) {
	s.TotalChecks++

	if ok {
		s.UpChecks++
		s.Strikes = 0
		if s.Status == StatusDown {
			s.RecoveryStrikes++
			if s.RecoveryStrikes >= recoveryLimit {
				s.Status = StatusUp
				s.RecoveryStrikes = 0
				return s, StatusUp
			}
		}
		return s, ""
	}

	s.RecoveryStrikes = 0
	if s.Status == StatusUp {
		s.Strikes++
		if s.Strikes >= strikeLimit {
			s.Status = StatusDown
			s.Strikes = 0
			return s, StatusDown
		}
	}
	return s, ""
}

// newState is the initial record for a service never seen before. Services
// start optimistic so a fresh deploy does not alert on its first check.
func newState(name string) storage.ServiceState {
	return storage.ServiceState{Name: name, Status: StatusUp}
}
