package tap

import (
	"sync"
	"time"
)

// voiceTracker remembers when each (guild, user) joined voice so the leave
// can be turned into a duration. Owned by the tap.
type voiceTracker struct {
	mu     sync.Mutex
	starts map[string]time.Time
	now    func() time.Time
}

func newVoiceTracker() *voiceTracker {
	return &voiceTracker{
		starts: make(map[string]time.Time),
		now:    time.Now,
	}
}

func voiceKey(guildID, userID string) string {
	return guildID + ":" + userID
}

// Join records a session start; re-joins (channel moves) keep the original
// start so moving rooms does not split the session.
func (v *voiceTracker) Join(guildID, userID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	key := voiceKey(guildID, userID)
	if _, ok := v.starts[key]; !ok {
		v.starts[key] = v.now()
	}
}

// Leave closes a session, returning its start and duration. ok is false
// when no start was tracked (bot restarted mid-session).
func (v *voiceTracker) Leave(guildID, userID string) (start time.Time, duration time.Duration, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	key := voiceKey(guildID, userID)
	start, ok = v.starts[key]
	if !ok {
		return time.Time{}, 0, false
	}
	delete(v.starts, key)
	return start, v.now().Sub(start), true
}
