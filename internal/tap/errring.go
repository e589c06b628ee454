package tap

import (
	"sync"
	"time"
)

const errRingCap = 32

// errRing keeps the most recent ingestion errors per guild for the
// heartbeat. Writes never block the tap path.
type errRing struct {
	mu      sync.Mutex
	entries []errEntry
	next    int
	full    bool
}

type errEntry struct {
	TS      time.Time `json:"ts"`
	GuildID string    `json:"guild_id"`
	Msg     string    `json:"msg"`
}

func newErrRing() *errRing {
	return &errRing{entries: make([]errEntry, errRingCap)}
}

func (r *errRing) Add(guildID, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[r.next] = errEntry{TS: time.Now().UTC(), GuildID: guildID, Msg: msg}
	r.next = (r.next + 1) % errRingCap
	if r.next == 0 {
		r.full = true
	}
}

// Recent returns the buffered errors, oldest first.
func (r *errRing) Recent() []errEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		out := make([]errEntry, r.next)
		copy(out, r.entries[:r.next])
		return out
	}
	out := make([]errEntry, 0, errRingCap)
	out = append(out, r.entries[r.next:]...)
	out = append(out, r.entries[:r.next]...)
	return out
}
