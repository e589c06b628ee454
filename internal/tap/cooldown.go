package tap

import (
	"sync"
	"time"
)

// cooldownMap rejects duplicate DAU enqueues for the same (guild, user, day)
// within the configured window. It is owned by the tap; the sweep runs on
// the tap's own ticks.
type cooldownMap struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]time.Time
	now     func() time.Time
}

func newCooldownMap(window time.Duration) *cooldownMap {
	return &cooldownMap{
		window:  window,
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Allow reports whether the key is outside its cooldown and, if so, arms it.
func (c *cooldownMap) Allow(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if last, ok := c.entries[key]; ok && now.Sub(last) < c.window {
		return false
	}
	c.entries[key] = now
	return true
}

// Sweep drops expired entries; called periodically so the map stays bounded
// by the number of users active within one window.
func (c *cooldownMap) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, last := range c.entries {
		if now.Sub(last) >= c.window {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the live entry count, for the heartbeat.
func (c *cooldownMap) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
