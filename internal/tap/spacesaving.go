package tap

import (
	"sort"
	"sync"
)

// spaceSaving is the classic Space-Saving top-K sketch. Increment is O(1)
// amortized: tracked keys are bumped, untracked keys either take a free
// slot or replace the current minimum, inheriting its count as error.
// It is advisory (today's top users/channels), cleared at UTC midnight and
// empty after a restart. The sketch carries its own lock: gateway handlers
// dispatch concurrently, so Incr races Incr and Top without it.
type spaceSaving struct {
	mu       sync.Mutex
	capacity int
	counts   map[string]*ssEntry
}

type ssEntry struct {
	Key   string
	Count int64
	Err   int64
}

// TopEntry is one ranked result.
type TopEntry struct {
	Key   string
	Count int64
	Err   int64
}

func newSpaceSaving(capacity int) *spaceSaving {
	if capacity < 1 {
		capacity = 1
	}
	return &spaceSaving{
		capacity: capacity,
		counts:   make(map[string]*ssEntry, capacity),
	}
}

// Incr counts one observation of key.
func (s *spaceSaving) Incr(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.counts[key]; ok {
		e.Count++
		return
	}

	if len(s.counts) < s.capacity {
		s.counts[key] = &ssEntry{Key: key, Count: 1}
		return
	}

	// replace the minimum, carrying its count as the new key's error
	var min *ssEntry
	for _, e := range s.counts {
		if min == nil || e.Count < min.Count {
			min = e
		}
	}
	delete(s.counts, min.Key)
	s.counts[key] = &ssEntry{Key: key, Count: min.Count + 1, Err: min.Count}
}

// Top returns up to n entries ordered by count descending.
func (s *spaceSaving) Top(n int) []TopEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]TopEntry, 0, len(s.counts))
	for _, e := range s.counts {
		entries = append(entries, TopEntry{Key: e.Key, Count: e.Count, Err: e.Err})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Key < entries[j].Key
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// Reset clears the sketch at the daily roll.
func (s *spaceSaving) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = make(map[string]*ssEntry, s.capacity)
}
