package bot

import (
	"sync"
	"time"
)

// maxTrackedKeys caps the number of tracked keys so a flood of fresh
// IDs cannot exhaust memory.
const maxTrackedKeys = 4096

// SpamGuard is a sliding-window flood gate keyed per sender per
// conversation. Every inbound message counts; once a key exceeds the
// limit inside the window its messages are dropped until the window
// drains. Safe for concurrent use.
type SpamGuard struct {
	window time.Duration
	limit  int

	mu      sync.Mutex
	history map[string][]time.Time
	warned  map[string]bool
}

// NewSpamGuard creates a guard allowing limit messages per window.
func NewSpamGuard(window time.Duration, limit int) *SpamGuard {
	return &SpamGuard{
		window:  window,
		limit:   limit,
		history: make(map[string][]time.Time),
		warned:  make(map[string]bool),
	}
}

// Record counts a message under a (sender, conversation) key and reports
// the verdict. Spamming is true when the key is over the limit; warn is
// true exactly once per episode so the pipeline can send a single notice
// instead of echoing every drop.
func (g *SpamGuard) Record(key string, now time.Time) (spamming, warn bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.history) >= maxTrackedKeys {
		g.pruneLocked(now)
	}

	recent := g.history[key][:0]
	for _, ts := range g.history[key] {
		if now.Sub(ts) < g.window {
			recent = append(recent, ts)
		}
	}
	recent = append(recent, now)
	g.history[key] = recent

	if len(recent) <= g.limit {
		delete(g.warned, key)
		return false, false
	}
	if g.warned[key] {
		return true, false
	}
	g.warned[key] = true
	return true, true
}

// pruneLocked drops keys whose entire history has left the window, then
// hard-evicts arbitrary entries if still at the cap.
func (g *SpamGuard) pruneLocked(now time.Time) {
	for id, stamps := range g.history {
		if len(stamps) == 0 || now.Sub(stamps[len(stamps)-1]) >= g.window {
			delete(g.history, id)
			delete(g.warned, id)
		}
	}
	for len(g.history) >= maxTrackedKeys {
		for id := range g.history {
			delete(g.history, id)
			delete(g.warned, id)
			break
		}
	}
}
