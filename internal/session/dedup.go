package session

import "time"

// filter collapses redelivered finals for the same utterance while still
// allowing a genuinely repeated command once the debounce window elapses.
type filter struct {
	last       string
	lastSentAt time.Time
	window     time.Duration
}

// shouldEmit reports whether text passes the dedup gate, updating the
// filter state only on acceptance.
func (f *filter) shouldEmit(text string, now time.Time) bool {
	if text == f.last && now.Sub(f.lastSentAt) <= f.window {
		return false
	}
	f.last = text
	f.lastSentAt = now
	return true
}
