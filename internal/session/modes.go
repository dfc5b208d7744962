package session

import (
	"strings"
	"time"
	"unicode"

	"github.com/akashshettty/Sports-Conference/internal/engine"
	"github.com/akashshettty/Sports-Conference/internal/fsm"
)

// onResult routes one engine result batch through the active mode's
// branch logic. The lock is held for the whole batch, so a mode switch
// never interleaves with in-flight batch processing.
func (c *Controller) onResult(batch engine.Batch) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.mode {
	case ModeContinuous:
		c.processContinuousLocked(batch)
	case ModeWakeWord:
		c.processWakeWordLocked(batch)
	default:
		// off and push_to_talk never consume continuous-engine results
	}
}

// processContinuousLocked scans for the wake word and emits the command
// that follows it, either from the same final result or from the next
// final one. Processing stops after an emission so overlapping result
// indices cannot double-fire.
func (c *Controller) processContinuousLocked(batch engine.Batch) {
	for _, res := range batch.Results {
		text := strings.TrimSpace(res.Transcript)
		if text == "" {
			continue
		}

		if !c.wakeActive {
			if !containsWakeWord(text, c.cfg.WakeWord) {
				continue
			}
			c.wakeActive = true
			c.applyLocked(fsm.EventWake)
			c.notifyLocked()
			if res.Final {
				if rest := stripWakeWord(text, c.cfg.WakeWord); rest != "" {
					c.emitLocked(rest)
					c.closeWakeLocked(fsm.EventCaptured)
					return
				}
			}
			// Interim match, or a bare final wake word: stay active and
			// await the next final result carrying the command.
			continue
		}

		if !res.Final {
			continue
		}
		c.emitLocked(text)
		c.closeWakeLocked(fsm.EventCaptured)
		return
	}
}

// processWakeWordLocked opens a bounded activation window on wake-word
// detection; the next final result inside the window is the command.
func (c *Controller) processWakeWordLocked(batch engine.Batch) {
	for _, res := range batch.Results {
		text := strings.TrimSpace(res.Transcript)
		if text == "" {
			continue
		}

		if !c.wakeActive {
			if !containsWakeWord(text, c.cfg.WakeWord) {
				continue
			}
			if res.Final {
				if rest := stripWakeWord(text, c.cfg.WakeWord); rest != "" {
					c.emitLocked(rest)
					return
				}
			}
			c.openWakeWindowLocked()
			continue
		}

		if !res.Final {
			continue
		}
		if containsWakeWord(text, c.cfg.WakeWord) {
			rest := stripWakeWord(text, c.cfg.WakeWord)
			if rest == "" {
				// Repeated bare wake word re-arms the single pending timer.
				c.openWakeWindowLocked()
				continue
			}
			text = rest
		}
		c.emitLocked(text)
		c.closeWakeLocked(fsm.EventCaptured)
		return
	}
}

// openWakeWindowLocked (re)activates the wake-word window. At most one
// timer is outstanding; a new activation replaces the pending one.
func (c *Controller) openWakeWindowLocked() {
	c.wakeActive = true
	c.applyLocked(fsm.EventWake)
	if c.wakeTimer != nil {
		c.wakeTimer.Stop()
	}
	c.wakeTimer = time.AfterFunc(c.cfg.WakeWindow, c.wakeWindowExpired)
	c.notifyLocked()
}

// closeWakeLocked deactivates the wake window after command capture.
func (c *Controller) closeWakeLocked(event fsm.Event) {
	c.clearWakeLocked()
	c.applyLocked(event)
	c.notifyLocked()
}

// wakeWindowExpired drops the pending utterance when the window elapses
// without a qualifying final result.
func (c *Controller) wakeWindowExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// The timer races mode switches and captures; re-check current state.
	if !c.wakeActive || c.mode != ModeWakeWord {
		return
	}
	c.wakeActive = false
	c.wakeTimer = nil
	c.applyLocked(fsm.EventWindowTimeout)
	c.logDebug("wake-word window elapsed without a command")
	c.notifyLocked()
}

// containsWakeWord is deliberately substring containment, not whole-word
// matching: a command containing the wake word inside another word still
// triggers.
func containsWakeWord(text string, wakeWord string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(wakeWord))
}

// stripWakeWord removes everything through the wake word plus the
// punctuation/whitespace immediately following it.
func stripWakeWord(text string, wakeWord string) string {
	lower := strings.ToLower(text)
	wake := strings.ToLower(wakeWord)
	idx := strings.Index(lower, wake)
	if idx < 0 {
		return strings.TrimSpace(text)
	}
	rest := text[idx+len(wake):]
	rest = strings.TrimLeftFunc(rest, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	return strings.TrimSpace(rest)
}
