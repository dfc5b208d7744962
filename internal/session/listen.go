package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/akashshettty/Sports-Conference/internal/engine"
)

// ListenOnce runs an independent single-utterance, non-interim session
// and resolves with the trimmed first final transcript, or ErrNoSpeech on
// timeout, engine error, or end without a result. The completion guard
// ensures exactly one resolution regardless of callback ordering; the
// transient session is always asked to stop before returning.
func (c *Controller) ListenOnce(ctx context.Context, timeout time.Duration) (string, error) {
	if !c.eng.Available() {
		return "", engine.ErrUnavailable
	}
	if timeout <= 0 {
		timeout = c.cfg.ListenTimeout
	}

	type outcome struct {
		text string
		ok   bool
	}
	done := make(chan outcome, 1)
	var once sync.Once
	resolve := func(text string, ok bool) {
		once.Do(func() { done <- outcome{text: text, ok: ok} })
	}

	rec, err := c.eng.NewRecognizer(
		engine.Options{MaxAlternatives: 1, Language: c.cfg.Language},
		engine.Callbacks{
			Result: func(batch engine.Batch) {
				for _, res := range batch.Results {
					if !res.Final {
						continue
					}
					if text := strings.TrimSpace(res.Transcript); text != "" {
						resolve(text, true)
						return
					}
				}
			},
			Ended:   func() { resolve("", false) },
			Errored: func(error) { resolve("", false) },
		},
	)
	if err != nil {
		return "", err
	}
	if err := rec.Start(ctx); err != nil {
		return "", fmt.Errorf("start one-shot session: %w", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var out outcome
	select {
	case out = <-done:
	case <-timer.C:
	case <-ctx.Done():
	}
	_ = rec.Stop()

	if !out.ok {
		return "", ErrNoSpeech
	}
	return out.text, nil
}

// ListenOnceSmart coordinates a one-shot listen with the continuous
// session: stop continuous listening first, let the engine settle, listen
// once, then restore the prior mode when it was user-enabled. Concurrent
// triggers are serialized through a single-entry guard.
func (c *Controller) ListenOnceSmart(ctx context.Context, timeout time.Duration) (string, error) {
	if !c.eng.Available() {
		return "", engine.ErrUnavailable
	}

	c.mu.Lock()
	if c.listenBusy {
		c.mu.Unlock()
		return "", ErrListenBusy
	}
	c.listenBusy = true
	prevMode := c.mode
	resume := c.continuousEnabled && !c.userStopped
	running := c.recognizing
	if resume {
		// A recovery restart may already be pending (the continuous
		// session just ended or errored). Cancel it so it cannot bring
		// the continuous recognizer up underneath the one-shot session;
		// the resume below restores it instead.
		c.cancelRestartLocked()
	}
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.listenBusy = false
		c.mu.Unlock()
	}()

	if running {
		// Flag the stop as user-initiated so the adapter does not
		// auto-restart underneath the one-shot session, then let the
		// engine release the microphone.
		_ = c.Stop()
		time.Sleep(c.cfg.SettleDelay)
	}

	text, err := c.ListenOnce(ctx, timeout)
	if err == nil {
		c.emitCaptured(text)
	}

	// Restore pre-interrupt intent even though the interruption forced a
	// stop, whether or not a transcript was captured.
	if resume {
		if startErr := c.Start(ctx, prevMode); startErr != nil {
			c.logDebug("resume after one-shot listen failed", "error", startErr.Error())
		}
	}

	return text, err
}

// emitCaptured routes a one-shot capture through the same dedup gate as
// the continuous modes before broadcasting it.
func (c *Controller) emitCaptured(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emitLocked(text)
}
