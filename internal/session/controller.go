package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/akashshettty/Sports-Conference/internal/engine"
	"github.com/akashshettty/Sports-Conference/internal/fsm"
)

// RestartReason names a recovery path taken by the adapter, so tests and
// diagnostics can assert self-healing happened rather than infer it.
type RestartReason string

const (
	RestartAfterEnd   RestartReason = "session_ended"
	RestartAfterError RestartReason = "engine_error"

	restartNone RestartReason = ""
)

// noopStatus preserves controller flow when no status sink is wired.
type noopStatus struct{}

func (noopStatus) Notify(Status) {}

// noopTranscripts preserves controller flow when no transcript sink is wired.
type noopTranscripts struct{}

func (noopTranscripts) Emit(context.Context, string) {}

// Controller owns the single continuous recognition session, the active
// mode, the wake-word window, and the dedup filter. All engine callbacks
// and timers funnel through one mutex, so no two handlers interleave.
type Controller struct {
	logger      *slog.Logger
	eng         engine.Engine
	status      StatusSink
	transcripts TranscriptSink
	cfg         Config

	mu                sync.Mutex
	state             fsm.State
	mode              Mode
	rec               engine.Recognizer
	recognizing       bool
	continuousEnabled bool
	userStopped       bool
	wakeActive        bool
	wakeTimer         *time.Timer
	restartTimer      *time.Timer
	restartPending    RestartReason
	restarts          map[RestartReason]int
	filter            filter
	listenBusy        bool
}

// NewController constructs a session controller with safe default sinks.
func NewController(
	logger *slog.Logger,
	eng engine.Engine,
	status StatusSink,
	transcripts TranscriptSink,
	cfg Config,
) *Controller {
	if status == nil {
		status = noopStatus{}
	}
	if transcripts == nil {
		transcripts = noopTranscripts{}
	}
	cfg = cfg.withDefaults()

	return &Controller{
		logger:      logger,
		eng:         eng,
		status:      status,
		transcripts: transcripts,
		cfg:         cfg,
		state:       fsm.StateIdle,
		mode:        ModeOff,
		restarts:    map[RestartReason]int{},
		filter:      filter{window: cfg.Debounce},
	}
}

// Available reports whether a recognition engine was detected.
func (c *Controller) Available() bool { return c.eng.Available() }

// Mode returns the active mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// WakeWordActive reports whether a wake-word activation is open.
func (c *Controller) WakeWordActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wakeActive
}

// State returns the current session state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns the current UI-facing snapshot.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// Restarts reports how many times the named recovery path has run.
func (c *Controller) Restarts(reason RestartReason) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.restarts[reason]
}

// Start activates the requested mode and, for the continuous-engine
// modes, ensures the long-lived session is running. Already-started
// engine races are discarded.
func (c *Controller) Start(ctx context.Context, mode Mode) error {
	if _, err := ParseMode(string(mode)); err != nil {
		return err
	}
	if !c.eng.Available() {
		return engine.ErrUnavailable
	}
	if mode == ModeOff {
		return c.Stop()
	}

	c.mu.Lock()
	c.mode = mode
	c.userStopped = false
	c.clearWakeLocked()

	if mode == ModePushToTalk {
		// Push-to-talk is driven by the one-shot listener only.
		c.continuousEnabled = false
		c.cancelRestartLocked()
		rec, recognizing := c.rec, c.recognizing
		c.notifyLocked()
		c.mu.Unlock()
		if recognizing && rec != nil {
			_ = rec.Stop()
		}
		return nil
	}

	c.continuousEnabled = true
	if err := c.ensureLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	rec, recognizing := c.rec, c.recognizing
	if !recognizing {
		c.applyLocked(fsm.EventStart)
	}
	c.notifyLocked()
	c.mu.Unlock()

	if recognizing {
		return nil
	}
	if err := rec.Start(ctx); err != nil && !errors.Is(err, engine.ErrAlreadyStarted) {
		return fmt.Errorf("start recognition session: %w", err)
	}
	return nil
}

// Stop ends listening on explicit user intent and suppresses auto-restart.
func (c *Controller) Stop() error {
	c.mu.Lock()
	c.userStopped = true
	c.continuousEnabled = false
	c.cancelRestartLocked()
	c.clearWakeLocked()
	rec, recognizing := c.rec, c.recognizing
	c.notifyLocked()
	c.mu.Unlock()

	if recognizing && rec != nil {
		_ = rec.Stop() // already-stopped races are discarded
	}
	return nil
}

// SetMode switches branch logic without starting the engine. Switching to
// off or push_to_talk stops the continuous session.
func (c *Controller) SetMode(mode Mode) error {
	if _, err := ParseMode(string(mode)); err != nil {
		return err
	}

	c.mu.Lock()
	if mode == c.mode {
		c.mu.Unlock()
		return nil
	}
	c.mode = mode
	c.clearWakeLocked()

	switch mode {
	case ModeOff, ModePushToTalk:
		c.continuousEnabled = false
		c.cancelRestartLocked()
		if mode == ModeOff {
			c.userStopped = true
		}
		rec, recognizing := c.rec, c.recognizing
		c.notifyLocked()
		c.mu.Unlock()
		if recognizing && rec != nil {
			_ = rec.Stop()
		}
		return nil
	default:
		if c.recognizing {
			c.continuousEnabled = true
		}
		c.notifyLocked()
		c.mu.Unlock()
		return nil
	}
}

// Enable is the one-call convenience used after the required user
// interaction gesture: voice on, continuous mode.
func (c *Controller) Enable(ctx context.Context) error {
	return c.Start(ctx, ModeContinuous)
}

// ensureLocked lazily constructs the single continuous recognizer.
func (c *Controller) ensureLocked() error {
	if c.rec != nil {
		return nil
	}
	rec, err := c.eng.NewRecognizer(
		engine.Options{
			Continuous:      true,
			InterimResults:  true,
			MaxAlternatives: 1,
			Language:        c.cfg.Language,
		},
		engine.Callbacks{
			Started: c.onStarted,
			Ended:   c.onEnded,
			Errored: c.onErrored,
			Result:  c.onResult,
		},
	)
	if err != nil {
		return err
	}
	c.rec = rec
	return nil
}

func (c *Controller) onStarted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recognizing = true
	c.restartPending = restartNone
	c.applyLocked(fsm.EventStarted)
	if c.wakeActive {
		c.applyLocked(fsm.EventWake)
	}
	c.notifyLocked()
}

func (c *Controller) onEnded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recognizing = false
	c.applyLocked(fsm.EventEnded)
	c.notifyLocked()

	// A late ended after an engine error must not replace the pending
	// error-path restart with the shorter end-path delay.
	if c.continuousEnabled && !c.userStopped && c.restartPending == restartNone {
		c.scheduleRestartLocked(RestartAfterEnd, c.cfg.RestartDelay)
	}
}

func (c *Controller) onErrored(err error) {
	c.mu.Lock()
	c.logDebug("engine error", "error", err.Error())
	c.recognizing = false
	c.applyLocked(fsm.EventErrored)
	rec := c.rec
	resume := c.continuousEnabled && !c.userStopped
	if resume {
		c.scheduleRestartLocked(RestartAfterError, c.cfg.ErrorRestartDelay)
	}
	c.notifyLocked()
	c.mu.Unlock()

	// Force the session down before the delayed restart; transient
	// engine errors are recoverable, never fatal.
	if rec != nil {
		_ = rec.Abort()
	}
}

func (c *Controller) scheduleRestartLocked(reason RestartReason, delay time.Duration) {
	if c.restartTimer != nil {
		c.restartTimer.Stop()
	}
	c.restartPending = reason
	c.restartTimer = time.AfterFunc(delay, func() { c.restartFire(reason) })
}

func (c *Controller) restartFire(reason RestartReason) {
	c.mu.Lock()
	c.restartTimer = nil

	// Timers race user actions and one-shot listens; re-check intent at
	// fire time instead of trusting the state captured when the restart
	// was scheduled.
	if c.restartPending != reason || !c.continuousEnabled || c.userStopped || c.recognizing ||
		c.listenBusy || (c.mode != ModeContinuous && c.mode != ModeWakeWord) {
		c.mu.Unlock()
		return
	}
	c.restartPending = restartNone
	c.restarts[reason]++
	rec := c.rec
	c.applyLocked(fsm.EventStart)
	c.mu.Unlock()

	if rec == nil {
		return
	}
	if err := rec.Start(context.Background()); err != nil && !errors.Is(err, engine.ErrAlreadyStarted) {
		c.logDebug("session restart failed", "reason", string(reason), "error", err.Error())
		return
	}
	c.logInfo("recognition session restarted", "reason", string(reason))
}

func (c *Controller) cancelRestartLocked() {
	if c.restartTimer != nil {
		c.restartTimer.Stop()
		c.restartTimer = nil
	}
	c.restartPending = restartNone
}

func (c *Controller) clearWakeLocked() {
	c.wakeActive = false
	if c.wakeTimer != nil {
		c.wakeTimer.Stop()
		c.wakeTimer = nil
	}
}

func (c *Controller) applyLocked(event fsm.Event) {
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		c.logDebug("state transition discarded", "error", err.Error())
		return
	}
	c.state = next
}

func (c *Controller) statusLocked() Status {
	return Status{
		Listening:      c.recognizing,
		Mode:           c.mode,
		WakeWordActive: c.wakeActive,
	}
}

func (c *Controller) notifyLocked() {
	c.status.Notify(c.statusLocked())
}

// emitLocked gates one accepted command through the dedup filter and
// dispatches it without blocking the callback path.
func (c *Controller) emitLocked(text string) bool {
	if !c.filter.shouldEmit(text, time.Now()) {
		c.logDebug("duplicate transcript suppressed", "transcript", text)
		return false
	}
	c.logInfo("voice command emitted", "transcript", text)
	sink := c.transcripts
	go sink.Emit(context.Background(), text)
	return true
}

func (c *Controller) logDebug(msg string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Debug(msg, args...)
}

func (c *Controller) logInfo(msg string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Info(msg, args...)
}
