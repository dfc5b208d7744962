// Package trigger bridges hardware push-to-talk inputs, a global media
// key and the MPRIS remote-control interface, to the one-shot listener.
package trigger

import (
	"context"
	"log/slog"
	"sync"
)

// Options selects which hardware bridges to run.
type Options struct {
	MediaKeys bool
	MPRIS     bool
}

// Manager owns the enabled trigger bridges and funnels their events into
// one fire function. Overlapping trigger events are dropped while a fire
// is still in flight; the listener resolves one utterance at a time.
type Manager struct {
	logger *slog.Logger
	opts   Options
	fire   func()

	mu      sync.Mutex
	running bool
	inFire  bool
	stops   []func()
}

// New builds a trigger manager. A nil logger disables trigger logging.
func New(logger *slog.Logger, opts Options, fire func()) *Manager {
	return &Manager{logger: logger, opts: opts, fire: fire}
}

// Start launches the enabled bridges. A bridge that fails to initialize is
// logged and skipped; triggers are a convenience, not a dependency.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	if m.opts.MediaKeys {
		stop := m.startMediaKeys()
		if stop != nil {
			m.addStop(stop)
		}
	}
	if m.opts.MPRIS {
		stop, err := m.startMPRIS()
		if err != nil {
			m.logWarn("mpris trigger unavailable", "error", err.Error())
		} else {
			m.addStop(stop)
		}
	}

	go func() {
		<-ctx.Done()
		m.Stop()
	}()
}

// Stop shuts down all running bridges.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	stops := m.stops
	m.stops = nil
	m.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
}

// dispatch runs the fire function once, dropping events that arrive while
// a previous fire is still resolving.
func (m *Manager) dispatch() {
	m.mu.Lock()
	if m.inFire {
		m.mu.Unlock()
		m.logDebug("trigger dropped: listen already in flight")
		return
	}
	m.inFire = true
	m.mu.Unlock()

	go func() {
		defer func() {
			m.mu.Lock()
			m.inFire = false
			m.mu.Unlock()
		}()
		m.fire()
	}()
}

func (m *Manager) addStop(stop func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops = append(m.stops, stop)
}

func (m *Manager) logDebug(msg string, args ...any) {
	if m.logger == nil {
		return
	}
	m.logger.Debug(msg, args...)
}

func (m *Manager) logWarn(msg string, args ...any) {
	if m.logger == nil {
		return
	}
	m.logger.Warn(msg, args...)
}

func (m *Manager) logInfo(msg string, args ...any) {
	if m.logger == nil {
		return
	}
	m.logger.Info(msg, args...)
}
