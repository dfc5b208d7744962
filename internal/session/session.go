// Package session coordinates the voice-command recognition lifecycle:
// mode handling, wake-word windows, transcript dedup, and automatic
// session recovery after engine errors or natural termination.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNoSpeech indicates a one-shot listen resolved without a usable
	// transcript (timeout, engine error, or end without result).
	ErrNoSpeech = errors.New("no speech captured")
	// ErrListenBusy indicates a one-shot listen is already in flight.
	ErrListenBusy = errors.New("one-shot listen already in flight")
	// ErrUnknownMode indicates an unrecognized mode name.
	ErrUnknownMode = errors.New("unknown mode")
)

// Mode selects which branch of result handling is active.
type Mode string

const (
	ModeOff        Mode = "off"
	ModeContinuous Mode = "continuous"
	ModeWakeWord   Mode = "wake_word"
	ModePushToTalk Mode = "push_to_talk"
)

// ParseMode validates a caller-supplied mode name.
func ParseMode(raw string) (Mode, error) {
	mode := Mode(strings.TrimSpace(raw))
	switch mode {
	case ModeOff, ModeContinuous, ModeWakeWord, ModePushToTalk:
		return mode, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, raw)
}

// Status is the UI-facing state snapshot, notified on every transition.
type Status struct {
	Listening      bool
	Mode           Mode
	WakeWordActive bool
}

// StatusSink receives status notifications. Sinks are invoked inline on
// the controller's callback path and must not call back into it.
type StatusSink interface {
	Notify(Status)
}

// StatusFunc adapts a function to the StatusSink interface.
type StatusFunc func(Status)

func (f StatusFunc) Notify(status Status) { f(status) }

// TranscriptSink receives each accepted voice command exactly once.
type TranscriptSink interface {
	Emit(context.Context, string)
}

// TranscriptFunc adapts a function to the TranscriptSink interface.
type TranscriptFunc func(context.Context, string)

func (f TranscriptFunc) Emit(ctx context.Context, transcript string) { f(ctx, transcript) }

// Config holds the tunable timings and the wake word.
type Config struct {
	WakeWord          string
	Language          string
	WakeWindow        time.Duration
	Debounce          time.Duration
	RestartDelay      time.Duration
	ErrorRestartDelay time.Duration
	SettleDelay       time.Duration
	ListenTimeout     time.Duration
}

// DefaultConfig returns the canonical session timings.
func DefaultConfig() Config {
	return Config{
		WakeWord:          "hey smashbot",
		Language:          "en-US",
		WakeWindow:        5 * time.Second,
		Debounce:          1200 * time.Millisecond,
		RestartDelay:      200 * time.Millisecond,
		ErrorRestartDelay: 400 * time.Millisecond,
		SettleDelay:       150 * time.Millisecond,
		ListenTimeout:     7 * time.Second,
	}
}

// withDefaults fills zero-valued fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if strings.TrimSpace(c.WakeWord) == "" {
		c.WakeWord = def.WakeWord
	}
	if strings.TrimSpace(c.Language) == "" {
		c.Language = def.Language
	}
	if c.WakeWindow <= 0 {
		c.WakeWindow = def.WakeWindow
	}
	if c.Debounce <= 0 {
		c.Debounce = def.Debounce
	}
	if c.RestartDelay <= 0 {
		c.RestartDelay = def.RestartDelay
	}
	if c.ErrorRestartDelay <= 0 {
		c.ErrorRestartDelay = def.ErrorRestartDelay
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = def.SettleDelay
	}
	if c.ListenTimeout <= 0 {
		c.ListenTimeout = def.ListenTimeout
	}
	return c
}
