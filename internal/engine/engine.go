// Package engine adapts the remote continuous speech-recognition service
// behind a recognizer abstraction with lifecycle callbacks.
package engine

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable indicates no recognition engine was detected; every
	// dependent operation degrades to a no-op.
	ErrUnavailable = errors.New("speech recognition engine unavailable")
	// ErrAlreadyStarted indicates a start request on a running recognizer.
	ErrAlreadyStarted = errors.New("recognizer already started")
)

// Result is one recognition alternative delivered by the engine.
type Result struct {
	Transcript string
	Final      bool
}

// Batch is one result-callback invocation: the results delivered for this
// event plus the index of the first result within the session's result list.
type Batch struct {
	Index   int
	Results []Result
}

// Callbacks receive recognizer lifecycle and result events. All callbacks
// are invoked from a single goroutine per recognizer.
type Callbacks struct {
	Started func()
	Ended   func()
	Errored func(error)
	Result  func(Batch)
}

// Options configure one recognizer instance.
type Options struct {
	Continuous      bool
	InterimResults  bool
	MaxAlternatives int
	Language        string
}

// Recognizer is one engine session handle. Start may be called again after
// the session ends; Stop requests a graceful end (the ended callback
// follows), Abort tears the session down immediately.
type Recognizer interface {
	Start(context.Context) error
	Stop() error
	Abort() error
}

// Engine produces recognizer instances when the platform primitive is
// available.
type Engine interface {
	Available() bool
	NewRecognizer(Options, Callbacks) (Recognizer, error)
}
