// Package fsm defines the recognition-session state machine.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle         State = "idle"
	StateStarting     State = "starting"
	StateListening    State = "listening"
	StateWakeWordOpen State = "wake_word_open"
)

const (
	EventStart         Event = "start"
	EventStarted       Event = "started"
	EventEnded         Event = "ended"
	EventErrored       Event = "errored"
	EventWake          Event = "wake"
	EventCaptured      Event = "captured"
	EventWindowTimeout Event = "window_timeout"
)

func Transition(current State, event Event) (State, error) {
	if event == EventErrored {
		return StateIdle, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StateStarting, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateStarting:
		switch event {
		case EventStarted:
			return StateListening, nil
		case EventEnded:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateListening:
		switch event {
		case EventWake:
			return StateWakeWordOpen, nil
		case EventEnded:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateWakeWordOpen:
		switch event {
		case EventCaptured:
			return StateListening, nil
		case EventWindowTimeout:
			return StateListening, nil
		case EventEnded:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
