package trigger

import (
	hook "github.com/robotn/gohook"
)

// triggerKeys are the keys the global hook fires on. F9 doubles as the
// push-to-talk key on scorer tablets without dedicated media keys.
var triggerKeys = []string{"f9"}

// startMediaKeys installs the global key hook and returns its stop
// function. The hook event loop runs until hook.End is called.
func (m *Manager) startMediaKeys() func() {
	hook.Register(hook.KeyDown, triggerKeys, func(hook.Event) {
		m.dispatch()
	})

	events := hook.Start()
	go func() {
		<-hook.Process(events)
	}()

	m.logInfo("media-key trigger armed", "keys", triggerKeys)
	return func() {
		hook.End()
	}
}
