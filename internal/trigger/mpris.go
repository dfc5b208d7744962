package trigger

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	mprisBusName    = "org.mpris.MediaPlayer2.scorevoice"
	mprisObjectPath = "/org/mpris/MediaPlayer2"
	mprisInterface  = "org.mpris.MediaPlayer2.Player"
)

// mprisPlayer exposes the minimal MediaPlayer2.Player surface that
// headset buttons and desktop media controls route PlayPause through.
type mprisPlayer struct {
	dispatch func()
}

func (p *mprisPlayer) PlayPause() *dbus.Error {
	p.dispatch()
	return nil
}

func (p *mprisPlayer) Play() *dbus.Error {
	p.dispatch()
	return nil
}

func (p *mprisPlayer) Pause() *dbus.Error {
	return nil
}

func (p *mprisPlayer) Stop() *dbus.Error {
	return nil
}

// startMPRIS claims the player bus name on the session bus and exports
// the PlayPause handler.
func (m *Manager) startMPRIS() (func(), error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}

	player := &mprisPlayer{dispatch: m.dispatch}
	if err := conn.Export(player, mprisObjectPath, mprisInterface); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("export mpris player: %w", err)
	}

	reply, err := conn.RequestName(mprisBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		_ = conn.Close()
		return nil, fmt.Errorf("bus name %s already owned", mprisBusName)
	}

	m.logInfo("mpris trigger armed", "bus_name", mprisBusName)
	return func() {
		_, _ = conn.ReleaseName(mprisBusName)
		_ = conn.Close()
	}, nil
}
