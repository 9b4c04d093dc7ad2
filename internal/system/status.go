package system

import "fmt"

// Status renders a one-line-per-subsystem operator status dump, the
// monitor's "status" command (original_source/src/ria/mon/hlp.c's
// command table names "status" alongside reset/load).
func (m *Machine) Status() string {
	s := fmt.Sprintf(
		"cpu=%s phi2=%dkHz api_busy=%v overruns=%d",
		m.Controller.State(), m.Controller.Clock().Phi2KHz,
		m.API.Busy(), m.Engine.Action.OverrunCount(),
	)
	if m.Presence != nil {
		s += fmt.Sprintf(" pix=%s", m.Presence.State())
	} else {
		s += " pix=disabled"
	}
	if m.Audio.Active() {
		s += " audio=active"
	} else {
		s += " audio=idle"
	}
	return s
}
