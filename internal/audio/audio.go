// Package audio models the core's side of the audio backend boundary
// (spec.md §1 "external collaborator" list), grounded on
// original_source/src/ria/aud/aud.c's aud_setup/aud_task function-
// pointer registration. The PWM/OPL synthesis engine itself is out of
// scope; this package only exposes the narrow interface the main loop
// drives once per iteration.
package audio

// Sink is a pluggable audio backend, the Go analogue of aud_setup's
// four function pointers (start_fn/stop_fn/reclock_fn/task_fn).
type Sink interface {
	Start()
	Stop()
	Reclock(sysClkKHz uint32)
	Task()
}

// Pump holds the currently plugged Sink and drives it from the main
// loop, mirroring aud_task calling through aud_task_fn.
type Pump struct {
	sink Sink
}

// NewPump returns a Pump with no backend plugged in, equivalent to
// aud_init leaving aud_task_fn at aud_nop.
func NewPump() *Pump { return &Pump{} }

// Plug installs sink as the active backend, stopping any previously
// plugged one first, mirroring aud_setup's guard against redundant
// reclock_fn churn when the same backend is re-plugged.
func (p *Pump) Plug(sink Sink, sysClkKHz uint32) {
	if p.sink == sink {
		return
	}
	if p.sink != nil {
		p.sink.Stop()
	}
	p.sink = sink
	if p.sink != nil {
		p.sink.Start()
		p.sink.Reclock(sysClkKHz)
	}
}

// Stop tears down the active backend, mirroring aud_stop.
func (p *Pump) Stop() {
	if p.sink != nil {
		p.sink.Stop()
		p.sink = nil
	}
}

// Reclock forwards a PHI2 reclock event to the active backend,
// mirroring aud_post_reclock.
func (p *Pump) Reclock(sysClkKHz uint32) {
	if p.sink != nil {
		p.sink.Reclock(sysClkKHz)
	}
}

// Task drives the active backend once, mirroring aud_task. A no-op
// when no backend is plugged in.
func (p *Pump) Task() {
	if p.sink != nil {
		p.sink.Task()
	}
}

// Active reports whether a backend is currently plugged in.
func (p *Pump) Active() bool { return p.sink != nil }
