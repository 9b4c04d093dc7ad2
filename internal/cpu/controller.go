// Package cpu implements the CPU control state machine (spec.md §3
// "CPU control state"), grounded on original_source/src/ria.c's
// ria_halt/ria_reset/ria_task state transitions
// (halt -> reset -> run -> done). It does not interpret 6502
// instructions: the 6502 is an external collaborator the rest of this
// module talks to only through internal/bus.Window and
// internal/pio.ActionFIFO, exactly as spec.md's "explicit non-goals"
// requires ("cycle-accurate emulation of any other 6502 machine").
package cpu

import (
	"bytes"
	"encoding/gob"
	"time"

	"github.com/rumbledethumps/ria/internal/bus"
	"github.com/rumbledethumps/ria/internal/clock"
	"github.com/rumbledethumps/ria/internal/pio"
)

// State mirrors original_source/src/ria.c's "enum state".
type State int

const (
	StateHalted State = iota
	StateResetAsserted
	StateRunning
	StateDone
)

func (s State) String() string {
	switch s {
	case StateHalted:
		return "halted"
	case StateResetAsserted:
		return "reset"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Controller owns the halt/reset/run/done state machine that gates the
// 6502 (ria_halt/ria_reset/ria_task). It does not run on its own
// goroutine; Tick is called from the orchestrator's main loop the way
// ria_task is called once per firmware main-loop iteration.
type Controller struct {
	engine *pio.Engine
	clock  clock.Config

	state      State
	resetUntil time.Time

	// regs persists across soft reboots the way real SRAM does
	// (spec.md §3 "Lifecycles": "regs live across soft reboots");
	// snapshotting it is exposed via gob so a host tool can archive and
	// restore a session (teacher's bus.go SaveState/LoadState pattern,
	// internal/bus/bus.go in the reference repo).
	regs [32]byte
}

// New constructs a Controller wired to engine, halted, at the default
// clock.
func New(engine *pio.Engine) *Controller {
	c := &Controller{engine: engine, clock: clock.New(4000)}
	c.Halt()
	return c
}

// SetClock installs a new clock configuration, used by Halt to compute
// the reset-low deadline (ria_get_reset_ms).
func (c *Controller) SetClock(cfg clock.Config) { c.clock = cfg }

// Clock returns the controller's current clock configuration.
func (c *Controller) Clock() clock.Config { return c.clock }

// State reports the current state.
func (c *Controller) State() State { return c.state }

// Halt stops the 6502: asserts reset and arms the minimum reset-low
// deadline (ria_halt).
func (c *Controller) Halt() {
	c.state = StateHalted
	c.engine.AssertReset()
	deadline := clock.ResetDeadlineUS(0, c.clock.Phi2KHz)
	c.resetUntil = timeNow().Add(time.Duration(deadline) * time.Microsecond)
}

// Reset arms a reset pulse and arranges for Tick to release it once the
// deadline has elapsed (ria_reset: halt first unless already halted,
// then move to the reset state).
func (c *Controller) Reset(reqUS uint32) {
	if c.state != StateHalted {
		c.Halt()
	}
	deadline := clock.ResetDeadlineUS(reqUS, c.clock.Phi2KHz)
	c.resetUntil = timeNow().Add(time.Duration(deadline) * time.Microsecond)
	c.state = StateResetAsserted
}

// Tick advances the state machine one step, mirroring ria_task's
// per-iteration state check. Call it from the orchestrator's main
// loop.
func (c *Controller) Tick() {
	switch c.state {
	case StateResetAsserted:
		if !timeNow().Before(c.resetUntil) {
			c.engine.ReleaseReset()
			c.state = StateRunning
		}
	case StateDone:
		c.Halt()
	}
}

// MarkDone transitions to the "done" state, set by the action loop
// when it observes the halt marker (addr5 0x0F) or a completed
// fast-load/fast-store (spec.md §4.2 "0x0F (halt marker)").
func (c *Controller) MarkDone() { c.state = StateDone }

// IsActive reports whether the 6502 is clocked (ria_is_active: state
// is reset or run).
func (c *Controller) IsActive() bool {
	return c.state == StateResetAsserted || c.state == StateRunning
}

// Jump halts the 6502, programs the reset vector to addr, and issues a
// reset pulse so the 6502 starts executing at addr (ria_jmp).
func (c *Controller) Jump(w *bus.Window, addr uint16) {
	c.Halt()
	w.SetResetVector(addr)
	c.Reset(0)
}

// timeNow is a seam so tests can avoid wall-clock flakiness; production
// callers get real time.
var timeNow = time.Now

// regsState is the gob-encoded snapshot shape, kept separate from
// Controller itself so future fields don't silently change the wire
// format (teacher's busState pattern in internal/bus/bus.go).
type regsState struct {
	Regs  [32]byte
	State State
}

// SaveState snapshots regs and the current state for archival across a
// host-process restart; it does not capture xram or xstack, which are
// volatile on real hardware too.
func (c *Controller) SaveState() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(regsState{Regs: c.regs, State: c.state})
	return buf.Bytes()
}

// LoadState restores a snapshot produced by SaveState. Malformed input
// is ignored, leaving the controller unchanged, matching the teacher's
// best-effort LoadState convention.
func (c *Controller) LoadState(data []byte) {
	var s regsState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	c.regs = s.Regs
	c.state = s.State
}

// SyncRegsFromWindow copies the register window into the persisted
// snapshot buffer; callers invoke this before SaveState if they want
// regs reflected in the archive.
func (c *Controller) SyncRegsFromWindow(w *bus.Window) {
	c.regs = w.Snapshot()
}
