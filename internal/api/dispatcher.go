// Package api implements the system-call (API) protocol (spec.md §4.4
// "API Protocol (C4)"), grounded on original_source/src/ria/api/api.c's
// api_task/main_api cooperative dispatch loop and its xstack argument
// marshaling helpers (api_pop_*_end, api_return_*).
//
// There is no 6502 register file to write results into (this port
// doesn't emulate 6502 instructions — see internal/cpu's package
// doc), so "writes results back into A/X" from spec.md §4.4 step 3 is
// modeled as a Result value a caller can inspect directly instead of a
// simulated register write.
package api

import (
	"github.com/rumbledethumps/ria/internal/apifs"
	"github.com/rumbledethumps/ria/internal/bus"
	"github.com/rumbledethumps/ria/internal/errno"
	"github.com/rumbledethumps/ria/internal/fs"
	"github.com/rumbledethumps/ria/internal/pix"
	"github.com/rumbledethumps/ria/internal/xram"
	"github.com/rumbledethumps/ria/internal/xstack"
)

// Opcodes dispatched from the register window's API_OP byte
// (spec.md §6 "$FFEF API_OP").
const (
	OpErrnoOpt byte = 0x01
	OpOpen     byte = 0x02
	OpClose    byte = 0x03
	OpRead     byte = 0x04
	OpWrite    byte = 0x05
	OpJmp      byte = 0x06
	OpExit     byte = 0x07
	OpRTCGet   byte = 0x08
	OpRTCSet   byte = 0x09
	OpSetXReg  byte = 0x0A
)

// Handler implements one opcode. It returns true if it wants to be
// invoked again on the next Poll (a cooperative handler still working
// through a large transfer), mirroring main_api's boolean return that
// api_task checks with `!main_api(op)`.
type Handler func(d *Dispatcher) bool

// Result stands in for the 6502's A/X registers after a call
// completes (see package doc).
type Result struct {
	A, X  byte
	Errno errno.Errno
}

// Dispatcher is the API call dispatcher (C4). It does not run on its
// own goroutine; Poll is called once per main-loop tick, the software
// analogue of api_task.
type Dispatcher struct {
	Window *bus.Window
	XStack *xstack.Stack
	XRAM   *xram.Ram
	Pool   *apifs.Pool
	Volume fs.Volume
	Pix    *pix.Link

	Numbering errno.Numbering

	handlers map[byte]Handler

	activeOp byte
	busy     bool
	io       *transfer

	LastResult Result

	// JumpAddr and ExitCode are set by the jmp/exit handlers and
	// consumed by the orchestrator, which alone knows how to drive
	// cpu.Controller; the dispatcher stays CPU-agnostic. Cleared by
	// the orchestrator after it acts on them.
	JumpAddr *uint16
	ExitCode *byte
}

// New constructs a Dispatcher with the built-in handler table
// registered.
func New(window *bus.Window, xs *xstack.Stack, xr *xram.Ram, pool *apifs.Pool, volume fs.Volume) *Dispatcher {
	d := &Dispatcher{
		Window:   window,
		XStack:   xs,
		XRAM:     xr,
		Pool:     pool,
		Volume:   volume,
		handlers: make(map[byte]Handler),
	}
	d.registerBuiltins()
	return d
}

// Register installs or replaces the handler for op.
func (d *Dispatcher) Register(op byte, h Handler) { d.handlers[op] = h }

// LatchOpcode records op as the call to process, the software
// analogue of the action loop latching API_OP into api_active_op. A
// latch observed while already busy is dropped (spec.md §4.2 "0x1E
// (API opcode latch): record the opcode byte if the API is not
// already busy").
func (d *Dispatcher) LatchOpcode(op byte) {
	if d.busy {
		return
	}
	d.activeOp = op
	d.busy = true
}

// Busy reports whether a call is in flight; wired to
// internal/action.Loop.APIBusy.
func (d *Dispatcher) Busy() bool { return d.busy }

// Poll drives one dispatch tick (api_task/main_api). It is a no-op
// when no call is latched.
func (d *Dispatcher) Poll() {
	if !d.busy {
		return
	}
	h, ok := d.handlers[d.activeOp]
	if !ok {
		d.returnErrno(errno.NoSys)
		d.finish()
		return
	}
	if !h(d) {
		d.finish()
	}
}

func (d *Dispatcher) finish() {
	d.busy = false
	d.activeOp = 0
	d.io = nil
	d.XStack.Reset()
}

// Cancel aborts any in-flight call, clearing busy state and the
// xstack — spec.md §4.4 "Cancellation: a halt or reset clears
// API_BUSY ... and discards pending cooperative work."
func (d *Dispatcher) Cancel() {
	d.busy = false
	d.activeOp = 0
	d.io = nil
	d.XStack.Reset()
}

func (d *Dispatcher) returnAX(ax int16) {
	d.LastResult.A = byte(ax)
	d.LastResult.X = byte(uint16(ax) >> 8)
	d.LastResult.Errno = errno.OK
	d.Window.Set(bus.ApiErrno, byte(errno.Platform(errno.OK, d.Numbering)))
}

func (d *Dispatcher) returnErrno(e errno.Errno) {
	d.LastResult.A, d.LastResult.X = 0xFF, 0xFF
	d.LastResult.Errno = e
	d.Window.Set(bus.ApiErrno, byte(errno.Platform(e, d.Numbering)))
}

func le16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
