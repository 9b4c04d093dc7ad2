// Package action implements the 6502 I/O action loop (spec.md §4.2
// "Action Loop (C2)"), grounded line-for-line on
// original_source/src/ria.c's ria_action_loop switch statement. It runs
// as a single goroutine draining internal/pio.ActionFIFO and
// dispatching on the low 5 bits of the captured address; it never
// blocks on anything but that FIFO, and every side effect it performs
// is probe-or-skip, matching the original's "bypass the usual SDK
// calls as needed for performance" non-blocking discipline.
package action

import (
	"context"

	"github.com/rumbledethumps/ria/internal/bus"
	"github.com/rumbledethumps/ria/internal/cpu"
	"github.com/rumbledethumps/ria/internal/loader"
	"github.com/rumbledethumps/ria/internal/pio"
)

// Register window offsets the dispatch table reacts to, named after
// ria_action_loop's case labels. $FFF6 (addr5 0x16) is the fast-store
// stepper's mutated/terminator byte (ria_action_ram_write), $FFF7
// (addr5 0x17) the fast-load stepper's (ria_action_ram_read) —
// spec.md §4.3 step 1 names 0xFFF6 "the fast-store step address".
const (
	addrStatusProbe   = 0x00
	addrUARTTx        = 0x01
	addrUARTRxProbe   = 0x02
	addrHostConsole   = 0x0E
	addrHalt          = 0x0F
	addrFastStoreStep = 0x16
	addrFastLoadStep  = 0x17
	addrAPIOpcode     = 0x1E
)

// UART is the console serial port the action loop shims between the
// 6502's UART registers and the host. A real binary backs this with
// an actual serial device; tests back it with an in-memory fake.
type UART interface {
	Writable() bool
	Write(b byte)
	Readable() bool
	Read() byte
}

// Loop is the action-loop dispatcher. Construct with New, then run it
// with Run on its own goroutine.
type Loop struct {
	Window     *bus.Window
	Action     *pio.ActionFIFO
	Controller *cpu.Controller
	UART       UART

	store *loader.StoreStub
	load  *loader.LoadStub

	// OnAPIOpcode is invoked when an API-opcode-latch event (addr5
	// 0x1E) is observed and the API is not already busy; it hands the
	// opcode byte to the API dispatcher on the main thread, the "pump
	// callback" pattern spec.md §9 calls for to avoid a cyclic package
	// dependency between the action loop and the API layer.
	OnAPIOpcode func(op byte)
	// APIBusy reports whether the API dispatcher is still processing a
	// prior call; a latch observed while busy is dropped, matching
	// ria_action_loop's intent (case 0x1E only takes effect "if the
	// API is not already busy" per spec.md §4.2).
	APIBusy func() bool
}

// New constructs a Loop wired to window, fifo and ctrl, with UART u as
// the console shim.
func New(window *bus.Window, fifo *pio.ActionFIFO, ctrl *cpu.Controller, u UART) *Loop {
	return &Loop{Window: window, Action: fifo, Controller: ctrl, UART: u}
}

// StartFastStore installs a fast-store stub for buf at addr, stages its
// program bytes into the register window, and jumps the 6502 there
// (spec.md §4.3 steps 1-3).
func (l *Loop) StartFastStore(addr uint16, buf []byte) {
	l.store = loader.NewStoreStub(addr, buf)
	l.writeStage(l.store.Stage)
	l.Controller.Jump(l.Window, 0xFFF0)
}

// StartFastLoad installs a fast-load stub reading n bytes from addr.
func (l *Loop) StartFastLoad(addr uint16, n int) {
	l.load = loader.NewLoadStub(addr, n)
	l.writeStage(l.load.Stage)
	l.Controller.Jump(l.Window, 0xFFF0)
}

// FastLoadResult returns the bytes drained so far by an active
// fast-load, for callers polling completion via Controller.State.
func (l *Loop) FastLoadResult() []byte {
	if l.load == nil {
		return nil
	}
	return l.load.Bytes()
}

func (l *Loop) writeStage(stage loader.Stage) {
	for i, b := range stage {
		l.Window.Set(bus.FastIOStart+uint8(i), b)
	}
}

// Run drains the action FIFO until ctx is cancelled. It is the
// software analogue of ria_action_loop's `while (true)`.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-l.Action.Chan():
			if !ok {
				return nil
			}
			l.dispatch(ev)
		}
	}
}

// dispatch implements step 2 and 3 of spec.md §4.2.
func (l *Loop) dispatch(ev pio.ActionEvent) {
	if l.Controller.State() != cpu.StateRunning {
		return // reset asserted: discard (spec.md §4.2 step 2)
	}
	switch ev.Addr5 {
	case addrFastLoadStep:
		l.stepFastLoad()
	case addrFastStoreStep:
		l.stepFastStore()
	case addrHostConsole:
		if l.UART != nil && l.UART.Writable() {
			l.UART.Write(ev.Data8)
		}
	case addrHalt:
		l.Controller.MarkDone()
	case addrUARTRxProbe:
		l.refreshRX()
	case addrUARTTx:
		if l.UART != nil {
			l.UART.Write(ev.Data8)
		}
		l.refreshTXBit()
	case addrStatusProbe:
		l.refreshTXBit()
		if l.Window.Get(bus.Status)&bus.StatusRXReady == 0 {
			l.refreshRX()
		}
	case addrAPIOpcode:
		if l.OnAPIOpcode != nil && (l.APIBusy == nil || !l.APIBusy()) {
			l.OnAPIOpcode(ev.Data8)
		}
	}
}

func (l *Loop) stepFastStore() {
	if l.store == nil {
		return
	}
	st := l.store.Step()
	l.writeStage(l.store.Stage)
	if st == loader.StateDone {
		l.Controller.MarkDone()
		l.store = nil
	}
}

func (l *Loop) stepFastLoad() {
	if l.load == nil {
		return
	}
	latched := l.Window.Get(bus.ResetVecLo)
	st := l.load.Step(latched)
	l.writeStage(l.load.Stage)
	if st == loader.StateDone {
		l.Controller.MarkDone()
	}
}

func (l *Loop) refreshTXBit() {
	if l.UART != nil && l.UART.Writable() {
		l.Window.SetStatusBit(bus.StatusTXReady, true)
	} else {
		l.Window.SetStatusBit(bus.StatusTXReady, false)
	}
}

func (l *Loop) refreshRX() {
	if l.UART != nil && l.UART.Readable() {
		l.Window.Set(bus.UARTRx, l.UART.Read())
		l.Window.SetStatusBit(bus.StatusRXReady, true)
	} else {
		l.Window.Set(bus.UARTRx, 0)
		l.Window.SetStatusBit(bus.StatusRXReady, false)
	}
}
