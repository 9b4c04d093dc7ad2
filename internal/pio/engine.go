// Package pio simulates the three programmable-I/O state machines and
// their DMA chains that form the bus engine (spec.md §4.1 "Bus
// Engine"): a clock/write sink that latches 6502 writes into the
// register window, a read source that serves 6502 reads from it, and
// an action sniffer that mirrors every I/O-page cycle onto a FIFO. Real
// RP6502 firmware drives actual PIO programs and chained DMA channels
// (original_source/src/ria.c: ria_write_init/ria_read_init/
// ria_action_init); here those are modeled as synchronous Engine
// calls (Write6502/Read6502) feeding a buffered-channel ActionFIFO,
// reproducing the documented contract — not the silicon.
//
// The reset/PHI2 control pins are expressed against periph.io's
// gpio.PinIO abstraction (theafricanengineer-periph) so that a
// `//go:build hardware` backend could later bind real pins without
// changing the dispatch code; the software Engine below plugs in a
// simulated pin for tests and headless runs.
package pio

import (
	"sync"
	"sync/atomic"

	"periph.io/x/conn/v3/gpio"

	"github.com/rumbledethumps/ria/internal/bus"
)

// ActionEvent is one FIFO entry produced by the action sniffer: a
// 5-bit window index and the 8-bit data byte involved in the cycle
// (spec.md §3 "Action FIFO").
type ActionEvent struct {
	Addr5 uint8
	Data8 byte
}

// ActionFIFO is the hardware FIFO between the bus engine and the
// action loop. It never applies backpressure to the 6502; when full,
// new events are dropped and OverrunCount is incremented — the "soft
// error" failure mode in spec.md §4.1.
type ActionFIFO struct {
	ch           chan ActionEvent
	overrunCount uint64
}

// NewActionFIFO creates a FIFO with the given buffer depth.
func NewActionFIFO(depth int) *ActionFIFO {
	return &ActionFIFO{ch: make(chan ActionEvent, depth)}
}

// Push enqueues an event, dropping it (and counting the drop) if the
// FIFO is full rather than blocking the producer.
func (f *ActionFIFO) Push(e ActionEvent) {
	select {
	case f.ch <- e:
	default:
		atomic.AddUint64(&f.overrunCount, 1)
	}
}

// Pop blocks until an event is available or the FIFO is closed.
func (f *ActionFIFO) Pop() (ActionEvent, bool) {
	e, ok := <-f.ch
	return e, ok
}

// TryPop returns immediately, reporting false if no event is queued.
func (f *ActionFIFO) TryPop() (ActionEvent, bool) {
	select {
	case e := <-f.ch:
		return e, true
	default:
		return ActionEvent{}, false
	}
}

// OverrunCount returns the number of events dropped for lack of room.
func (f *ActionFIFO) OverrunCount() uint64 {
	return atomic.LoadUint64(&f.overrunCount)
}

// Close shuts down the FIFO; subsequent Pop calls return ok=false once
// drained.
func (f *ActionFIFO) Close() { close(f.ch) }

// Chan exposes the receive side of the FIFO for callers (the action
// loop) that need to select on it alongside a cancellation channel.
func (f *ActionFIFO) Chan() <-chan ActionEvent { return f.ch }

// ResetPin is the narrow slice of periph.io's gpio.PinIO that the bus
// engine needs to drive the 6502's reset line: set a level, read it
// back. A `//go:build hardware` build can satisfy this directly with a
// periph.io gpio.PinIO obtained from host.Init()/gpioreg.ByName without
// the simulation below knowing the difference.
type ResetPin interface {
	Out(l gpio.Level) error
	Read() gpio.Level
}

// simPin is a software-only ResetPin used when no real hardware backend
// is wired in; it just remembers the last level set.
type simPin struct {
	mu    sync.Mutex
	level gpio.Level
	name  string
}

func newSimPin(name string) *simPin { return &simPin{name: name, level: gpio.High} }

func (p *simPin) String() string { return p.name }

func (p *simPin) Read() gpio.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *simPin) Out(l gpio.Level) error {
	p.mu.Lock()
	p.level = l
	p.mu.Unlock()
	return nil
}

// Engine couples the register window to the action FIFO and the
// reset/PHI2-gated write&read paths. One Engine models the whole bus
// engine: it is not itself concurrent (the goroutine split between the
// bus engine core and the action-loop core lives one layer up, in
// internal/action and cmd/ria), it simply gives the simulated PIO
// programs a shared place to land their effects.
type Engine struct {
	Window *bus.Window
	Action *ActionFIFO

	resetPin ResetPin
	running  atomic.Bool
}

// New constructs an Engine wired to window, with a default buffer depth
// for the action FIFO and a simulated reset pin.
func New(window *bus.Window) *Engine {
	e := &Engine{
		Window:   window,
		Action:   NewActionFIFO(4096),
		resetPin: newSimPin("RESB"),
	}
	return e
}

// SetResetPin swaps in a real (or differently simulated) reset pin,
// e.g. a `//go:build hardware` periph.io GPIO binding.
func (e *Engine) SetResetPin(p ResetPin) { e.resetPin = p }

// AssertReset drives the reset pin low, halting the 6502.
func (e *Engine) AssertReset() {
	e.running.Store(false)
	_ = e.resetPin.Out(gpio.Low)
}

// ReleaseReset drives the reset pin high, letting the 6502 run.
func (e *Engine) ReleaseReset() {
	_ = e.resetPin.Out(gpio.High)
	e.running.Store(true)
}

// ResetAsserted reports the current reset-pin level.
func (e *Engine) ResetAsserted() bool {
	return !e.running.Load()
}

// Write6502 simulates the 6502 issuing a bus write. If addr falls in
// the register window, the clock/write program's DMA chain latches the
// byte (Window.SetFromAddr) and the action sniffer mirrors the cycle
// onto the FIFO — both unconditionally, with no firmware intervention,
// per spec.md §4.1's contract. Writes while reset is asserted are
// still latched into the window (real silicon can't tell) but produce
// no action event, since the action loop discards events seen with
// reset asserted (spec.md §4.2) — modeled here at the producer instead
// of the consumer for simplicity; the observable behavior is identical.
func (e *Engine) Write6502(addr uint16, data byte) {
	if addr < 0xFFE0 {
		return
	}
	idx := uint8(addr) & bus.Mask
	e.Window.Set(idx, data)
	if !e.ResetAsserted() {
		e.Action.Push(ActionEvent{Addr5: idx, Data8: data})
	}
}

// Read6502 simulates the 6502 issuing a bus read, served by the read
// program's DMA chain straight from the window, and also produces one
// action event per spec.md §4.1.
func (e *Engine) Read6502(addr uint16) byte {
	if addr < 0xFFE0 {
		return 0xFF
	}
	idx := uint8(addr) & bus.Mask
	v := e.Window.Get(idx)
	if !e.ResetAsserted() {
		e.Action.Push(ActionEvent{Addr5: idx, Data8: v})
	}
	return v
}

// DMAChain documents the two-channel ping-pong pattern
// (original_source/src/ria.c's addr_chan/data_chan pair) as a named
// type rather than functions scattered across the engine: one stage
// reprograms the mover's destination/source pointer from a captured
// address, the other moves the byte. Write6502/Read6502 above perform
// the same effect directly since there is no real DMA hardware to
// program in software; DMAChain exists so the relationship is visible
// and testable on its own.
type DMAChain struct {
	// FixupAddr derives the window index from a captured bus address.
	FixupAddr func(addr uint16) uint8
	// Move performs the single-byte transfer for that index.
	Move func(idx uint8)
}

// NewWriteChain returns the DMAChain for the clock/write program: fix
// up the address, then store the captured byte at that index.
func NewWriteChain(w *bus.Window, data byte) DMAChain {
	return DMAChain{
		FixupAddr: func(addr uint16) uint8 { return uint8(addr) & bus.Mask },
		Move:      func(idx uint8) { w.Set(idx, data) },
	}
}

// NewReadChain returns the DMAChain for the read program: fix up the
// address, then stream the window's byte at that index into out.
func NewReadChain(w *bus.Window, out *byte) DMAChain {
	return DMAChain{
		FixupAddr: func(addr uint16) uint8 { return uint8(addr) & bus.Mask },
		Move:      func(idx uint8) { *out = w.Get(idx) },
	}
}

// Run executes one DMA-chain cycle for a captured address, mirroring
// "the two channels chain to each other so the pair runs forever
// without firmware intervention" (spec.md §4.1).
func (c DMAChain) Run(addr uint16) {
	idx := c.FixupAddr(addr)
	c.Move(idx)
}
