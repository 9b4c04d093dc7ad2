// Package xram implements the 64 KB extended RAM shared between the
// 6502 (through register windows A/B) and the microcontroller, plus
// the mirror ring the audio engine subscribes to (spec.md §3
// "Extended RAM"). The ring is not lock-free: it is guarded by the
// same mutex as the RAM.
package xram

import "sync"

// Size is the extended RAM capacity in bytes.
const Size = 65536

// RingEntries is the capacity of the page-mirror ring.
const RingEntries = 256

// entry is one (address-low, byte) mirror of a write to the subscribed
// page.
type entry struct {
	addrLow byte
	data    byte
}

// Ram is the 64 KB byte array addressable directly by the
// microcontroller and, through windows, by the 6502.
type Ram struct {
	mu   sync.RWMutex
	data [Size]byte

	mirrorPage uint16 // high byte of the page the ring mirrors
	ring       [RingEntries]entry
	head       uint32 // next write index (monotonic, wraps via modulo)
	tail       uint32 // next read index for the single consumer
}

// New returns a zeroed Ram (hard power-up state per spec.md §3
// "Lifecycles": xram is cleared on hard power-up).
func New() *Ram {
	return &Ram{}
}

// ReadByte returns the byte at addr. Safe for concurrent use by both
// the 6502-facing window code and firmware.
func (r *Ram) ReadByte(addr uint16) byte {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.data[addr]
}

// WriteByte stores a byte at addr and mirrors it into the ring if addr
// falls on the currently subscribed page.
func (r *Ram) WriteByte(addr uint16, v byte) {
	r.mu.Lock()
	r.data[addr] = v
	if byte(addr>>8) == byte(r.mirrorPage) {
		r.ring[r.head%RingEntries] = entry{addrLow: byte(addr), data: v}
		r.head++
	}
	r.mu.Unlock()
}

// ReadBlock copies a contiguous range starting at addr into dst,
// wrapping at the 64 KB boundary. Used by firmware-side bulk API
// handlers (e.g. file reads that land in xram).
func (r *Ram) ReadBlock(addr uint16, dst []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range dst {
		dst[i] = r.data[uint16(int(addr)+i)]
	}
}

// WriteBlock copies src into xram starting at addr, wrapping at the
// 64 KB boundary, mirroring each written byte exactly like WriteByte.
func (r *Ram) WriteBlock(addr uint16, src []byte) {
	r.mu.Lock()
	for i, b := range src {
		a := uint16(int(addr) + i)
		r.data[a] = b
		if byte(a>>8) == byte(r.mirrorPage) {
			r.ring[r.head%RingEntries] = entry{addrLow: byte(a), data: b}
			r.head++
		}
	}
	r.mu.Unlock()
}

// SubscribePage selects the single 256-byte page the mirror ring
// tracks, matching "the engine subscribes to exactly one 256-byte
// page" (spec.md §3). Changing the page does not retroactively mirror
// past writes.
func (r *Ram) SubscribePage(pageHigh byte) {
	r.mu.Lock()
	r.mirrorPage = uint16(pageHigh)
	r.head = 0
	r.tail = 0
	r.mu.Unlock()
}

// DrainMirror returns ring entries produced since the last drain, in
// order, as (addrLow, data) pairs. The ring is single-consumer (the
// audio engine); concurrent drains are not supported.
func (r *Ram) DrainMirror() [][2]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.head - r.tail
	if n > RingEntries {
		// Consumer fell behind by more than the ring holds; drop the
		// oldest overrun silently, matching the bus engine's own
		// soft-error-only overrun policy (spec.md §4.1 "Failure mode").
		r.tail = r.head - RingEntries
		n = RingEntries
	}
	out := make([][2]byte, 0, n)
	for i := r.tail; i != r.head; i++ {
		e := r.ring[i%RingEntries]
		out = append(out, [2]byte{e.addrLow, e.data})
	}
	r.tail = r.head
	return out
}

// Window is a 6502-visible view into xram (spec.md §3 "xram window A/B"):
// a data byte, a signed step, and a 16-bit address. Reading or writing
// the data byte through the window post-increments the address by the
// step.
type Window struct {
	ram  *Ram
	addr uint16
	step int8
}

// NewWindow binds a Window to the shared Ram.
func NewWindow(ram *Ram) *Window { return &Window{ram: ram} }

// Addr returns the window's current xram address.
func (w *Window) Addr() uint16 { return w.addr }

// SetAddr sets the window's xram address directly (register write to
// XRAM_ADDR).
func (w *Window) SetAddr(a uint16) { w.addr = a }

// Step returns the window's signed auto-increment step.
func (w *Window) Step() int8 { return w.step }

// SetStep sets the window's signed auto-increment step (register write
// to XRAM_STEP).
func (w *Window) SetStep(s int8) { w.step = s }

// ReadData reads the byte at the window's address and post-increments
// the address by Step, per spec.md §3.
func (w *Window) ReadData() byte {
	v := w.ram.ReadByte(w.addr)
	w.addr = uint16(int32(w.addr) + int32(w.step))
	return v
}

// WriteData writes v at the window's address and post-increments the
// address by Step, per spec.md §3.
func (w *Window) WriteData(v byte) {
	w.ram.WriteByte(w.addr, v)
	w.addr = uint16(int32(w.addr) + int32(w.step))
}
