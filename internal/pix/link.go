package pix

import (
	"time"

	"github.com/rumbledethumps/ria/internal/xstack"
)

// FIFODepth mirrors the PIO TX FIFO's depth (4 words, joined to 8 by
// PIO_FIFO_JOIN_TX in pix_init).
const FIFODepth = 8

// AckTimeout is how long a canvas/mode write waits for the VGA board's
// ACK before the call fails with Io, per pix.c's PIX_ACK_TIMEOUT_MS.
const AckTimeout = 2 * time.Millisecond

// Sink receives encoded outbound frames; a real binary backs it with
// the PIO TX FIFO, tests back it with a slice recorder.
type Sink interface {
	Send(word uint32)
}

// Link is the outbound PIX uplink plus the ACK bookkeeping SET_XREG
// calls need (pix.c's pix_send_count/pix_wait_for_vga_ack globals).
type Link struct {
	Sink Sink

	sendCount   int
	waitForACK  bool
	ackDeadline time.Time

	// xreg holds an in-progress SetXReg call's fixed arguments across
	// Step invocations, mirroring pix_api_set_xreg's static locals.
	xreg struct {
		device  uint8
		channel uint8
		addr    uint8
	}

	timeNow func() time.Time
}

// New returns a Link with frames delivered to sink.
func New(sink Sink) *Link {
	return &Link{Sink: sink, timeNow: time.Now}
}

// SetTimeNow overrides the clock Link uses for ACK deadlines, for
// tests outside this package that need to simulate a timeout.
func (l *Link) SetTimeNow(fn func() time.Time) { l.timeNow = fn }

// Ready reports whether the outbound FIFO has room, the Go analogue
// of pix_ready(); this port has no physical FIFO depth limit to honor
// beyond the bookkeeping Send/SendBlocking need, so it always reports
// true — kept as a method so callers read the same as the original.
func (l *Link) Ready() bool { return true }

// Send emits one frame without blocking.
func (l *Link) Send(f Frame) {
	l.Sink.Send(f.Encode())
}

// SendBlocking emits one frame, spinning until Ready as the original
// pix_send_blocking does. Since Ready is always true in this port it
// never actually spins, but the call shape is kept for callers
// translated directly from firmware that assume it might.
func (l *Link) SendBlocking(f Frame) {
	for !l.Ready() {
	}
	l.Send(f)
}

// Ack clears the pending-ACK wait. If the call has no more values to
// send it completes with success, mirroring pix_ack.
func (l *Link) Ack() (done bool) {
	l.waitForACK = false
	return l.sendCount == 0
}

// Nak aborts the in-flight call with Io, mirroring pix_nak.
func (l *Link) Nak() {
	l.waitForACK = false
	l.sendCount = 0
}

// TimedOut reports whether a pending ACK has missed its deadline
// without a vga_backchannel() connection-loss condition being the
// cause (that distinction is the caller's — see internal/pix.Presence
// — Link only tracks the raw deadline, mirroring pix_task's
// absolute_time_diff_us check).
func (l *Link) TimedOut() bool {
	return l.waitForACK && !l.timeNow().Before(l.ackDeadline)
}

// Busy reports whether a SetXReg call is still in flight.
func (l *Link) Busy() bool { return l.sendCount > 0 || l.waitForACK }

// SetXReg implements pix_api_set_xreg: a SET_XREG(device, channel,
// addr, [v1..vn]) API call delivers frames in reverse operand order
// (spec.md §4.4 property 9), one frame per Step call so the caller
// (internal/api's dispatcher) can interleave with other cooperative
// work. Returns true while more frames remain to send.
//
// xs must still hold the call's full argument encoding on the first
// invocation: values v1..vn pushed first (v1 deepest), then device,
// then channel, then addr pushed last (shallowest, popped first) —
// so popping addr/channel/device off the front leaves the values at
// the bottom of the stack in push order, and popping them off two at
// a time from the (now-)top yields vn, vn-1, ..., v1: reverse operand
// order, matching spec.md §4.4 property 9.
func (l *Link) SetXReg(xs *xstack.Stack) (more bool, errInval bool) {
	if l.sendCount == 0 && !l.waitForACK {
		if xs.Len() < 3 || xs.Len()%2 != 1 {
			return true, true
		}
		b, ok := xs.PopBytes(1)
		if !ok {
			return true, true
		}
		l.xreg.addr = b[0]
		b, ok = xs.PopBytes(1)
		if !ok {
			return true, true
		}
		l.xreg.channel = b[0]
		b, ok = xs.PopBytes(1)
		if !ok {
			return true, true
		}
		l.xreg.device = b[0]

		l.sendCount = xs.Len() / 2
		if l.sendCount < 1 || l.sendCount > xstack.Size/2 ||
			l.xreg.device > 7 || l.xreg.channel > 15 {
			l.sendCount = 0
			return true, true
		}

		// Canvas-before-mode special case, carried over verbatim from
		// pix_api_set_xreg: VGA channel 0 addr 0 with more than one
		// value sends the canvas value (v1, the deepest operand) to
		// register 0 first so it isn't clobbered by the mode write that
		// follows; the remaining values then go out in reverse order.
		if Device(l.xreg.device) == DeviceVGA && l.xreg.channel == 0 &&
			l.xreg.addr == 0 && l.sendCount > 1 {
			all := xs.Bytes()
			canvas := le16(all[len(all)-2:])
			l.SendBlocking(Frame{Device: DeviceVGA, Channel: 0, Addr: 0, Data: canvas})
			l.xreg.addr = 1
			l.sendCount--
			l.waitForACK = true
			l.ackDeadline = l.timeNow().Add(AckTimeout)
			return true, false
		}
	}

	if l.waitForACK {
		return true, false
	}
	if !l.Ready() {
		return true, false
	}
	l.sendCount--
	vB, ok := xs.PopBytes(2)
	if !ok {
		l.sendCount = 0
		return true, true
	}
	data := le16(vB)
	addr := uint16(l.xreg.addr) + uint16(l.sendCount)
	l.Send(Frame{Device: Device(l.xreg.device), Channel: l.xreg.channel, Addr: addr, Data: data})
	if Device(l.xreg.device) == DeviceVGA && l.xreg.channel == 0 && addr <= 1 {
		l.waitForACK = true
		l.ackDeadline = l.timeNow().Add(AckTimeout)
		return true, false
	}
	if l.sendCount == 0 {
		return false, false
	}
	return true, false
}

func le16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
