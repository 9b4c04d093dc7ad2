package pix

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rumbledethumps/ria/internal/xstack"
)

type recorder struct{ words []uint32 }

func (r *recorder) Send(word uint32) { r.words = append(r.words, word) }

func pushSetXReg(xs *xstack.Stack, device, channel, addr uint8, values ...uint16) {
	for _, v := range values {
		xs.Push6502(byte(v >> 8))
		xs.Push6502(byte(v))
	}
	xs.Push6502(device)
	xs.Push6502(channel)
	xs.Push6502(addr)
}

func TestFrameEncodeRoundTripsFields(t *testing.T) {
	f := Frame{Device: 3, Channel: 9, Addr: 0x1AB, Data: 0xBEEF}
	w := f.Encode()
	require.Equal(t, uint8(3), uint8(w>>29)&0x7)
	require.Equal(t, uint8(9), uint8(w>>25)&0xF)
	require.Equal(t, uint16(0x1AB), uint16(w>>16)&0x1FF)
	require.Equal(t, uint16(0xBEEF), uint16(w))
}

func TestSetXRegDeliversValuesInReverseOperandOrder(t *testing.T) {
	rec := &recorder{}
	link := New(rec)
	xs := xstack.New()
	pushSetXReg(xs, 2, 5, 0x10, 0x1111, 0x2222, 0x3333)

	for {
		more, inval := link.SetXReg(xs)
		require.False(t, inval)
		if !more {
			break
		}
	}

	require.Len(t, rec.words, 3)
	want := []Frame{
		{Device: 2, Channel: 5, Addr: 0x12, Data: 0x3333},
		{Device: 2, Channel: 5, Addr: 0x11, Data: 0x2222},
		{Device: 2, Channel: 5, Addr: 0x10, Data: 0x1111},
	}
	for i, f := range want {
		require.Equal(t, f.Encode(), rec.words[i], "frame %d", i)
	}
}

func TestSetXRegCanvasBeforeModeSpecialCase(t *testing.T) {
	rec := &recorder{}
	link := New(rec)
	link.timeNow = func() time.Time { return time.Unix(0, 0) }
	xs := xstack.New()
	pushSetXReg(xs, uint8(DeviceVGA), 0, 0, 0xAAAA, 0xBBBB)

	more, inval := link.SetXReg(xs)
	require.False(t, inval)
	require.True(t, more, "still waiting for the VGA ack before the mode write")
	require.Len(t, rec.words, 1, "canvas value sent synchronously first")
	require.Equal(t, Frame{Device: DeviceVGA, Channel: 0, Addr: 0, Data: 0xAAAA}.Encode(), rec.words[0])

	require.False(t, link.Ack(), "the mode write is still pending")
	more, inval = link.SetXReg(xs)
	require.False(t, inval)
	require.True(t, more, "the mode write also waits for its own ack")
	require.Len(t, rec.words, 2)
	require.Equal(t, Frame{Device: DeviceVGA, Channel: 0, Addr: 1, Data: 0xBBBB}.Encode(), rec.words[1])

	require.True(t, link.Ack(), "no values remain after the mode write")
}

func TestSetXRegInvalidDeviceReturnsInval(t *testing.T) {
	link := New(&recorder{})
	xs := xstack.New()
	pushSetXReg(xs, 9, 0, 0, 0x1234)
	_, inval := link.SetXReg(xs)
	require.True(t, inval)
}

func TestAckTimeoutAbandonsCall(t *testing.T) {
	rec := &recorder{}
	link := New(rec)
	now := time.Unix(1000, 0)
	link.timeNow = func() time.Time { return now }
	xs := xstack.New()
	pushSetXReg(xs, uint8(DeviceVGA), 0, 0, 0x0001)

	more, inval := link.SetXReg(xs)
	require.False(t, inval)
	require.True(t, more)
	require.False(t, link.TimedOut())

	now = now.Add(3 * time.Millisecond)
	require.True(t, link.TimedOut())
	link.Nak()
	require.False(t, link.Busy())
}

func TestPresenceFoundThenConnectedOnVersionLine(t *testing.T) {
	p := NewPresence(New(&recorder{}))
	p.BeginTest()
	require.Equal(t, Testing, p.State())
	p.ReceiveIdentityLine("VGA1", false)
	require.Equal(t, Found, p.State())

	for _, b := range []byte("RP6502-VGA v1\n") {
		p.ReceiveBackchannelByte(b)
	}
	require.Equal(t, Connected, p.State())
	require.Equal(t, "RP6502-VGA v1", p.VersionMessage())
}

func TestPresenceNotFoundOnWrongIdentity(t *testing.T) {
	p := NewPresence(New(&recorder{}))
	p.BeginTest()
	p.ReceiveIdentityLine("NOPE", false)
	require.Equal(t, NotFound, p.State())
}

func TestPresenceVsyncWatchdogTripsConnectionLost(t *testing.T) {
	p := NewPresence(New(&recorder{}))
	now := time.Unix(2000, 0)
	p.timeNow = func() time.Time { return now }
	p.BeginTest()
	p.ReceiveIdentityLine("VGA1", false)
	for _, b := range []byte("v1\n") {
		p.ReceiveBackchannelByte(b)
	}
	require.Equal(t, Connected, p.State())

	lost := false
	p.OnConnectionLost(func() { lost = true })
	now = now.Add(40 * time.Millisecond)
	p.Tick()
	require.Equal(t, ConnectionLost, p.State())
	require.True(t, lost)
}

func TestPresenceVsyncFrameTracksBackchannelPulses(t *testing.T) {
	p := NewPresence(New(&recorder{}))
	p.BeginTest()
	p.ReceiveIdentityLine("VGA1", false)
	for _, b := range []byte("v1\n") {
		p.ReceiveBackchannelByte(b)
	}
	p.ReceiveBackchannelByte(0x85)
	require.Equal(t, byte(5), p.VsyncFrame())
	p.ReceiveBackchannelByte(0x82)
	require.Equal(t, byte(0x12), p.VsyncFrame())
}
