package action

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rumbledethumps/ria/internal/bus"
	"github.com/rumbledethumps/ria/internal/cpu"
	"github.com/rumbledethumps/ria/internal/pio"
)

type fakeUART struct {
	rx       []byte
	rxPos    int
	tx       []byte
	writable bool
}

func (u *fakeUART) Writable() bool { return u.writable }
func (u *fakeUART) Write(b byte)   { u.tx = append(u.tx, b) }
func (u *fakeUART) Readable() bool { return u.rxPos < len(u.rx) }
func (u *fakeUART) Read() byte {
	b := u.rx[u.rxPos]
	u.rxPos++
	return b
}

func newHarness(t *testing.T) (*Loop, *pio.Engine, *cpu.Controller) {
	t.Helper()
	w := bus.New()
	e := pio.New(w)
	ctrl := cpu.New(e)
	ctrl.Reset(0)
	// force running without waiting on the real clock deadline
	for ctrl.State() != cpu.StateRunning {
		ctrl.Tick()
	}
	u := &fakeUART{writable: true}
	l := New(w, e.Action, ctrl, u)
	return l, e, ctrl
}

func TestStatusProbeDrainsOneRXByte(t *testing.T) {
	l, e, _ := newHarness(t)
	u := l.UART.(*fakeUART)
	u.rx = []byte{0x42}

	e.Write6502(0xFFE0, 0)
	require.True(t, pumpOnce(l))

	require.Equal(t, byte(0x42), l.Window.Get(bus.UARTRx))
	require.NotZero(t, l.Window.Get(bus.Status)&bus.StatusRXReady)
}

func TestUARTTxUpdatesReadyBit(t *testing.T) {
	l, e, _ := newHarness(t)
	u := l.UART.(*fakeUART)

	e.Write6502(0xFFE1, 0x61)
	require.True(t, pumpOnce(l))

	require.Equal(t, []byte{0x61}, u.tx)
	require.NotZero(t, l.Window.Get(bus.Status)&bus.StatusTXReady)
}

func TestHaltMarkerTransitionsToDone(t *testing.T) {
	l, e, ctrl := newHarness(t)
	e.Write6502(0xFFEF, 0) // low 5 bits 0x0F
	require.True(t, pumpOnce(l))
	require.Equal(t, cpu.StateDone, ctrl.State())
}

func TestEventsDiscardedWhileResetAsserted(t *testing.T) {
	l, e, ctrl := newHarness(t)
	ctrl.Halt()
	// Write6502 itself won't push an event while reset is asserted
	// (pio's producer-side suppression); exercise the consumer-side
	// discard directly instead.
	l.dispatch(pio_event(0x01, 0x99))
	require.Zero(t, l.Window.Get(bus.Status)&bus.StatusTXReady)
	_ = e
}

func TestHostConsoleTxDropsWhenNotWritable(t *testing.T) {
	l, e, _ := newHarness(t)
	u := l.UART.(*fakeUART)
	u.writable = false

	e.Write6502(0xFFEE, 0x55) // low 5 bits 0x0E
	require.True(t, pumpOnce(l))
	require.Empty(t, u.tx)
}

func TestFastStoreStepAdvancesStagedProgram(t *testing.T) {
	l, _, ctrl := newHarness(t)
	l.StartFastStore(0x0200, []byte{1, 2, 3})
	require.Equal(t, byte(1), l.Window.Get(bus.FastIOStart+1))
	for ctrl.State() != cpu.StateRunning {
		ctrl.Tick()
	}

	l.dispatch(pio_event(0x16, 0))
	require.Equal(t, byte(2), l.Window.Get(bus.FastIOStart+1))
}

func TestAPIOpcodeLatchSkippedWhileBusy(t *testing.T) {
	l, _, _ := newHarness(t)
	var got byte
	l.OnAPIOpcode = func(op byte) { got = op }
	l.APIBusy = func() bool { return true }

	l.dispatch(pio_event(0x1E, 0x07))
	require.Zero(t, got)

	l.APIBusy = func() bool { return false }
	l.dispatch(pio_event(0x1E, 0x07))
	require.Equal(t, byte(0x07), got)
}

func pio_event(addr5 uint8, data byte) pio.ActionEvent {
	return pio.ActionEvent{Addr5: addr5, Data8: data}
}

// pumpOnce pops one event off the action FIFO and dispatches it
// directly on a helper goroutine, reporting false if that does not
// finish within a short deadline; it's adequate for these single-event
// tests without needing a real dispatch-count hook.
func pumpOnce(l *Loop) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	go func() {
		ev, ok := l.Action.Pop()
		if ok {
			l.dispatch(ev)
		}
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
