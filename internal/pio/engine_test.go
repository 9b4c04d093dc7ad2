package pio

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rumbledethumps/ria/internal/bus"
)

// TestWriteProducesExactlyOneActionEvent covers spec.md §8 property 2.
func TestWriteProducesExactlyOneActionEvent(t *testing.T) {
	w := bus.New()
	e := New(w)
	e.ReleaseReset()

	e.Write6502(0xFFE1, 0x41)

	ev, ok := e.Action.TryPop()
	require.True(t, ok)
	require.Equal(t, uint8(0x01), ev.Addr5)
	require.Equal(t, byte(0x41), ev.Data8)

	_, ok = e.Action.TryPop()
	require.False(t, ok, "exactly one event per write")
	require.Equal(t, byte(0x41), w.Get(0x01))
}

func TestEventsPreserveBurstOrder(t *testing.T) {
	w := bus.New()
	e := New(w)
	e.ReleaseReset()

	for i := byte(0); i < 10; i++ {
		e.Write6502(0xFFE1, i)
	}
	for i := byte(0); i < 10; i++ {
		ev, ok := e.Action.TryPop()
		require.True(t, ok)
		require.Equal(t, i, ev.Data8)
	}
}

func TestReadsAlwaysReturnLastWrittenValue(t *testing.T) {
	w := bus.New()
	e := New(w)
	e.ReleaseReset()
	w.Set(0x02, 0x99)
	require.Equal(t, byte(0x99), e.Read6502(0xFFE2))
}

func TestResetDiscardsEvents(t *testing.T) {
	w := bus.New()
	e := New(w)
	e.AssertReset()
	e.Write6502(0xFFE1, 0x41)
	_, ok := e.Action.TryPop()
	require.False(t, ok, "events observed during reset are discarded")
	// The window byte is still latched; only the action event is lost.
	require.Equal(t, byte(0x41), w.Get(0x01))
}

func TestOverrunIsSoftError(t *testing.T) {
	w := bus.New()
	e := New(w)
	e.Action = NewActionFIFO(1)
	e.ReleaseReset()
	e.Write6502(0xFFE1, 1)
	e.Write6502(0xFFE1, 2) // FIFO full, dropped
	require.Equal(t, uint64(1), e.Action.OverrunCount())
}

func TestDMAChainRunMirrorsWriteEngine(t *testing.T) {
	w := bus.New()
	chain := NewWriteChain(w, 0x7E)
	chain.Run(0xFFE1)
	require.Equal(t, byte(0x7E), w.Get(0x01))

	var out byte
	readChain := NewReadChain(w, &out)
	readChain.Run(0xFFE1)
	require.Equal(t, byte(0x7E), out)
}
