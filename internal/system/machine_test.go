package system

import (
	"testing"

	"github.com/rumbledethumps/ria/internal/cpu"
	"github.com/rumbledethumps/ria/internal/fs"
)

type fakeUART struct{}

func (fakeUART) Writable() bool { return true }
func (fakeUART) Write(byte)     {}
func (fakeUART) Readable() bool { return false }
func (fakeUART) Read() byte     { return 0 }

func newTestMachine() *Machine {
	return New(DefaultConfig(), fakeUART{}, nil, nil)
}

func TestNewWiresSubsystemsAndStartsHalted(t *testing.T) {
	m := newTestMachine()
	if m.Controller.State() != cpu.StateHalted {
		t.Fatalf("expected a fresh machine to start halted, got %s", m.Controller.State())
	}
	if m.Pix != nil {
		t.Fatal("PIX link should be nil when EnableVGA is false")
	}
	if m.Audio.Active() {
		t.Fatal("audio pump should be inactive with no backend plugged")
	}
}

func TestTickConsumesJumpAddress(t *testing.T) {
	m := newTestMachine()
	addr := uint16(0x1234)
	m.API.JumpAddr = &addr
	m.Tick()
	if m.API.JumpAddr != nil {
		t.Fatal("Tick should clear JumpAddr once consumed")
	}
	if got := m.Window.ResetVector(); got != addr {
		t.Fatalf("expected reset vector %#x, got %#x", addr, got)
	}
}

func TestTickConsumesExitCode(t *testing.T) {
	m := newTestMachine()
	code := byte(7)
	m.API.ExitCode = &code
	m.Tick() // consumeExit marks the controller Done
	if m.API.ExitCode != nil {
		t.Fatal("Tick should clear ExitCode once consumed")
	}
	m.Tick() // Controller.Tick resolves Done back to Halted
	if m.Controller.State() != cpu.StateHalted {
		t.Fatalf("expected Done to resolve back to halted, got %s", m.Controller.State())
	}
}

func TestStatusReportsSubsystemSummary(t *testing.T) {
	m := newTestMachine()
	s := m.Status()
	if s == "" {
		t.Fatal("expected a non-empty status line")
	}
}

func TestRegByNameRoundTrips(t *testing.T) {
	m := newTestMachine()
	if !m.WriteRegByName("api_errno", 0x2A) {
		t.Fatal("expected a known register name to be writable")
	}
	v, ok := m.ReadRegByName("API_ERRNO")
	if !ok || v != 0x2A {
		t.Fatalf("got %#x, ok=%v", v, ok)
	}
	if _, ok := m.ReadRegByName("NOPE"); ok {
		t.Fatal("expected an unknown register name to report ok=false")
	}
}

func TestLoadFileStagesFastStore(t *testing.T) {
	m := newTestMachine()
	f, err := m.Volume.Open("PROG.BIN", fs.OpenWrite|fs.OpenCreateAlways)
	if err != nil {
		t.Fatalf("seed file: %v", err)
	}
	if _, err := f.Write([]byte{0xDE, 0xAD, 0xBE, 0xEF}); err != nil {
		t.Fatalf("write seed file: %v", err)
	}
	f.Close()

	if err := m.LoadFile("PROG.BIN"); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if m.Controller.State() != cpu.StateResetAsserted {
		t.Fatalf("expected the fast-store jump to assert reset, got %s", m.Controller.State())
	}
	if got := m.Window.ResetVector(); got != 0xFFF0 {
		t.Fatalf("expected the fast-store entry vector 0xFFF0, got %#x", got)
	}
}

func TestCancelClearsAPIState(t *testing.T) {
	m := newTestMachine()
	m.XStack.Push6502(1)
	m.API.LatchOpcode(0xFE)
	m.Cancel()
	if m.API.Busy() {
		t.Fatal("expected Cancel to clear busy state")
	}
}
