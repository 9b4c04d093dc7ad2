package system

import "github.com/rumbledethumps/ria/internal/bus"

// regByName maps the monitor's "reg" command argument to a register
// window offset (spec.md §6 "Register window (6502-visible)").
var regByName = map[string]uint8{
	"STATUS":     bus.Status,
	"UART_TX":    bus.UARTTx,
	"UART_RX":    bus.UARTRx,
	"VSYNC":      bus.Vsync,
	"XRAM_A_DATA": bus.XramAData,
	"XRAM_A_STEP": bus.XramAStep,
	"XRAM_A_ADDR_LO": bus.XramAAddrLo,
	"XRAM_A_ADDR_HI": bus.XramAAddrHi,
	"XRAM_B_DATA": bus.XramBData,
	"XRAM_B_STEP": bus.XramBStep,
	"XRAM_B_ADDR_LO": bus.XramBAddrLo,
	"XRAM_B_ADDR_HI": bus.XramBAddrHi,
	"API_ERRNO":  bus.ApiErrno,
	"API_OP":     bus.ApiOp,
	"RESET_LO":   bus.ResetVecLo,
	"RESET_HI":   bus.ResetVecHi,
}

// RegOffset looks up a register window offset by name, exported so
// tools outside the monitor (cmd/ria-bench's fixture runner) can drive
// the bus engine's Write6502/Read6502 at a named register without
// duplicating this table.
func RegOffset(name string) (uint8, bool) {
	idx, ok := regByName[upper(name)]
	return idx, ok
}

// ReadRegByName implements the monitor's "reg <name>" read form.
func (m *Machine) ReadRegByName(name string) (byte, bool) {
	idx, ok := regByName[upper(name)]
	if !ok {
		return 0, false
	}
	return m.Window.Get(idx), true
}

// WriteRegByName implements the monitor's "reg <name> <value>" write
// form.
func (m *Machine) WriteRegByName(name string, value byte) bool {
	idx, ok := regByName[upper(name)]
	if !ok {
		return false
	}
	m.Window.Set(idx, value)
	return true
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
