//go:build hardware

package main

import (
	"log"
	"os"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/rumbledethumps/ria/internal/system"
)

// resetPinEnv names the environment variable giving the real GPIO pin
// wired to the 6502's RESB line, since the name is board-specific (a
// Pi header pin, a sysfs GPIO number, etc.) and has no sane default.
const resetPinEnv = "RIA_RESET_PIN"

// wireHardware binds the bus engine's simulated reset pin to a real
// periph.io GPIO pin (theafricanengineer-periph's host.Init/
// gpioreg.ByName pattern, cmd/gpio-write/main.go), letting
// internal/pio drive an actual RESB line without any change to its
// dispatch code (it only ever talks to the pio.ResetPin interface).
func wireHardware(m *system.Machine) {
	if _, err := host.Init(); err != nil {
		log.Printf("periph host init failed, keeping the simulated reset pin: %v", err)
		return
	}
	name := os.Getenv(resetPinEnv)
	if name == "" {
		return
	}
	p := gpioreg.ByName(name)
	if p == nil {
		log.Printf("GPIO pin %q not found, keeping the simulated reset pin", name)
		return
	}
	m.Engine.SetResetPin(p)
	log.Printf("bound RESB to GPIO pin %s", name)
}
