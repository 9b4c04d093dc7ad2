//go:build !hardware

package main

import "github.com/rumbledethumps/ria/internal/system"

// wireHardware is a no-op in the default (software-simulated) build;
// see hardware.go for the `-tags hardware` build that binds a real
// periph.io GPIO pin.
func wireHardware(m *system.Machine) {}
