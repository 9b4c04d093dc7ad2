// Package clock computes the PHI2/system-clock relationship shared by
// all three bus-engine state machines (spec.md §3 "Clock state", §4.1
// "Reclocking policy"). It is grounded on the divider-search style of
// periph.io/x/host/v3/allwinner's clock.go (iteratively evaluate clock
// candidates against a constraint) applied to the arithmetic in
// original_source/src/ria.c's ria_set_phi2_khz.
package clock

import "fmt"

const (
	// CPUPhi2MinKHz and CPUPhi2MaxKHz bound the requested 6502 clock.
	CPUPhi2MinKHz uint32 = 1
	CPUPhi2MaxKHz uint32 = 8000

	// sysClockFloorKHz is the minimum system clock the three PIO state
	// machines are driven from; spec.md §3: "the first integer multiple
	// of PHI2 at or above 128 MHz that the PLL can actually synthesize."
	sysClockFloorKHz uint32 = 128_000

	// dividerFracBits matches the 8-bit fractional divider real PIO
	// clock dividers expose.
	dividerFracBits = 8
)

// Config is the derived clock state: the requested and achieved PHI2,
// the system clock driving all three state machines, and the shared
// integer+fractional divider (spec.md §3 invariant: "all three PIO
// state machines are re-divided together with identical ratios").
type Config struct {
	RequestedKHz uint32
	Phi2KHz      uint32
	SysClockKHz  uint32
	DividerInt   uint32
	DividerFrac  uint8
}

// clampPhi2 clamps a requested frequency to [CPUPhi2MinKHz, CPUPhi2MaxKHz].
func clampPhi2(khz uint32) uint32 {
	if khz < CPUPhi2MinKHz {
		return CPUPhi2MinKHz
	}
	if khz > CPUPhi2MaxKHz {
		return CPUPhi2MaxKHz
	}
	return khz
}

// New computes a Config for a requested PHI2 frequency. It never fails:
// any request in range yields a usable, if quantized, divider.
func New(requestedKHz uint32) Config {
	phi2 := clampPhi2(requestedKHz)

	// First integer multiple of phi2 at or above the system clock floor.
	multiple := (sysClockFloorKHz + phi2 - 1) / phi2
	if multiple == 0 {
		multiple = 1
	}
	sysClock := multiple * phi2

	// Divider is sysClock/phi2 expressed as integer+fractional parts,
	// computed exactly since sysClock is constructed as a multiple of
	// phi2 (no quantization error at this layer — quantization lives in
	// the above "first integer multiple" step, matching real PLL
	// synthesis limits rather than divider rounding).
	dividerInt := multiple
	dividerFrac := uint8(0)

	achievedPhi2 := sysClock / dividerInt

	return Config{
		RequestedKHz: requestedKHz,
		Phi2KHz:      achievedPhi2,
		SysClockKHz:  sysClock,
		DividerInt:   dividerInt,
		DividerFrac:  dividerFrac,
	}
}

// Quantization returns the maximum deviation between a requested
// frequency and what New can achieve for it, used by property 4 in
// spec.md §8. Because New constructs the system clock as an exact
// multiple of the clamped request, deviation only arises from clamping
// itself at the band edges.
func Quantization(requestedKHz uint32) uint32 {
	clamped := clampPhi2(requestedKHz)
	if clamped > requestedKHz {
		return clamped - requestedKHz
	}
	return requestedKHz - clamped
}

// String renders the config for monitor status output.
func (c Config) String() string {
	return fmt.Sprintf("phi2=%dkHz sys=%dkHz div=%d.%d/%d",
		c.Phi2KHz, c.SysClockKHz, c.DividerInt, c.DividerFrac, 1<<dividerFracBits)
}

// ResetDeadlineUS computes the minimum reset-low duration, ported from
// original_source/src/ria.c's ria_get_reset_ms (scaled ms->us): the
// configured duration stands unless phi2_khz is 1 or 2, which bump it
// up to 3ms or 2ms respectively to guarantee the 6502 sees at least
// two PHI2 cycles during reset, and an unconfigured (zero) duration
// otherwise floors to 1ms.
func ResetDeadlineUS(configuredUS uint32, phi2KHz uint32) uint32 {
	result := configuredUS
	if phi2KHz == 1 && result < 3000 {
		result = 3000
	}
	if phi2KHz == 2 && result < 2000 {
		result = 2000
	}
	if result == 0 {
		result = 1000
	}
	return result
}
