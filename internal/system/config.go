package system

// Config is the orchestrator's boot configuration, the Go analogue of
// cmd/ria's flag surface (SPEC_FULL.md §6: "-phi2khz, -reset-us,
// -console, -flash, -vga, -headless").
type Config struct {
	Phi2KHz   uint32
	ResetUS   uint32
	EnableVGA bool
	Headless  bool
}

// Defaults fills zero-valued fields with the teacher's conventional
// sensible boot defaults.
func (c *Config) Defaults() {
	if c.Phi2KHz == 0 {
		c.Phi2KHz = 4000
	}
}

// DefaultConfig returns a Config with Defaults already applied.
func DefaultConfig() Config {
	c := Config{}
	c.Defaults()
	return c
}
