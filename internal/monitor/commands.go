package monitor

import (
	"fmt"
	"strconv"
	"strings"
)

// Command is one monitor command table entry, grounded on
// original_source/src/ria/mon/hlp.c's help-text table shape,
// re-expressed as a dispatched Go slice instead of a static
// __in_flash string array.
type Command struct {
	Name        string
	Description string
	Run         func(args []string) (string, error)
}

// Table is the monitor's dispatched command set.
type Table struct {
	commands []Command
}

// NewTable returns an empty command table.
func NewTable() *Table { return &Table{} }

// Register installs or replaces the command named c.Name.
func (t *Table) Register(c Command) {
	for i, existing := range t.commands {
		if strings.EqualFold(existing.Name, c.Name) {
			t.commands[i] = c
			return
		}
	}
	t.commands = append(t.commands, c)
}

// Lookup finds a command by name, case-insensitively.
func (t *Table) Lookup(name string) (Command, bool) {
	for _, c := range t.commands {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Command{}, false
}

// Commands returns a snapshot of the registered command table, for
// the monitor's help listing.
func (t *Table) Commands() []Command {
	return append([]Command(nil), t.commands...)
}

// Dispatch parses a raw input line (command name plus space-separated
// arguments) and runs the matching command.
func (t *Table) Dispatch(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	cmd, ok := t.Lookup(fields[0])
	if !ok {
		return "", fmt.Errorf("unknown command %q", fields[0])
	}
	return cmd.Run(fields[1:])
}

// Hooks are the orchestrator callbacks the built-in commands invoke.
// Routing them through a struct of funcs, rather than an import of
// internal/system/internal/cpu, breaks the same kind of cyclic
// dependency spec.md §9's fast-load/fast-store Pump callback design
// note calls out.
type Hooks struct {
	Status   func() string
	Reset    func()
	Load     func(path string) error
	ReadReg  func(name string) (byte, bool)
	WriteReg func(name string, value byte) bool
}

// DefaultCommands builds the status/reset/load/reg command set from
// original_source/src/ria/mon/hlp.c's table, wired to h.
func DefaultCommands(h Hooks) []Command {
	return []Command{
		{
			Name:        "status",
			Description: "show bus, PIX link, and API status",
			Run: func(args []string) (string, error) {
				return h.Status(), nil
			},
		},
		{
			Name:        "reset",
			Description: "pulse reset; the 6502 restarts when the pulse ends",
			Run: func(args []string) (string, error) {
				h.Reset()
				return "reset asserted", nil
			},
		},
		{
			Name:        "load",
			Description: "load a program image into 6502 RAM",
			Run: func(args []string) (string, error) {
				if len(args) != 1 {
					return "", fmt.Errorf("usage: load <path>")
				}
				if err := h.Load(args[0]); err != nil {
					return "", err
				}
				return "loaded " + args[0], nil
			},
		},
		{
			Name:        "reg",
			Description: "read or write a register window byte",
			Run: func(args []string) (string, error) {
				switch len(args) {
				case 1:
					v, ok := h.ReadReg(args[0])
					if !ok {
						return "", fmt.Errorf("unknown register %q", args[0])
					}
					return fmt.Sprintf("%s = $%02X", strings.ToUpper(args[0]), v), nil
				case 2:
					n, err := strconv.ParseUint(args[1], 0, 8)
					if err != nil {
						return "", fmt.Errorf("bad value %q", args[1])
					}
					if !h.WriteReg(args[0], byte(n)) {
						return "", fmt.Errorf("unknown register %q", args[0])
					}
					return fmt.Sprintf("%s = $%02X", strings.ToUpper(args[0]), n), nil
				default:
					return "", fmt.Errorf("usage: reg <name> [value]")
				}
			},
		},
	}
}
