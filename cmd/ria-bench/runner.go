package main

import (
	"fmt"
	"time"

	"github.com/rumbledethumps/ria/internal/system"
)

// windowBase is the register window's base bus address ($FFE0),
// internal/bus's doc comment states it but does not export it as a
// constant since every other caller addresses the window by offset.
const windowBase = 0xFFE0

// traceEntry is one executed fixture instruction with the status seen
// after it ran, the same shape as cpurunner's per-step traceEntry ring,
// retargeted from 6502 registers to the orchestrator's one-line
// Status() summary.
type traceEntry struct {
	line   int
	kind   string
	args   []string
	status string
}

// runFixture executes ops against m, returning the number of
// instructions executed and the first failing expectation, if any.
func runFixture(m *system.Machine, ops []op, traceWindow int) (int, error, []traceEntry) {
	ring := make([]traceEntry, 0, traceWindow)

	for i, o := range ops {
		if err := execOp(m, o); err != nil {
			return i, err, ring
		}
		te := traceEntry{line: o.line, kind: o.kind, args: o.args, status: m.Status()}
		if traceWindow > 0 {
			ring = append(ring, te)
			if len(ring) > traceWindow {
				ring = ring[1:]
			}
		}
	}
	return len(ops), nil, ring
}

func execOp(m *system.Machine, o op) error {
	switch o.kind {
	case "write":
		if len(o.args) != 2 {
			return fmt.Errorf("line %d: write needs <reg> <value>", o.line)
		}
		off, ok := system.RegOffset(o.args[0])
		if !ok {
			return fmt.Errorf("line %d: unknown register %q", o.line, o.args[0])
		}
		val, err := parseByte(o.args[1])
		if err != nil {
			return fmt.Errorf("line %d: %w", o.line, err)
		}
		m.Engine.Write6502(windowBase+uint16(off), val)

	case "read":
		if len(o.args) != 1 {
			return fmt.Errorf("line %d: read needs <reg>", o.line)
		}
		off, ok := system.RegOffset(o.args[0])
		if !ok {
			return fmt.Errorf("line %d: unknown register %q", o.line, o.args[0])
		}
		m.Engine.Read6502(windowBase + uint16(off))

	case "expect":
		if len(o.args) != 2 {
			return fmt.Errorf("line %d: expect needs <reg> <value>", o.line)
		}
		got, ok := m.ReadRegByName(o.args[0])
		if !ok {
			return fmt.Errorf("line %d: unknown register %q", o.line, o.args[0])
		}
		want, err := parseByte(o.args[1])
		if err != nil {
			return fmt.Errorf("line %d: %w", o.line, err)
		}
		if got != want {
			return fmt.Errorf("line %d: %s: got %#02x, want %#02x", o.line, o.args[0], got, want)
		}

	case "tick":
		n := 1
		if len(o.args) == 1 {
			v, err := parseCount(o.args[0])
			if err != nil {
				return fmt.Errorf("line %d: %w", o.line, err)
			}
			n = v
		}
		for i := 0; i < n; i++ {
			m.Tick()
		}

	case "wait":
		if len(o.args) != 1 {
			return fmt.Errorf("line %d: wait needs a duration", o.line)
		}
		d, err := time.ParseDuration(o.args[0])
		if err != nil {
			return fmt.Errorf("line %d: %w", o.line, err)
		}
		time.Sleep(d)

	case "reset":
		us := uint32(0)
		if len(o.args) == 1 {
			v, err := parseUint16(o.args[0])
			if err != nil {
				return fmt.Errorf("line %d: %w", o.line, err)
			}
			us = uint32(v)
		}
		m.Controller.Reset(us)

	case "load":
		if len(o.args) != 1 {
			return fmt.Errorf("line %d: load needs <volume-path>", o.line)
		}
		if err := m.LoadFile(o.args[0]); err != nil {
			return fmt.Errorf("line %d: %w", o.line, err)
		}

	case "stage":
		if len(o.args) != 2 {
			return fmt.Errorf("line %d: stage needs <volume-path> <local-file>", o.line)
		}
		if err := stageFile(m, o.args[0], o.args[1]); err != nil {
			return fmt.Errorf("line %d: %w", o.line, err)
		}

	default:
		return fmt.Errorf("line %d: unknown instruction %q", o.line, o.kind)
	}
	return nil
}
