// cmd/ria-bench is a step-bounded fixture runner, the conformance/
// trace tool analogous to the teacher's cmd/cpurunner: instead of
// driving a Game Boy CPU against a blargg test ROM and pattern-
// matching its serial output, it drives internal/system.Machine's bus
// engine against a bus-operation fixture and pattern-matches the
// console UART's captured output, since this port has no 6502
// instruction interpreter to execute a raw program image with
// (spec.md §6 "cmd/ria-bench").
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/rumbledethumps/ria/internal/system"
)

func main() {
	fixturePath := flag.String("fixture", "", "path to a bus-operation fixture script")
	until := flag.String("until", "", "after the run, report whether captured console output contains this substring (case-insensitive); the run is not cut short; empty to disable")
	auto := flag.Bool("auto", false, "treat a clean full run as PASS, any fixture error as FAIL, and exit 0/1 accordingly")
	trace := flag.Bool("trace", false, "print each instruction's status line as it runs")
	traceOnFail := flag.Bool("traceOnFail", false, "on failure, dump the recent instruction trace")
	traceWindow := flag.Int("traceWindow", 200, "number of recent instructions to retain for traceOnFail")
	timeout := flag.Duration("timeout", 0, "optional wall-clock timeout (e.g. 30s); 0 disables")
	flag.Parse()

	if *fixturePath == "" {
		log.Fatal("-fixture is required")
	}
	ops, err := parseFixture(*fixturePath)
	if err != nil {
		log.Fatalf("read fixture: %v", err)
	}

	console := &captureUART{}
	m := system.New(system.DefaultConfig(), console, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Loop.Run(ctx)

	start := time.Now()
	var deadline time.Time
	if *timeout > 0 {
		deadline = start.Add(*timeout)
	}

	n, runErr, ring := runFixtureWatched(m, ops, *traceWindow, *trace, deadline)
	dur := time.Since(start)

	out := console.String()
	if *until != "" && strings.Contains(strings.ToLower(out), strings.ToLower(*until)) {
		fmt.Printf("\nDetected %q in console output.\n", *until)
	}

	if runErr != nil {
		fmt.Printf("\nFAIL at instruction %d/%d: %v\n", n+1, len(ops), runErr)
		if *traceOnFail {
			dumpTrace(ring)
		}
		if out != "" {
			fmt.Printf("\n--- console output ---\n%s\n--- end console ---\n", out)
		}
		fmt.Printf("\nDone: instructions=%d elapsed=%s\n", n, dur.Truncate(time.Millisecond))
		os.Exit(1)
	}

	fmt.Printf("\nPASS: %d instructions, elapsed=%s\n", n, dur.Truncate(time.Millisecond))
	if *trace {
		dumpTrace(ring)
	}
	if *auto {
		os.Exit(0)
	}
}

// runFixtureWatched wraps runFixture with an optional deadline check
// and per-instruction trace printing; cpurunner checks its own
// deadline once per CPU step, this checks once per fixture instruction.
func runFixtureWatched(m *system.Machine, ops []op, traceWindow int, liveTrace bool, deadline time.Time) (int, error, []traceEntry) {
	if !liveTrace && deadline.IsZero() {
		return runFixture(m, ops, traceWindow)
	}

	ring := make([]traceEntry, 0, traceWindow)
	for i, o := range ops {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return i, fmt.Errorf("timeout before instruction %d", i+1), ring
		}
		if err := execOp(m, o); err != nil {
			return i, err, ring
		}
		te := traceEntry{line: o.line, kind: o.kind, args: o.args, status: m.Status()}
		if liveTrace {
			fmt.Printf("%04d %-8s %-20s %s\n", te.line, te.kind, strings.Join(te.args, " "), te.status)
		}
		if traceWindow > 0 {
			ring = append(ring, te)
			if len(ring) > traceWindow {
				ring = ring[1:]
			}
		}
	}
	return len(ops), nil, ring
}

func dumpTrace(ring []traceEntry) {
	if len(ring) == 0 {
		return
	}
	fmt.Printf("\n--- recent trace (last %d instructions) ---\n", len(ring))
	for _, te := range ring {
		fmt.Printf("%04d %-8s %-20s %s\n", te.line, te.kind, strings.Join(te.args, " "), te.status)
	}
	fmt.Printf("--- end trace ---\n")
}
