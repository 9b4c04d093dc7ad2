package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// op is one parsed fixture instruction. Fixture files are whitespace-
// separated, one instruction per line, '#' starts a line comment —
// the same flat, line-oriented shape cpurunner's ROM inputs have, just
// carrying bus operations instead of 6502 machine code, since this
// port has no 6502 instruction interpreter to execute a ROM image
// with (spec.md §6 "cmd/ria-bench" conformance runner, retargeted from
// Game Boy blargg ROMs to 6502 fast-load/fast-store and API round
// trips).
type op struct {
	kind string
	args []string
	line int
}

func parseFixture(path string) ([]op, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ops []op
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		ops = append(ops, op{kind: fields[0], args: fields[1:], line: lineNo})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return ops, nil
}

func parseByte(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte %q: %w", s, err)
	}
	return byte(v), nil
}

func parseUint16(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return uint16(v), nil
}

func parseCount(s string) (int, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q: %w", s, err)
	}
	return int(v), nil
}
