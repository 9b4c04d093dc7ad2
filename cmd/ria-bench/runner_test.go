package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rumbledethumps/ria/internal/system"
)

func newBenchMachine() (*system.Machine, *captureUART) {
	console := &captureUART{}
	return system.New(system.DefaultConfig(), console, nil, nil), console
}

func TestRunFixtureWritesThroughConsoleUART(t *testing.T) {
	m, console := newBenchMachine()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Loop.Run(ctx)

	ops := []op{
		{kind: "reset", line: 1},
		{kind: "wait", args: []string{"1ms"}, line: 2},
		{kind: "tick", line: 3},
		{kind: "write", args: []string{"UART_TX", "0x41"}, line: 4},
		{kind: "tick", args: []string{"3"}, line: 5},
		{kind: "wait", args: []string{"1ms"}, line: 6},
	}
	n, err, _ := runFixture(m, ops, 10)
	require.NoError(t, err)
	require.Equal(t, len(ops), n)
	require.Eventually(t, func() bool { return console.String() == "A" }, time.Second, time.Millisecond)
}

func TestRunFixtureExpectMismatchReportsLine(t *testing.T) {
	m, _ := newBenchMachine()
	ops := []op{
		{kind: "expect", args: []string{"API_ERRNO", "0x01"}, line: 7},
	}
	n, err, _ := runFixture(m, ops, 10)
	require.Equal(t, 0, n)
	require.ErrorContains(t, err, "line 7")
}

func TestRunFixtureUnknownInstructionErrors(t *testing.T) {
	m, _ := newBenchMachine()
	ops := []op{{kind: "bogus", line: 3}}
	_, err, _ := runFixture(m, ops, 10)
	require.ErrorContains(t, err, "unknown instruction")
}
