package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestParseFixtureSkipsBlankLinesAndComments(t *testing.T) {
	path := writeFixture(t, "# a comment\n\nwrite UART_TX 0x41\n  \ntick 2\n")
	ops, err := parseFixture(path)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	require.Equal(t, "write", ops[0].kind)
	require.Equal(t, []string{"UART_TX", "0x41"}, ops[0].args)
	require.Equal(t, "tick", ops[1].kind)
}

func TestParseByteAcceptsHexAndDecimal(t *testing.T) {
	v, err := parseByte("0x2A")
	require.NoError(t, err)
	require.Equal(t, byte(0x2A), v)

	v, err = parseByte("42")
	require.NoError(t, err)
	require.Equal(t, byte(42), v)
}

func TestParseByteRejectsOutOfRange(t *testing.T) {
	_, err := parseByte("256")
	require.Error(t, err)
}
