// Package apifs implements the API-layer file descriptor pool (spec.md
// §4.4 "API Protocol (C4)"), grounded on
// original_source/src/dev/std.c's fil_pool/FIL_OFFS scheme: three
// reserved stream numbers for stdin/stdout/stderr followed by 16
// pool slots backed by real files through internal/fs.
package apifs

import (
	"io"

	"github.com/rumbledethumps/ria/internal/fs"
)

// Reserved low file descriptors, matching std.c's FIL_STDIN/STDOUT/STDERR.
const (
	FDStdin  = 0
	FDStdout = 1
	FDStderr = 2

	// PoolSize mirrors std.c's FIL_MAX.
	PoolSize = 16
	// offset is std.c's FIL_OFFS: the first pool-backed fd number.
	offset = 3
)

// Open-flag bits, transcribed from std_api_open's comment "these match
// CC65 which is closer to POSIX than FatFs".
const (
	FlagRDWR   = 0x03
	FlagCreat  = 0x10
	FlagTrunc  = 0x20
	FlagAppend = 0x40
	FlagExcl   = 0x80
)

// TranslateFlags maps the CC65-POSIX-ish flag byte to an fs.OpenMode,
// the Go equivalent of std_api_open's flags-to-FatFs-mode switch.
func TranslateFlags(flags uint8) fs.OpenMode {
	mode := fs.OpenMode(flags & FlagRDWR)
	if flags&FlagCreat == 0 {
		return mode
	}
	switch {
	case flags&FlagExcl != 0:
		return mode | fs.OpenCreateNew
	case flags&FlagTrunc != 0:
		return mode | fs.OpenCreateAlways
	case flags&FlagAppend != 0:
		return mode | fs.OpenAppend
	default:
		return mode | fs.OpenAlways
	}
}

// Pool is the 16-slot open-file table. Slot i backs descriptor i+3;
// descriptors 0-2 are reserved for the console streams and are never
// stored here.
type Pool struct {
	slots [PoolSize]fs.File
}

// Reserve finds the lowest free slot, opens path in volume with mode,
// and returns the resulting descriptor number. It returns
// fs.ErrTooManyOpenFiles if the pool is full.
func (p *Pool) Reserve(volume fs.Volume, path string, mode fs.OpenMode) (int, error) {
	slot := -1
	for i := range p.slots {
		if p.slots[i] == nil {
			slot = i
			break
		}
	}
	if slot == -1 {
		return -1, fs.ErrTooManyOpenFiles
	}
	f, err := volume.Open(path, mode)
	if err != nil {
		return -1, err
	}
	p.slots[slot] = f
	return slot + offset, nil
}

// Lookup returns the fs.File backing fd, or ok=false if fd is out of
// range or not open.
func (p *Pool) Lookup(fd int) (fs.File, bool) {
	i := fd - offset
	if i < 0 || i >= PoolSize || p.slots[i] == nil {
		return nil, false
	}
	return p.slots[i], true
}

// Close releases fd's slot. It mirrors std_api_close's bounds check.
func (p *Pool) Close(fd int) error {
	i := fd - offset
	if i < 0 || i >= PoolSize || p.slots[i] == nil {
		return fs.ErrInvalidParameter
	}
	err := p.slots[i].Close()
	p.slots[i] = nil
	return err
}

// InRange reports whether fd addresses a pool slot (as opposed to a
// reserved stream number).
func InRange(fd int) bool { return fd >= offset && fd < PoolSize+offset }

// ConsoleReadWriter is the shape of a stdin/stdout/stderr shim. The API
// dispatcher does not use it: descriptors 0-2 are never stored in the
// pool, so read and write calls on them return BadF.
type ConsoleReadWriter interface {
	io.Reader
	io.Writer
}
