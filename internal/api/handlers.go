package api

import (
	"errors"

	"github.com/rumbledethumps/ria/internal/apifs"
	"github.com/rumbledethumps/ria/internal/errno"
	"github.com/rumbledethumps/ria/internal/fs"
)

// fsErrno maps internal/fs's own sentinel errors to the core's errno
// taxonomy. errno.FromFS targets the standard library's io/fs
// sentinels (for a future real-directory volume backend); internal/fs
// defines distinct ones, so call sites here translate those first and
// fall back to FromFS for anything else a Volume implementation might
// return.
func fsErrno(err error) errno.Errno {
	switch {
	case err == nil:
		return errno.OK
	case errors.Is(err, fs.ErrNotExist):
		return errno.NoEnt
	case errors.Is(err, fs.ErrExist):
		return errno.Exist
	case errors.Is(err, fs.ErrTooManyOpenFiles):
		return errno.MFile
	case errors.Is(err, fs.ErrInvalidParameter):
		return errno.Inval
	case errors.Is(err, fs.ErrNoSpace):
		return errno.NoSpc
	case errors.Is(err, fs.ErrNoExec):
		return errno.NoExec
	default:
		return errno.FromFS(err)
	}
}

// xferChunk bounds how many bytes a single Poll tick moves for read/
// write, so a large transfer yields back to the main loop instead of
// blocking it, mirroring api_read_impl/api_write_impl's own chunked
// loop over FatFs reads.
const xferChunk = 64

// transfer tracks an in-progress cooperative read or write.
type transfer struct {
	fd     int
	addr   uint16
	remain int
	moved  int
	write  bool
}

func (d *Dispatcher) registerBuiltins() {
	d.Register(OpErrnoOpt, apiErrnoOpt)
	d.Register(OpOpen, apiOpen)
	d.Register(OpClose, apiClose)
	d.Register(OpRead, apiRead)
	d.Register(OpWrite, apiWrite)
	d.Register(OpJmp, apiJmp)
	d.Register(OpExit, apiExit)
	d.Register(OpRTCGet, apiRTCGet)
	d.Register(OpRTCSet, apiRTCSet)
	d.Register(OpSetXReg, apiSetXReg)
}

// apiSetXReg implements SET_XREG(device, channel, addr, [v1..vn]),
// delegating the reverse-operand-order wire delivery and the
// canvas-before-mode special case to internal/pix.Link.SetXReg.
func apiSetXReg(d *Dispatcher) bool {
	if d.Pix == nil {
		d.returnErrno(errno.NoDev)
		return false
	}
	more, inval := d.Pix.SetXReg(d.XStack)
	if inval {
		d.returnErrno(errno.Inval)
		return false
	}
	if d.Pix.TimedOut() {
		d.Pix.Nak()
		d.returnErrno(errno.Io)
		return false
	}
	if !more {
		d.returnAX(0)
	}
	return more
}

// apiErrnoOpt selects the errno numbering a 6502 program wants
// API_ERRNO reported in, mirroring api_api_errno_opt. The numbering
// byte is the call's only (and so deepest) argument.
func apiErrnoOpt(d *Dispatcher) bool {
	n, ok := d.XStack.PopUint8End()
	if !ok || n > 2 {
		d.returnErrno(errno.Inval)
		return false
	}
	d.Numbering = errno.Numbering(n)
	d.returnAX(0)
	return false
}

// apiOpen implements open(path, flags): path is pushed first (deep),
// the flags byte last (shallow), mirroring std_api_open.
func apiOpen(d *Dispatcher) bool {
	flagsB, ok := d.XStack.PopBytes(1)
	if !ok {
		d.returnErrno(errno.Inval)
		return false
	}
	path := d.XStack.TailString()
	fd, err := d.Pool.Reserve(d.Volume, path, apifs.TranslateFlags(flagsB[0]))
	if err != nil {
		d.returnErrno(fsErrno(err))
		return false
	}
	d.returnAX(int16(fd))
	return false
}

// apiClose implements close(fd): a single deep argument.
func apiClose(d *Dispatcher) bool {
	fd, ok := d.XStack.PopUint8End()
	if !ok {
		d.returnErrno(errno.Inval)
		return false
	}
	if err := d.Pool.Close(int(fd)); err != nil {
		d.returnErrno(fsErrno(err))
		return false
	}
	d.returnAX(0)
	return false
}

// apiRead implements read(fd, xramAddr, count): count is pushed last
// (shallowest, popped first), xramAddr next, fd deepest.
func apiRead(d *Dispatcher) bool {
	if d.io == nil {
		countB, ok := d.XStack.PopBytes(2)
		if !ok {
			d.returnErrno(errno.Inval)
			return false
		}
		addrB, ok := d.XStack.PopBytes(2)
		if !ok {
			d.returnErrno(errno.Inval)
			return false
		}
		fd, ok := d.XStack.PopUint8End()
		if !ok {
			d.returnErrno(errno.Inval)
			return false
		}
		if !apifs.InRange(int(fd)) && fd != apifs.FDStdin {
			d.returnErrno(errno.BadF)
			return false
		}
		d.io = &transfer{fd: int(fd), addr: le16(addrB), remain: int(le16(countB))}
	}
	return d.stepRead()
}

func (d *Dispatcher) stepRead() bool {
	t := d.io
	f, ok := d.Pool.Lookup(t.fd)
	if !ok {
		d.returnErrno(errno.BadF)
		d.io = nil
		return false
	}
	n := t.remain
	if n > xferChunk {
		n = xferChunk
	}
	buf := make([]byte, n)
	got, err := f.Read(buf)
	if got > 0 {
		d.XRAM.WriteBlock(t.addr, buf[:got])
		t.addr += uint16(got)
		t.moved += got
		t.remain -= got
	}
	if err != nil || got == 0 || t.remain == 0 {
		d.returnAX(int16(t.moved))
		d.io = nil
		return false
	}
	return true
}

// apiWrite implements write(fd, xramAddr, count) symmetrically to
// apiRead.
func apiWrite(d *Dispatcher) bool {
	if d.io == nil {
		countB, ok := d.XStack.PopBytes(2)
		if !ok {
			d.returnErrno(errno.Inval)
			return false
		}
		addrB, ok := d.XStack.PopBytes(2)
		if !ok {
			d.returnErrno(errno.Inval)
			return false
		}
		fd, ok := d.XStack.PopUint8End()
		if !ok {
			d.returnErrno(errno.Inval)
			return false
		}
		if !apifs.InRange(int(fd)) && fd != apifs.FDStdout && fd != apifs.FDStderr {
			d.returnErrno(errno.BadF)
			return false
		}
		d.io = &transfer{fd: int(fd), addr: le16(addrB), remain: int(le16(countB)), write: true}
	}
	return d.stepWrite()
}

func (d *Dispatcher) stepWrite() bool {
	t := d.io
	f, ok := d.Pool.Lookup(t.fd)
	if !ok {
		d.returnErrno(errno.BadF)
		d.io = nil
		return false
	}
	n := t.remain
	if n > xferChunk {
		n = xferChunk
	}
	buf := make([]byte, n)
	d.XRAM.ReadBlock(t.addr, buf)
	got, err := f.Write(buf)
	if got > 0 {
		t.addr += uint16(got)
		t.moved += got
		t.remain -= got
	}
	if err != nil || t.remain == 0 {
		d.returnAX(int16(t.moved))
		d.io = nil
		return false
	}
	return true
}

// apiJmp implements jmp(addr): the reset-vector rewrite + warm reset
// spec.md §4.4 describes for transferring control into a loaded
// program, wired to cpu.Controller.Jump by the orchestrator (see
// Controller's caller; Dispatcher itself stays CPU-agnostic and only
// exposes the decoded address through JumpAddr).
func apiJmp(d *Dispatcher) bool {
	addr, ok := d.XStack.PopUint16End()
	if !ok {
		d.returnErrno(errno.Inval)
		return false
	}
	d.JumpAddr = &addr
	d.returnAX(0)
	return false
}

// apiExit implements exit(code): mirrors ria_halt() being triggered
// by the 0x0F action, but reached through the API surface instead of
// the dedicated halt marker.
func apiExit(d *Dispatcher) bool {
	code, ok := d.XStack.PopUint8End()
	if !ok {
		d.returnErrno(errno.Inval)
		return false
	}
	d.ExitCode = &code
	d.returnAX(0)
	return false
}
