package main

import (
	"bufio"
	"os"
)

// stdioUART adapts the process's stdin/stdout into the action loop's
// non-blocking action.UART shim. Reads happen on their own goroutine
// feeding a small buffered channel, since action.Loop.Run never
// blocks waiting on a byte (spec.md §4.2's action loop discipline);
// Readable/Read just drain whatever has arrived.
type stdioUART struct {
	in  chan byte
	out *bufio.Writer
}

func newStdioUART() *stdioUART {
	u := &stdioUART{
		in:  make(chan byte, 256),
		out: bufio.NewWriter(os.Stdout),
	}
	go u.readLoop()
	return u
}

func (u *stdioUART) readLoop() {
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			u.in <- buf[0]
		}
		if err != nil {
			return
		}
	}
}

func (u *stdioUART) Writable() bool { return true }

func (u *stdioUART) Write(b byte) {
	u.out.WriteByte(b)
	u.out.Flush()
}

func (u *stdioUART) Readable() bool { return len(u.in) > 0 }

func (u *stdioUART) Read() byte {
	select {
	case b := <-u.in:
		return b
	default:
		return 0
	}
}
