package main

import "os"

// fileUART backs the console UART with a real file handle (typically
// a serial device path passed via -console), using the same
// never-block-the-action-loop discipline as stdioUART: reads happen
// on their own goroutine feeding a buffered channel.
type fileUART struct {
	f  *os.File
	in chan byte
}

func newFileUART(f *os.File) *fileUART {
	u := &fileUART{f: f, in: make(chan byte, 256)}
	go u.readLoop()
	return u
}

func (u *fileUART) readLoop() {
	buf := make([]byte, 1)
	for {
		n, err := u.f.Read(buf)
		if n > 0 {
			u.in <- buf[0]
		}
		if err != nil {
			return
		}
	}
}

func (u *fileUART) Writable() bool { return true }

func (u *fileUART) Write(b byte) { u.f.Write([]byte{b}) }

func (u *fileUART) Readable() bool { return len(u.in) > 0 }

func (u *fileUART) Read() byte {
	select {
	case b := <-u.in:
		return b
	default:
		return 0
	}
}
