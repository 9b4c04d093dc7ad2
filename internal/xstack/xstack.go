// Package xstack implements the 512-byte top-down auxiliary stack
// shared between the 6502 and the microcontroller for API argument
// marshaling (spec.md §3 "Auxiliary stack").
package xstack

// Size is the usable capacity of the stack in bytes.
const Size = 512

// Stack is a top-down byte stack. Index Size is a permanent zero
// sentinel so strings pushed without an explicit terminator still read
// as NUL-terminated C strings from the microcontroller side.
type Stack struct {
	buf [Size + 1]byte
	ptr int // index of top of stack; Size means empty
}

// New returns an empty Stack.
func New() *Stack {
	s := &Stack{ptr: Size}
	return s
}

// Reset empties the stack. Called on every API completion per spec.md
// §3 "Lifecycles": xstack_ptr resets to empty on every API completion.
func (s *Stack) Reset() {
	s.ptr = Size
	s.buf[Size] = 0
}

// Len returns the number of bytes currently pushed.
func (s *Stack) Len() int { return Size - s.ptr }

// Ptr returns the raw top-of-stack index, mirroring xstack_ptr.
func (s *Stack) Ptr() int { return s.ptr }

// Full reports whether the stack has no room for another push.
func (s *Stack) Full() bool { return s.ptr == 0 }

// Push6502 pushes one byte the way the 6502 does: moving the top-of-
// stack index down and storing at the new top. Returns false if the
// stack is already full (caller should treat this as Inval upstream).
func (s *Stack) Push6502(b byte) bool {
	if s.ptr == 0 {
		return false
	}
	s.ptr--
	s.buf[s.ptr] = b
	return true
}

// PushBytes6502 pushes a byte slice in the order a 6502 program would
// push it one byte at a time (last byte ends up deepest). Used by tests
// and by cmd/ria-bench to synthesize 6502-side API calls.
func (s *Stack) PushBytes6502(data []byte) bool {
	for i := len(data) - 1; i >= 0; i-- {
		if !s.Push6502(data[i]) {
			return false
		}
	}
	return true
}

// Bytes returns the n bytes currently on the stack, top-down, i.e. in
// the natural order the 6502 intended (property 3 in spec.md §8).
func (s *Stack) Bytes() []byte {
	out := make([]byte, s.Len())
	copy(out, s.buf[s.ptr:Size])
	return out
}

// PopUint8End pops a single trailing byte (the last argument pushed),
// mirroring api_pop_uint8_end. Missing bytes (stack already empty)
// default to zero and succeed, matching the original's short-encoding
// tolerance.
func (s *Stack) PopUint8End() (uint8, bool) {
	switch s.ptr {
	case Size:
		return 0, true
	case Size - 1:
		v := s.buf[s.ptr]
		s.ptr = Size
		return v, true
	default:
		return 0, false
	}
}

// PopInt8End is the signed counterpart of PopUint8End.
func (s *Stack) PopInt8End() (int8, bool) {
	v, ok := s.PopUint8End()
	return int8(v), ok
}

// PopUint16End pops up to 2 trailing bytes as a little-endian uint16,
// mirroring api_pop_uint16_end. A short encoding (1 byte on the stack)
// is treated as the low byte with the high byte defaulted to zero.
func (s *Stack) PopUint16End() (uint16, bool) {
	switch s.ptr {
	case Size:
		return 0, true
	case Size - 1:
		v := uint16(s.buf[s.ptr])
		s.ptr = Size
		return v, true
	case Size - 2:
		v := uint16(s.buf[s.ptr]) | uint16(s.buf[s.ptr+1])<<8
		s.ptr = Size
		return v, true
	default:
		return 0, false
	}
}

// PopInt16End is the signed counterpart of PopUint16End.
func (s *Stack) PopInt16End() (int16, bool) {
	v, ok := s.PopUint16End()
	return int16(v), ok
}

// PopUint32End pops up to 4 trailing bytes as a little-endian uint32,
// mirroring api_pop_uint32_end's four short-encoding cases.
func (s *Stack) PopUint32End() (uint32, bool) {
	n := Size - s.ptr
	if n > 4 {
		return 0, false
	}
	var v uint32
	for i := 0; i < n; i++ {
		v |= uint32(s.buf[s.ptr+i]) << (8 * i)
	}
	s.ptr = Size
	return v, true
}

// PopInt32End is the signed counterpart of PopUint32End.
func (s *Stack) PopInt32End() (int32, bool) {
	v, ok := s.PopUint32End()
	return int32(v), ok
}

// PopBytes consumes exactly n bytes from the top of stack (top-down,
// natural order) and advances the pointer. Used for fixed-size prefix
// fields (e.g. file offsets) that precede a trailing string argument.
func (s *Stack) PopBytes(n int) ([]byte, bool) {
	if n < 0 || s.ptr+n > Size {
		return nil, false
	}
	out := make([]byte, n)
	copy(out, s.buf[s.ptr:s.ptr+n])
	s.ptr += n
	return out, true
}

// TailString returns the remaining bytes on the stack as a string,
// relying on the permanent sentinel at buf[Size] to behave like a
// NUL-terminated C string when consumers read past the end.
func (s *Stack) TailString() string {
	return string(s.buf[s.ptr:Size])
}
