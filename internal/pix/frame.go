// Package pix implements the PIX uplink and VGA backchannel (spec.md
// §4.5 "PIX Link (C5)"), grounded on original_source/src/ria/sys/pix.c
// (outbound frames, SET_XREG dispatch) and sys/vga.c (backchannel
// decode, presence state machine, vsync/ACK watchdogs).
package pix

// Device identifies one of the up to 8 PIX peripherals addressable on
// the link (pix.c's 3-bit device field). DeviceVGA is channel 0 of the
// companion display board; DeviceIdle is the resync marker pix_init
// emits a pair of on startup.
type Device uint8

const (
	DeviceVGA  Device = 0
	DeviceIdle Device = 0x7
)

// Frame is one outbound PIX message: {device:3, channel:4, addr:9,
// data:16}, the 32-bit word spec.md §4.5 describes as "device:3,
// channel:4, addr:16, data:16" with the addr field in practice a
// small per-channel register index (pix.c's pix_addr never exceeds a
// handful of registers per channel) rather than a full 16-bit value —
// 3+4+9+16 is what actually fits the 32-bit PIO word.
type Frame struct {
	Device  Device
	Channel uint8 // 4 bits
	Addr    uint16 // 9 bits
	Data    uint16
}

// Encode packs a Frame into the 32-bit word the PIO TX FIFO accepts,
// the Go equivalent of pix.c's PIX_MESSAGE macro.
func (f Frame) Encode() uint32 {
	return uint32(f.Device&0x7)<<29 |
		uint32(f.Channel&0xF)<<25 |
		uint32(f.Addr&0x1FF)<<16 |
		uint32(f.Data)
}
